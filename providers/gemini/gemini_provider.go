package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/suvo-labs/suvo/providers/contracts"
	"github.com/suvo-labs/suvo/providers/models"
	contracts_token "github.com/suvo-labs/suvo/token_management/contracts"
	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// GeminiConfig implements the IChatAIProvider interface for the Gemini API.
type GeminiConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	ApiKey          string
	TokenManagement contracts_token.ITokenManagement

	client *genai.Client
}

// NewGeminiChatProvider creates the API client. An empty key falls back to
// the GEMINI_API_KEY / GOOGLE_API_KEY environment variables read by the SDK.
func NewGeminiChatProvider(ctx context.Context, config *GeminiConfig) (contracts.IChatAIProvider, error) {
	clientConfig := &genai.ClientConfig{
		APIKey:  config.ApiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: config.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	model := config.Model
	if model == "" {
		model = defaultModel
	}

	return &GeminiConfig{
		BaseURL:         config.BaseURL,
		Model:           model,
		Temperature:     config.Temperature,
		ApiKey:          config.ApiKey,
		TokenManagement: config.TokenManagement,
		client:          client,
	}, nil
}

func buildContents(request models.ChatRequest) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(request.History)+1)
	for _, m := range request.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == models.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}

	parts := []*genai.Part{genai.NewPartFromText(request.UserInput)}
	if request.Image != nil {
		raw, err := base64.StdEncoding.DecodeString(request.Image.Data)
		if err != nil {
			return nil, fmt.Errorf("invalid image data: %w", err)
		}
		parts = append([]*genai.Part{genai.NewPartFromBytes(raw, request.Image.MimeType)}, parts...)
	}
	return append(contents, genai.NewContentFromParts(parts, genai.RoleUser)), nil
}

// classify marks quota failures so callers can show a dedicated message.
func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %w", models.ErrQuotaExceeded, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && (apiErrPtr.Code == http.StatusTooManyRequests || apiErrPtr.Status == "RESOURCE_EXHAUSTED") {
		return fmt.Errorf("%w: %w", models.ErrQuotaExceeded, err)
	}
	return err
}

func (geminiProvider *GeminiConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	send := func(r models.StreamResponse) bool {
		select {
		case responseChan <- r:
			return true
		case <-ctx.Done():
			return false
		}
	}

	go func() {
		defer close(responseChan)

		contents, err := buildContents(request)
		if err != nil {
			send(models.StreamResponse{Err: err})
			return
		}

		config := &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(request.SystemPrompt, genai.RoleUser),
			Temperature:       geminiProvider.Temperature,
		}

		var usage *genai.GenerateContentResponseUsageMetadata
		for resp, err := range geminiProvider.client.Models.GenerateContentStream(ctx, geminiProvider.Model, contents, config) {
			if err != nil {
				send(models.StreamResponse{Err: classify(err)})
				return
			}
			if resp.UsageMetadata != nil {
				usage = resp.UsageMetadata
			}
			if text := resp.Text(); text != "" {
				if !send(models.StreamResponse{Content: text}) {
					return
				}
			}
		}

		if usage != nil && geminiProvider.TokenManagement != nil {
			geminiProvider.TokenManagement.UsedTokens(int(usage.PromptTokenCount), int(usage.CandidatesTokenCount))
		}
		send(models.StreamResponse{Done: true})
	}()

	return responseChan
}
