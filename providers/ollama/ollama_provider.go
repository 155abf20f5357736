package ollama

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/suvo-labs/suvo/providers/contracts"
	"github.com/suvo-labs/suvo/providers/models"
	ollama_models "github.com/suvo-labs/suvo/providers/ollama/models"
	contracts_token "github.com/suvo-labs/suvo/token_management/contracts"
)

// OllamaConfig implements the IChatAIProvider interface for a local Ollama server.
type OllamaConfig struct {
	BaseURL         string
	Model           string
	Temperature     *float32
	TokenManagement contracts_token.ITokenManagement
	Client          *http.Client
}

const (
	defaultBaseURL = "http://localhost:11434/api"
	defaultModel   = "llama3.2"
)

// NewOllamaChatProvider initializes a new OllamaConfig provider.
func NewOllamaChatProvider(config *OllamaConfig) contracts.IChatAIProvider {
	baseURL := strings.TrimSuffix(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	client := config.Client
	if client == nil {
		client = &http.Client{}
	}
	return &OllamaConfig{
		BaseURL:         baseURL,
		Model:           model,
		Temperature:     config.Temperature,
		TokenManagement: config.TokenManagement,
		Client:          client,
	}
}

func buildMessages(request models.ChatRequest) []ollama_models.Message {
	messages := []ollama_models.Message{{Role: "system", Content: request.SystemPrompt}}
	for _, m := range request.History {
		role := "user"
		if m.Role == models.RoleModel {
			role = "assistant"
		}
		messages = append(messages, ollama_models.Message{Role: role, Content: m.Content})
	}

	user := ollama_models.Message{Role: "user", Content: request.UserInput}
	if request.Image != nil {
		user.Images = []string{request.Image.Data}
	}
	return append(messages, user)
}

func (ollamaProvider *OllamaConfig) ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse {
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

		reqBody := ollama_models.OllamaChatCompletionRequest{
			Model:    ollamaProvider.Model,
			Messages: buildMessages(request),
			Stream:   true,
		}
		if ollamaProvider.Temperature != nil {
			reqBody.Options = &ollama_models.Options{Temperature: ollamaProvider.Temperature}
		}

		jsonData, err := sonic.Marshal(reqBody)
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error marshalling request body: %w", err)})
			return
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, ollamaProvider.BaseURL+"/chat", bytes.NewBuffer(jsonData))
		if err != nil {
			send(models.StreamResponse{Err: fmt.Errorf("error creating request: %w", err)})
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := ollamaProvider.Client.Do(req)
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				send(models.StreamResponse{Err: fmt.Errorf("request canceled: %w", err)})
				return
			}
			send(models.StreamResponse{Err: fmt.Errorf("error sending request: %w", err)})
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			var apiError ollama_models.ErrorResponse
			message := strings.TrimSpace(string(body))
			if err := sonic.Unmarshal(body, &apiError); err == nil && apiError.Error != "" {
				message = apiError.Error
			}
			err := fmt.Errorf("API request failed with status code '%d' - %s", resp.StatusCode, message)
			if resp.StatusCode == http.StatusTooManyRequests {
				err = fmt.Errorf("%w: %w", models.ErrQuotaExceeded, err)
			}
			send(models.StreamResponse{Err: err})
			return
		}

		reader := bufio.NewReader(resp.Body)

		for {
			line, err := reader.ReadBytes('\n')
			if len(bytes.TrimSpace(line)) > 0 {
				var response ollama_models.OllamaChatCompletionResponse
				if err := sonic.Unmarshal(line, &response); err != nil {
					send(models.StreamResponse{Err: fmt.Errorf("error unmarshalling chunk: %w", err)})
					return
				}

				if response.Message.Content != "" {
					if !send(models.StreamResponse{Content: response.Message.Content}) {
						return
					}
				}

				if response.Done {
					if response.PromptEvalCount > 0 && ollamaProvider.TokenManagement != nil {
						ollamaProvider.TokenManagement.UsedTokens(response.PromptEvalCount, response.EvalCount)
					}
					send(models.StreamResponse{Done: true})
					return
				}
			}

			if err != nil {
				if err == io.EOF {
					send(models.StreamResponse{Done: true})
					return
				}
				send(models.StreamResponse{Err: fmt.Errorf("error reading stream: %w", err)})
				return
			}
		}
	}()

	return responseChan
}
