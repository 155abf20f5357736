package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/suvo-labs/suvo/providers/contracts"
	"github.com/suvo-labs/suvo/providers/gemini"
	"github.com/suvo-labs/suvo/providers/ollama"
	"github.com/suvo-labs/suvo/providers/replay"
	contracts_token "github.com/suvo-labs/suvo/token_management/contracts"
)

const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderReplay = "replay"
)

var ErrUnknownProvider = errors.New("unknown AI provider")

// AIProviderConfig is the ai_provider_config section of the configuration.
type AIProviderConfig struct {
	Provider    string   `mapstructure:"provider"`
	BaseURL     string   `mapstructure:"base_url"`
	Model       string   `mapstructure:"model"`
	Stream      bool     `mapstructure:"stream"`
	Temperature *float32 `mapstructure:"temperature"`
	ApiKey      string   `mapstructure:"api_key"`
	// ReplayFile and ChunkSize drive the replay provider.
	ReplayFile string `mapstructure:"replay_file"`
	ChunkSize  int    `mapstructure:"chunk_size"`
}

// ChatProviderFactory builds the configured fragment source.
func ChatProviderFactory(ctx context.Context, config *AIProviderConfig, tokenManagement contracts_token.ITokenManagement) (contracts.IChatAIProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: missing ai_provider_config", ErrUnknownProvider)
	}

	switch strings.ToLower(config.Provider) {
	case ProviderGemini:
		return gemini.NewGeminiChatProvider(ctx, &gemini.GeminiConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			ApiKey:          config.ApiKey,
			TokenManagement: tokenManagement,
		})
	case ProviderOllama:
		return ollama.NewOllamaChatProvider(&ollama.OllamaConfig{
			BaseURL:         config.BaseURL,
			Model:           config.Model,
			Temperature:     config.Temperature,
			TokenManagement: tokenManagement,
		}), nil
	case ProviderReplay:
		return replay.NewReplayProvider(&replay.ReplayConfig{
			File:      config.ReplayFile,
			ChunkSize: config.ChunkSize,
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, config.Provider)
	}
}
