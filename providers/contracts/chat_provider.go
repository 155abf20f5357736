package contracts

import (
	"context"

	"github.com/suvo-labs/suvo/providers/models"
)

// IChatAIProvider streams a completion. The returned channel is closed when
// the stream ends; cancelling ctx stops the stream.
type IChatAIProvider interface {
	ChatCompletionRequest(ctx context.Context, request models.ChatRequest) <-chan models.StreamResponse
}
