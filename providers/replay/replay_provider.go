// Package replay streams a recorded assistant response in fixed-size chunks.
// It stands in for a live model in offline sessions and tests.
package replay

import (
	"context"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/suvo-labs/suvo/providers/contracts"
	"github.com/suvo-labs/suvo/providers/models"
)

const DefaultChunkSize = 24

type ReplayConfig struct {
	// File is read once at construction. Text is used when File is empty.
	File      string
	Text      string
	ChunkSize int
	// Delay is slept between chunks.
	Delay time.Duration
}

type replayProvider struct {
	text      string
	chunkSize int
	delay     time.Duration
}

func NewReplayProvider(config *ReplayConfig) (contracts.IChatAIProvider, error) {
	text := config.Text
	if config.File != "" {
		raw, err := os.ReadFile(config.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read replay file: %w", err)
		}
		text = string(raw)
	}

	chunkSize := config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &replayProvider{text: text, chunkSize: chunkSize, delay: config.Delay}, nil
}

// Chunks splits text into pieces of at most size bytes without cutting a
// UTF-8 sequence.
func Chunks(text string, size int) []string {
	var out []string
	for len(text) > 0 {
		n := size
		if n >= len(text) {
			n = len(text)
		} else {
			for n > 0 && !utf8.RuneStart(text[n]) {
				n--
			}
			if n == 0 {
				_, n = utf8.DecodeRuneInString(text)
			}
		}
		out = append(out, text[:n])
		text = text[n:]
	}
	return out
}

func (p *replayProvider) ChatCompletionRequest(ctx context.Context, _ models.ChatRequest) <-chan models.StreamResponse {
	responseChan := make(chan models.StreamResponse)

	go func() {
		defer close(responseChan)

		for _, chunk := range Chunks(p.text, p.chunkSize) {
			if p.delay > 0 {
				select {
				case <-time.After(p.delay):
				case <-ctx.Done():
					return
				}
			}
			select {
			case responseChan <- models.StreamResponse{Content: chunk}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case responseChan <- models.StreamResponse{Done: true}:
		case <-ctx.Done():
		}
	}()

	return responseChan
}
