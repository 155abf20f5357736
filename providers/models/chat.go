package models

import "errors"

// ErrQuotaExceeded marks upstream rate-limit and quota failures.
var ErrQuotaExceeded = errors.New("quota exceeded")

// StreamResponse is one step of a streamed completion. Exactly one of
// Content, Err or Done is meaningful per value; the channel closes after Done
// or Err.
type StreamResponse struct {
	Content string
	Err     error
	Done    bool
}

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

type ChatMessage struct {
	Role    Role
	Content string
}

// InlineImage is an image sent along with the user input.
type InlineImage struct {
	// Data is base64 encoded.
	Data     string
	MimeType string
}

type ChatRequest struct {
	SystemPrompt string
	History      []ChatMessage
	UserInput    string
	Image        *InlineImage
}
