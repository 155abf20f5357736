package session

import (
	"sync/atomic"

	"github.com/suvo-labs/suvo/protocol/models"
	"github.com/suvo-labs/suvo/vfs"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of the conversation. Assistant turns start empty and
// streaming and reach their terminal form exactly once.
type Turn struct {
	ID          string
	Role        Role
	Text        string
	Operations  []models.FileOperation
	Version     int
	IsStreaming bool
	Error       string
	// Attachment is the image the user sent with this turn.
	Attachment *vfs.Attachment
	// PriorFileSystem is the file system before this turn's operations were
	// applied. Set only on versioned turns.
	PriorFileSystem vfs.FileSystem
	Skipped         []vfs.SkippedOperation
}

// HasVersion reports whether the turn changed the project.
func (t Turn) HasVersion() bool {
	return t.Version > 0
}

// Clone returns a copy that shares no slices or maps with t.
func (t Turn) Clone() Turn {
	out := t
	if t.Operations != nil {
		out.Operations = append([]models.FileOperation(nil), t.Operations...)
	}
	if t.Skipped != nil {
		out.Skipped = append([]vfs.SkippedOperation(nil), t.Skipped...)
	}
	if t.PriorFileSystem != nil {
		out.PriorFileSystem = t.PriorFileSystem.Clone()
	}
	return out
}

// CancelToken is a cooperative stop flag polled by the streaming loop.
type CancelToken struct {
	cancelled atomic.Bool
}

func NewCancelToken() *CancelToken {
	return &CancelToken{}
}

func (c *CancelToken) Cancel() {
	c.cancelled.Store(true)
}

// Cancelled is safe to call on a nil token.
func (c *CancelToken) Cancelled() bool {
	return c != nil && c.cancelled.Load()
}
