// Package session runs conversation turns against a fragment source and
// commits the resulting edits to the project file system.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/suvo-labs/suvo/checkpoint"
	"github.com/suvo-labs/suvo/logger"
	"github.com/suvo-labs/suvo/prompt"
	"github.com/suvo-labs/suvo/protocol"
	protocol_contracts "github.com/suvo-labs/suvo/protocol/contracts"
	"github.com/suvo-labs/suvo/providers/contracts"
	"github.com/suvo-labs/suvo/providers/models"
	"github.com/suvo-labs/suvo/vfs"
)

var log = logger.Component("session")

const (
	AppliedMessage  = "I've applied the requested code changes."
	RestoredMessage = "I have restored the project to the selected checkpoint."
	QuotaMessage    = "You have exceeded your API quota. Please check your plan and billing details."
	FailureMessage  = "An unexpected error occurred while processing your request."
)

// UpdateFunc receives a copy of the assistant turn after every fragment and
// once more in its terminal form.
type UpdateFunc func(Turn)

type Options struct {
	Parser       protocol_contracts.IEditParser
	Applier      *vfs.Applier
	Prompts      *prompt.Builder
	SystemPrompt string
}

// Session owns the per-conversation state: the file system, checkpoints,
// turn history, the pending attachment and a queued prompt.
type Session struct {
	store        *vfs.Store
	checkpoints  *checkpoint.Manager
	parser       protocol_contracts.IEditParser
	applier      *vfs.Applier
	prompts      *prompt.Builder
	systemPrompt string
	newID        func() string

	// applyMu serializes load-apply-replace so two turns never race on the store.
	applyMu sync.Mutex

	mu           sync.Mutex
	turns        []*Turn
	pending      *vfs.Attachment
	queuedPrompt *string
}

func New(initial vfs.FileSystem, opts Options) *Session {
	if opts.Parser == nil {
		opts.Parser = protocol.NewParser("", "")
	}
	if opts.Applier == nil {
		opts.Applier = vfs.NewApplier("")
	}
	if opts.Prompts == nil {
		opts.Prompts = &prompt.Builder{}
	}
	return &Session{
		store:        vfs.NewStore(initial),
		checkpoints:  checkpoint.NewManager(),
		parser:       opts.Parser,
		applier:      opts.Applier,
		prompts:      opts.Prompts,
		systemPrompt: opts.SystemPrompt,
		newID:        uuid.NewString,
	}
}

// Store exposes the file system store so renderers can subscribe to it.
func (s *Session) Store() *vfs.Store {
	return s.store
}

func (s *Session) FileSystem() vfs.FileSystem {
	return s.store.Load()
}

func (s *Session) Checkpoints() []checkpoint.Checkpoint {
	return s.checkpoints.List()
}

// Turns returns copies of every turn in order.
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Turn, 0, len(s.turns))
	for _, t := range s.turns {
		out = append(out, t.Clone())
	}
	return out
}

// PendingAttachment returns the attachment waiting for a placeholder, or nil.
func (s *Session) PendingAttachment() *vfs.Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// QueuePrompt stores a prompt to be sent once when the session starts.
func (s *Session) QueuePrompt(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queuedPrompt = &text
}

// TakeQueuedPrompt returns the queued prompt and clears it.
func (s *Session) TakeQueuedPrompt() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queuedPrompt == nil {
		return "", false
	}
	text := *s.queuedPrompt
	s.queuedPrompt = nil
	return text, true
}

// ClearHistory drops every turn and checkpoint. The file system is kept.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	s.turns = nil
	s.pending = nil
	s.mu.Unlock()
	s.checkpoints.Reset()
}

// BuildHistory returns the finished, successful turns as chat messages.
// User turns that carried an attachment are left out.
func BuildHistory(turns []Turn) []models.ChatMessage {
	var history []models.ChatMessage
	for _, t := range turns {
		if t.IsStreaming || t.Error != "" || t.Text == "" {
			continue
		}
		if t.Role == RoleUser && t.Attachment != nil {
			continue
		}
		role := models.RoleUser
		if t.Role == RoleAssistant {
			role = models.RoleModel
		}
		history = append(history, models.ChatMessage{Role: role, Content: t.Text})
	}
	return history
}

// Send runs one request: it records the user turn, sets the pending
// attachment, streams the assistant turn and returns it in terminal form.
// A nil attachment clears any attachment left from an earlier turn.
func (s *Session) Send(ctx context.Context, provider contracts.IChatAIProvider, text string, attachment *vfs.Attachment, token *CancelToken, onUpdate UpdateFunc) Turn {
	s.mu.Lock()
	history := make([]Turn, 0, len(s.turns))
	for _, t := range s.turns {
		history = append(history, *t)
	}
	s.pending = attachment
	s.turns = append(s.turns, &Turn{ID: s.newID(), Role: RoleUser, Text: text, Attachment: attachment})
	s.mu.Unlock()

	request := models.ChatRequest{
		SystemPrompt: s.systemPrompt,
		History:      BuildHistory(history),
		UserInput:    s.prompts.UserPrompt(text, s.store.Load()),
	}
	if attachment != nil {
		request.Image = &models.InlineImage{Data: attachment.Data, MimeType: attachment.MimeType}
	}

	turn := s.startAssistantTurn()
	if onUpdate != nil {
		onUpdate(turn.Clone())
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	return s.Stream(streamCtx, turn.ID, provider.ChatCompletionRequest(streamCtx, request), token, onUpdate)
}

func (s *Session) startAssistantTurn() Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	turn := &Turn{ID: s.newID(), Role: RoleAssistant, IsStreaming: true}
	s.turns = append(s.turns, turn)
	return *turn
}

// Stream consumes fragments for the assistant turn turnID until the source
// ends, fails, or is cancelled, then finalizes the turn. Fragments are
// appended in arrival order. After the token is cancelled remaining
// fragments are drained without effect; cancelling ctx stops reading
// immediately. Either way the terminal parse runs once over the text
// accumulated so far.
func (s *Session) Stream(ctx context.Context, turnID string, fragments <-chan models.StreamResponse, token *CancelToken, onUpdate UpdateFunc) Turn {
	var text strings.Builder
	var streamErr error

loop:
	for {
		select {
		case <-ctx.Done():
			log.Debug("stream context done", "turn", turnID, "err", ctx.Err())
			break loop
		case response, ok := <-fragments:
			if !ok {
				break loop
			}
			if token.Cancelled() {
				continue
			}
			if response.Err != nil {
				if ctx.Err() == nil {
					streamErr = response.Err
				}
				break loop
			}
			if response.Done {
				break loop
			}
			if response.Content == "" {
				continue
			}

			text.WriteString(response.Content)
			narration, payload := s.parser.Split(text.String())
			partial := s.parser.ExtractPartial(payload)

			turn := s.updateTurn(turnID, func(t *Turn) {
				t.Text = narration
				if partial != nil {
					t.Operations = partial
				}
			})
			if onUpdate != nil {
				onUpdate(turn)
			}
		}
	}

	var final Turn
	if streamErr != nil {
		final = s.fail(turnID, streamErr)
	} else {
		final = s.finalize(turnID, text.String())
	}
	if onUpdate != nil {
		onUpdate(final.Clone())
	}
	return final
}

func (s *Session) updateTurn(turnID string, fn func(*Turn)) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.turns {
		if t.ID == turnID {
			fn(t)
			return t.Clone()
		}
	}
	// The history was cleared mid-stream; keep working on a detached turn.
	detached := &Turn{ID: turnID, Role: RoleAssistant}
	fn(detached)
	return *detached
}

// fail moves the turn to its error form. Nothing is applied.
func (s *Session) fail(turnID string, err error) Turn {
	message := FailureMessage
	if IsQuotaError(err) {
		message = QuotaMessage
	}
	log.Error("stream failed", "turn", turnID, "err", err)

	return s.updateTurn(turnID, func(t *Turn) {
		t.Text = message
		t.Error = err.Error()
		t.Operations = nil
		t.IsStreaming = false
	})
}

// finalize runs the terminal parse, applies its operations and versions the turn.
func (s *Session) finalize(turnID, text string) Turn {
	result := s.parser.ParseFinal(text)
	narration := s.parser.FinalNarration(text)

	var (
		version  int
		before   vfs.FileSystem
		skipped  []vfs.SkippedOperation
		operated = len(result.Operations) > 0
	)

	if operated {
		s.applyMu.Lock()
		before = s.store.Load()
		attachment := s.PendingAttachment()
		applied := s.applier.Apply(before, result.Operations, attachment)
		s.store.Replace(applied.FileSystem)
		if applied.AttachmentConsumed {
			s.consumeAttachment(attachment)
		}
		cp, _ := s.checkpoints.Record(turnID, len(result.Operations), before)
		s.applyMu.Unlock()

		version = cp.Version
		before = cp.Before
		skipped = applied.Skipped
		log.Info("applied file operations", "turn", turnID, "version", version, "applied", applied.Applied, "skipped", len(skipped))
	}

	if narration == "" && operated {
		narration = AppliedMessage
	}

	return s.updateTurn(turnID, func(t *Turn) {
		t.Text = narration
		t.Operations = result.Operations
		t.Error = result.ErrorMessage()
		t.IsStreaming = false
		if operated {
			t.Version = version
			t.PriorFileSystem = before
			t.Skipped = skipped
		}
	})
}

// consumeAttachment clears the pending attachment if it is still the one
// that was used.
func (s *Session) consumeAttachment(used *vfs.Attachment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == used {
		s.pending = nil
	}
}

// Restore replaces the file system with the snapshot taken before version
// was applied and records a confirmation turn.
func (s *Session) Restore(version int) (Turn, error) {
	fs, err := s.checkpoints.Restore(version)
	if err != nil {
		return Turn{}, fmt.Errorf("failed to restore checkpoint: %w", err)
	}

	s.applyMu.Lock()
	s.store.Replace(fs)
	s.applyMu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	turn := &Turn{ID: s.newID(), Role: RoleAssistant, Text: RestoredMessage}
	s.turns = append(s.turns, turn)
	return turn.Clone(), nil
}

// Diff compares the snapshot taken before version with the current file system.
func (s *Session) Diff(version int) ([]vfs.FileChange, error) {
	cp, err := s.checkpoints.Get(version)
	if err != nil {
		return nil, err
	}
	return vfs.Diff(cp.Before, s.store.Load()), nil
}

// IsQuotaError reports whether err is an upstream quota or rate-limit failure.
func IsQuotaError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, models.ErrQuotaExceeded) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
