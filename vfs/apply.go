package vfs

import (
	"github.com/suvo-labs/suvo/logger"
	"github.com/suvo-labs/suvo/protocol"
	"github.com/suvo-labs/suvo/protocol/models"
)

var log = logger.Component("vfs")

// Reasons an operation was skipped.
const (
	SkipNoAttachment     = "placeholder content but no pending attachment"
	SkipMissingContent   = "missing content"
	SkipUnknownOperation = "unknown operation"
	SkipEmptyPath        = "empty path"
)

type SkippedOperation struct {
	Operation models.FileOperation
	Reason    string
}

// ApplyResult is the outcome of applying one batch of operations.
type ApplyResult struct {
	FileSystem FileSystem
	// AttachmentConsumed is true when at least one operation used the
	// pending attachment; the caller clears it.
	AttachmentConsumed bool
	Applied            int
	Skipped            []SkippedOperation
}

// Applier applies operations with a configurable placeholder.
type Applier struct {
	Placeholder string
}

func NewApplier(placeholder string) *Applier {
	if placeholder == "" {
		placeholder = protocol.PlaceholderContent
	}
	return &Applier{Placeholder: placeholder}
}

// Apply applies ops with the default placeholder.
func Apply(current FileSystem, ops []models.FileOperation, attachment *Attachment) ApplyResult {
	return NewApplier("").Apply(current, ops, attachment)
}

// Apply returns a new file system with ops applied in order. current is
// never modified. Operations that cannot be applied are skipped and
// reported; the rest of the batch still applies.
func (a *Applier) Apply(current FileSystem, ops []models.FileOperation, attachment *Attachment) ApplyResult {
	result := ApplyResult{FileSystem: current.Clone()}

	skip := func(op models.FileOperation, reason string) {
		log.Warn("skipping file operation", "operation", op.Operation, "path", op.Path, "reason", reason)
		result.Skipped = append(result.Skipped, SkippedOperation{Operation: op, Reason: reason})
	}

	for _, op := range ops {
		if op.Path == "" {
			skip(op, SkipEmptyPath)
			continue
		}

		switch op.Operation {
		case models.OperationCreate, models.OperationUpdate:
			if !op.HasContent() {
				skip(op, SkipMissingContent)
				continue
			}
			if *op.Content == a.Placeholder {
				if attachment == nil {
					skip(op, SkipNoAttachment)
					continue
				}
				result.FileSystem[op.Path] = attachment.Record()
				result.AttachmentConsumed = true
			} else {
				result.FileSystem[op.Path] = FileRecord{Content: *op.Content, Kind: KindFromPath(op.Path)}
			}
		case models.OperationDelete:
			delete(result.FileSystem, op.Path)
		default:
			skip(op, SkipUnknownOperation)
			continue
		}
		result.Applied++
	}

	return result
}
