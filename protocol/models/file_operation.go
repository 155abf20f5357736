package models

// OperationKind is the verb of a single file operation in the edit payload.
type OperationKind string

const (
	OperationCreate OperationKind = "CREATE"
	OperationUpdate OperationKind = "UPDATE"
	OperationDelete OperationKind = "DELETE"
)

// FileOperation is one entry of the payload's "files" list.
// Content is nil when the entry carried no content field.
type FileOperation struct {
	Operation   OperationKind `json:"operation"`
	Path        string        `json:"path"`
	Description string        `json:"description"`
	Content     *string       `json:"content,omitempty"`
}

// HasContent reports whether the operation carried a content field.
func (op FileOperation) HasContent() bool {
	return op.Content != nil
}

// ContentOrEmpty returns the content, or "" when absent.
func (op FileOperation) ContentOrEmpty() string {
	if op.Content == nil {
		return ""
	}
	return *op.Content
}

// IsWrite reports whether the operation creates or replaces a file.
func (op FileOperation) IsWrite() bool {
	return op.Operation == OperationCreate || op.Operation == OperationUpdate
}

// ParseResult is the outcome of the terminal payload parse.
type ParseResult struct {
	Operations []FileOperation
	Err        error
	// Method records which decode attempt produced Operations ("direct", "sanitized") or "" when none did.
	Method string
}

// ErrorMessage returns the error text for a turn, or "" on success.
func (r ParseResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
