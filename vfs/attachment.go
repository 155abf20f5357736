package vfs

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Attachment is an uploaded image waiting to be written into the project.
type Attachment struct {
	// Data is the base64 encoding of the raw bytes.
	Data     string
	MimeType string
}

// NewAttachment encodes raw bytes. An empty mimeType is detected from the
// content.
func NewAttachment(raw []byte, mimeType string) *Attachment {
	if mimeType == "" {
		mimeType = detectMime(raw)
	}
	return &Attachment{
		Data:     base64.StdEncoding.EncodeToString(raw),
		MimeType: mimeType,
	}
}

// LoadAttachment reads an image from disk.
func LoadAttachment(path string) (*Attachment, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment %s: %w", path, err)
	}
	mimeType := detectMime(raw)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("attachment %s is %s, not an image", path, mimeType)
	}
	return NewAttachment(raw, mimeType), nil
}

// Record returns the file record the attachment becomes when placed.
func (a *Attachment) Record() FileRecord {
	return FileRecord{Content: a.Data, Kind: a.MimeType, IsBinary: true}
}

func detectMime(raw []byte) string {
	m := mimetype.Detect(raw).String()
	if i := strings.IndexByte(m, ';'); i >= 0 {
		m = m[:i]
	}
	return strings.TrimSpace(m)
}
