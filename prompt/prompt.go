// Package prompt builds the text sent to the model for each turn.
package prompt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/suvo-labs/suvo/embed_data"
	"github.com/suvo-labs/suvo/protocol"
	"github.com/suvo-labs/suvo/vfs"
)

// FileSystemHeader introduces the file list in every user prompt.
const FileSystemHeader = "--- CURRENT FILE SYSTEM ---"

var systemTemplate = template.Must(template.New("system").Parse(string(embed_data.SystemPrompt)))

// Protocol names the wire tokens the system prompt teaches the model.
type Protocol struct {
	StartSentinel string
	EndSentinel   string
	Placeholder   string
	FilesField    string
}

// DefaultProtocol returns the built-in tokens.
func DefaultProtocol() Protocol {
	return Protocol{
		StartSentinel: protocol.StartSentinel,
		EndSentinel:   protocol.EndSentinel,
		Placeholder:   protocol.PlaceholderContent,
		FilesField:    protocol.FilesField,
	}
}

// SystemPrompt renders the embedded system prompt for the given tokens.
func SystemPrompt(p Protocol) (string, error) {
	var buf bytes.Buffer
	if err := systemTemplate.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return buf.String(), nil
}

// Builder assembles user prompts.
type Builder struct {
	// IncludeOutline appends a structural outline of script files.
	IncludeOutline bool
	// Cache is reused across turns when set.
	Cache *OutlineCache
}

func NewBuilder(includeOutline bool) *Builder {
	return &Builder{IncludeOutline: includeOutline, Cache: NewOutlineCache()}
}

// UserPrompt returns the request followed by the current file list. File
// contents are not sent; with IncludeOutline, the functions and classes of
// script files are.
func (b *Builder) UserPrompt(request string, fs vfs.FileSystem) string {
	paths := fs.Paths()
	list, err := json.MarshalIndent(paths, "", "  ")
	if err != nil {
		list = []byte("[]")
	}

	var sb strings.Builder
	sb.WriteString(request)
	sb.WriteString("\n\n")
	sb.WriteString(FileSystemHeader)
	sb.WriteString("\n")
	sb.Write(list)

	if b.IncludeOutline {
		var outline string
		if b.Cache != nil {
			outline = b.Cache.Outline(fs)
		} else {
			outline = Outline(fs)
		}
		if outline != "" {
			sb.WriteString("\n\n--- OUTLINE ---\n")
			sb.WriteString(outline)
		}
	}
	return sb.String()
}
