package embed_data

import (
	"embed"
)

//go:embed prompts/system_prompt.tmpl
var SystemPrompt []byte

//go:embed tree-sitter/queries/javascript.json
var JavascriptQuery []byte

// Templates holds the starter project files a new session begins with.
//
//go:embed templates/*
var Templates embed.FS
