package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/suvo-labs/suvo/protocol"
)

// highlight writes text through chroma. An empty theme disables highlighting.
func highlight(out io.Writer, text, lexer, theme string) error {
	if theme == "" {
		_, err := io.WriteString(out, text)
		return err
	}
	return quick.Highlight(out, text, lexer, "terminal256", theme)
}

// NarrationPrinter prints the visible part of a streaming narration. It only
// ever writes the characters it has not printed yet and holds back a trailing
// partial start sentinel until the next update settles it.
type NarrationPrinter struct {
	out   io.Writer
	theme string
	start string
	shown string
}

func NewNarrationPrinter(out io.Writer, theme, startSentinel string) *NarrationPrinter {
	if startSentinel == "" {
		startSentinel = protocol.StartSentinel
	}
	return &NarrationPrinter{out: out, theme: theme, start: startSentinel}
}

// Update prints whatever narration has become visible since the last call.
func (p *NarrationPrinter) Update(narration string) error {
	visible := protocol.HoldBack(narration, p.start)
	if len(visible) <= len(p.shown) || !strings.HasPrefix(visible, p.shown) {
		return nil
	}
	delta := visible[len(p.shown):]
	p.shown = visible
	return highlight(p.out, delta, "markdown", p.theme)
}

// Finish prints the rest of the terminal narration and resets the printer.
// A terminal text that does not continue what was shown, such as an error
// message, is printed on its own line.
func (p *NarrationPrinter) Finish(final string) error {
	var rest string
	switch {
	case strings.HasPrefix(final, p.shown):
		rest = final[len(p.shown):]
	case strings.HasPrefix(p.shown, final):
	default:
		rest = "\n" + final
	}
	p.shown = ""
	if rest == "" {
		return nil
	}
	return highlight(p.out, rest, "markdown", p.theme)
}

// Shown returns the narration written so far.
func (p *NarrationPrinter) Shown() string {
	return p.shown
}

// LexerFor picks a lexer from the file name, then from the kind tag.
func LexerFor(path, kind string) chroma.Lexer {
	lexer := lexers.Match(path)
	if lexer == nil && kind != "" {
		lexer = lexers.Get(kind)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// RenderFile writes a highlighted copy of a text file. Binary files are
// summarized instead of printed.
func RenderFile(out io.Writer, path, kind, content string, binary bool, theme string) error {
	if binary {
		_, err := fmt.Fprintf(out, "[binary %s, %d bytes base64]\n", kind, len(content))
		return err
	}

	if theme == "" {
		if _, err := io.WriteString(out, content); err != nil {
			return err
		}
	} else {
		iterator, err := LexerFor(path, kind).Tokenise(nil, content)
		if err != nil {
			return fmt.Errorf("failed to tokenise %s: %w", path, err)
		}
		if err := formatters.Get("terminal256").Format(out, styles.Get(theme), iterator); err != nil {
			return err
		}
	}
	if !strings.HasSuffix(content, "\n") {
		_, err := fmt.Fprintln(out)
		return err
	}
	return nil
}
