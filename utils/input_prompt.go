package utils

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/suvo-labs/suvo/constants/lipgloss"
)

// ErrInputClosed is returned once the input stream has ended.
var ErrInputClosed = errors.New("input closed")

type inputLine struct {
	text string
	err  error
}

// LineReader reads lines from one long-lived goroutine so that an abandoned
// prompt never swallows the next line the user types.
type LineReader struct {
	lines chan inputLine
}

// NewLineReader starts reading r. The goroutine exits when r returns an error.
func NewLineReader(r io.Reader) *LineReader {
	lr := &LineReader{lines: make(chan inputLine)}
	go func() {
		defer close(lr.lines)
		reader := bufio.NewReader(r)
		for {
			text, err := reader.ReadString('\n')
			if text != "" {
				lr.lines <- inputLine{text: strings.TrimSpace(text)}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					lr.lines <- inputLine{err: fmt.Errorf("error reading input: %w", err)}
				}
				return
			}
		}
	}()
	return lr
}

// InputPromptWithContext prints the prompt marker and waits for a line, the
// end of input, or ctx.
func (lr *LineReader) InputPromptWithContext(ctx context.Context) (string, error) {
	fmt.Print(lipgloss.BlueSky.Render("> "))
	return lr.Next(ctx)
}

// Next waits for the next line without printing anything.
func (lr *LineReader) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		fmt.Println()
		return "", ctx.Err()
	case line, ok := <-lr.lines:
		if !ok {
			return "", ErrInputClosed
		}
		return line.text, line.err
	}
}

// ConfirmPrompt asks a yes/no question. Anything but y/yes is a no.
func (lr *LineReader) ConfirmPrompt(ctx context.Context, question string) (bool, error) {
	fmt.Print(lipgloss.Yellow.Render(question + " (y/N) "))
	answer, err := lr.Next(ctx)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
