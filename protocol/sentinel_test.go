package protocol

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Test splitting before, at and after the start sentinel
func TestSplit(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		narration  string
		payload    string
		hasPayload bool
	}{
		{"no sentinel", "Just some text.", "Just some text.", "", false},
		{"empty", "", "", "", false},
		{"sentinel only", "[CODE_CHANGES]", "", "", true},
		{"narration and payload", "Sure.\n[CODE_CHANGES]\n{\"files\":[", "Sure.\n", "\n{\"files\":[", true},
		{"partial sentinel stays narration", "Sure. [CODE_CHA", "Sure. [CODE_CHA", "", false},
		{"second sentinel stays in payload", "a[CODE_CHANGES]b[CODE_CHANGES]c", "a", "b[CODE_CHANGES]c", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seg := Split(tt.text, StartSentinel)
			assert.Equal(t, tt.narration, seg.Narration)
			assert.Equal(t, tt.payload, seg.Payload)
			assert.Equal(t, tt.hasPayload, seg.HasPayload)
		})
	}
}

// Test that narration only grows as fragments are appended
func TestSplit_NarrationIsStableAcrossPrefixes(t *testing.T) {
	full := "Here is the change.\n[CODE_CHANGES]{\"files\":[]}[CODE_CHANGES_END]"
	final := Split(full, StartSentinel)

	for i := 0; i <= len(full); i++ {
		seg := Split(full[:i], StartSentinel)
		if seg.HasPayload {
			assert.Equal(t, final.Narration, seg.Narration)
		} else {
			assert.True(t, strings.HasPrefix(final.Narration+StartSentinel, seg.Narration))
		}
	}
}

func TestBounded(t *testing.T) {
	block, ok := Bounded("x[CODE_CHANGES]body[CODE_CHANGES_END]y", StartSentinel, EndSentinel)
	assert.True(t, ok)
	assert.Equal(t, "body", block)

	_, ok = Bounded("x[CODE_CHANGES]body", StartSentinel, EndSentinel)
	assert.False(t, ok)

	_, ok = Bounded("[CODE_CHANGES_END] x [CODE_CHANGES]", StartSentinel, EndSentinel)
	assert.False(t, ok)
}

func TestFinalNarration(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain", "  Hello there.  ", "Hello there."},
		{"block removed", "Before.\n[CODE_CHANGES]{}[CODE_CHANGES_END]\nAfter.", "Before.\n\nAfter."},
		{"only block", "[CODE_CHANGES]{}[CODE_CHANGES_END]", ""},
		{"two blocks", "a[CODE_CHANGES]1[CODE_CHANGES_END]b[CODE_CHANGES]2[CODE_CHANGES_END]c", "abc"},
		{"dangling start", "Working on it [CODE_CHANGES]{\"files\":[", "Working on it"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FinalNarration(tt.text, StartSentinel, EndSentinel))
		})
	}
}

func TestHoldBack(t *testing.T) {
	assert.Equal(t, "Hello ", HoldBack("Hello [CODE", StartSentinel))
	assert.Equal(t, "Hello ", HoldBack("Hello [", StartSentinel))
	assert.Equal(t, "Hello [x", HoldBack("Hello [x", StartSentinel))
	assert.Equal(t, "", HoldBack("[CODE_CHANGES", StartSentinel))
	assert.Equal(t, "abc", HoldBack("abc", StartSentinel))
	assert.Equal(t, "", HoldBack("", StartSentinel))
}
