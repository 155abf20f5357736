package protocol

import "strings"

const (
	StartSentinel      = "[CODE_CHANGES]"
	EndSentinel        = "[CODE_CHANGES_END]"
	PlaceholderContent = "[USE_UPLOADED_IMAGE]"
	FilesField         = "files"
)

// Segments is the result of splitting accumulated assistant text at the start sentinel.
type Segments struct {
	Narration  string
	Payload    string
	HasPayload bool
}

// Split divides text at the first start sentinel. It keeps no state and is
// meant to be re-run on every fragment.
func Split(text, start string) Segments {
	idx := strings.Index(text, start)
	if idx < 0 {
		return Segments{Narration: text}
	}
	return Segments{
		Narration:  text[:idx],
		Payload:    text[idx+len(start):],
		HasPayload: true,
	}
}

// Bounded returns the text strictly between the first start sentinel and the
// first end sentinel that follows it.
func Bounded(text, start, end string) (string, bool) {
	s := strings.Index(text, start)
	if s < 0 {
		return "", false
	}
	rest := text[s+len(start):]
	e := strings.Index(rest, end)
	if e < 0 {
		return "", false
	}
	return rest[:e], true
}

// FinalNarration removes every complete payload block from text, cuts a
// dangling start sentinel and everything after it, and trims the result.
func FinalNarration(text, start, end string) string {
	var b strings.Builder
	rest := text
	for {
		s := strings.Index(rest, start)
		if s < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:s])
		tail := rest[s+len(start):]
		e := strings.Index(tail, end)
		if e < 0 {
			break
		}
		rest = tail[e+len(end):]
	}
	return strings.TrimSpace(b.String())
}

// HoldBack trims a trailing partial start sentinel from narration so that a
// renderer never prints characters the next fragment may turn into a sentinel.
func HoldBack(narration, start string) string {
	max := len(start) - 1
	if max > len(narration) {
		max = len(narration)
	}
	for k := max; k > 0; k-- {
		if strings.HasSuffix(narration, start[:k]) {
			return narration[:len(narration)-k]
		}
	}
	return narration
}
