package protocol

import "strings"

const validEscapes = `"\/bfnrt`

// SanitizeEscapes drops every backslash that does not start a valid JSON
// escape sequence. Valid pairs such as \\ are consumed as a unit, so the
// second backslash of a pair is never inspected on its own.
func SanitizeEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 < len(s) {
			next := s[i+1]
			if strings.IndexByte(validEscapes, next) >= 0 {
				b.WriteByte(c)
				b.WriteByte(next)
				i++
				continue
			}
			if next == 'u' && isHex4(s, i+2) {
				b.WriteByte(c)
				continue
			}
		}
	}

	return b.String()
}

func isHex4(s string, from int) bool {
	if from+4 > len(s) {
		return false
	}
	for _, c := range []byte(s[from : from+4]) {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
