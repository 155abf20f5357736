package protocol

import (
	"fmt"
	"strings"
	"testing"
)

func buildPayload(files int) string {
	var b strings.Builder
	b.WriteString(`{"files":[`)
	for i := 0; i < files; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"operation":"CREATE","path":"src/file%d.js","description":"generated","content":"function f%d() { return \"{}\"; }\n"}`, i, i)
	}
	b.WriteString(`]}`)
	return b.String()
}

// BenchmarkExtractPartial re-extracts every growing prefix, as the streaming loop does
func BenchmarkExtractPartial(b *testing.B) {
	payload := buildPayload(20)
	step := 64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for n := step; n < len(payload); n += step {
			_ = ExtractPartial(payload[:n])
		}
	}
}

func BenchmarkParseBetween(b *testing.B) {
	text := StartSentinel + buildPayload(20) + EndSentinel

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = ParseBetween(text, StartSentinel, EndSentinel)
	}
}
