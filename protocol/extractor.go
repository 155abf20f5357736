package protocol

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/suvo-labs/suvo/protocol/models"
)

var listPrefixPattern = regexp.MustCompile(`^\{\s*"` + regexp.QuoteMeta(FilesField) + `"\s*:\s*\[`)

// ExtractPartial decodes the complete elements currently present in a
// still-growing payload. It returns nil until at least one element has
// closed, and nil whenever the decode fails. The result is advisory only.
func ExtractPartial(payload string) []models.FileOperation {
	body, ok := stripListPrefix(payload)
	if !ok {
		return nil
	}

	cut := lastCompleteElement(body)
	if cut < 0 {
		return nil
	}

	part := strings.TrimSpace(body[:cut])
	part = strings.TrimSuffix(part, ",")

	var ops []models.FileOperation
	if err := json.Unmarshal([]byte("["+part+"]"), &ops); err != nil {
		log.Debug("partial decode skipped", "err", err)
		return nil
	}
	return ops
}

// stripListPrefix removes the list-opening prefix, tolerating leading
// whitespace and an opening code fence line.
func stripListPrefix(payload string) (string, bool) {
	s := strings.TrimSpace(payload)
	if strings.HasPrefix(s, "```") {
		nl := strings.IndexByte(s, '\n')
		if nl < 0 {
			return "", false
		}
		s = strings.TrimSpace(s[nl+1:])
	}
	loc := listPrefixPattern.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	return s[loc[1]:], true
}

// lastCompleteElement returns the index just past the last brace that brought
// the nesting depth back to zero, or -1 if none did.
//
// Braces inside strings are ignored. A quote toggles the string state only if
// it is preceded by an even number of backslashes.
func lastCompleteElement(body string) int {
	depth := 0
	inString := false
	cut := -1

	for i := 0; i < len(body); i++ {
		c := body[i]

		if c == '"' && !isEscaped(body, i) {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 {
					cut = i + 1
				}
			}
		}
	}

	return cut
}

func isEscaped(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}
