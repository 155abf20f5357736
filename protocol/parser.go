// Package protocol implements the edit protocol carried inline in assistant
// responses: narration, a start sentinel, a JSON object with a "files" list
// and an end sentinel.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/suvo-labs/suvo/logger"
	"github.com/suvo-labs/suvo/protocol/contracts"
	"github.com/suvo-labs/suvo/protocol/models"
)

var log = logger.Component("protocol")

var (
	ErrNoJSONObject = errors.New("could not find a valid JSON object within the code block")
	ErrFilesMissing = errors.New("invalid format: '" + FilesField + "' array not found in AI response")
)

const (
	MethodDirect    = "direct"
	MethodSanitized = "sanitized"
)

// DecodeError is returned when the bounded payload does not decode, even
// after escape sanitization. It carries the first decode error.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "failed to parse code changes: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

var fencePattern = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// Parser binds the protocol functions to a pair of sentinels.
type Parser struct {
	Start string
	End   string
}

// NewParser returns a parser for the given sentinels; empty values fall back
// to the defaults.
func NewParser(start, end string) contracts.IEditParser {
	if start == "" {
		start = StartSentinel
	}
	if end == "" {
		end = EndSentinel
	}
	return &Parser{Start: start, End: end}
}

func (p *Parser) Split(text string) (string, string) {
	seg := Split(text, p.Start)
	return seg.Narration, seg.Payload
}

func (p *Parser) ExtractPartial(payload string) []models.FileOperation {
	return ExtractPartial(payload)
}

func (p *Parser) ParseFinal(text string) models.ParseResult {
	return ParseBetween(text, p.Start, p.End)
}

func (p *Parser) FinalNarration(text string) string {
	return FinalNarration(text, p.Start, p.End)
}

// ParseBetween is the authoritative decode of a finished response. A missing
// start or end sentinel yields no operations and no error.
func ParseBetween(text, start, end string) models.ParseResult {
	block, ok := Bounded(text, start, end)
	if !ok {
		return models.ParseResult{}
	}

	block = strings.TrimSpace(block)
	if m := fencePattern.FindStringSubmatch(block); m != nil && m[2] != "" {
		block = strings.TrimSpace(m[2])
	}

	first := strings.Index(block, "{")
	last := strings.LastIndex(block, "}")
	if first < 0 || last < 0 || last < first {
		log.Error("final parse failed", "err", ErrNoJSONObject)
		return models.ParseResult{Err: ErrNoJSONObject}
	}
	doc := block[first : last+1]

	direct := decodeDirect(doc)
	if direct.err == nil {
		return models.ParseResult{Operations: direct.ops, Method: direct.method}
	}
	if errors.Is(direct.err, ErrFilesMissing) {
		log.Error("final parse failed", "err", direct.err)
		return models.ParseResult{Err: direct.err}
	}

	recovered := decodeSanitized(doc)
	if recovered.err == nil {
		log.Info("recovered payload after escape sanitization", "operations", len(recovered.ops))
		return models.ParseResult{Operations: recovered.ops, Method: recovered.method}
	}

	err := &DecodeError{Err: direct.err}
	log.Error("final parse failed", "err", err, "sanitized_err", recovered.err)
	return models.ParseResult{Err: err}
}

type decodeAttempt struct {
	ops    []models.FileOperation
	err    error
	method string
}

func decodeDirect(doc string) decodeAttempt {
	ops, err := decodeFiles(doc)
	return decodeAttempt{ops: ops, err: err, method: MethodDirect}
}

func decodeSanitized(doc string) decodeAttempt {
	ops, err := decodeFiles(SanitizeEscapes(doc))
	return decodeAttempt{ops: ops, err: err, method: MethodSanitized}
}

func decodeFiles(doc string) ([]models.FileOperation, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal([]byte(doc), &envelope); err != nil {
		return nil, err
	}

	raw := bytes.TrimSpace(envelope[FilesField])
	if len(raw) == 0 || raw[0] != '[' {
		return nil, ErrFilesMissing
	}

	ops := []models.FileOperation{}
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}
