package protocol

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suvo-labs/suvo/protocol/models"
)

func wrap(body string) string {
	return "Updating the page.\n" + StartSentinel + "\n" + body + "\n" + EndSentinel
}

func TestParseBetween_Direct(t *testing.T) {
	res := ParseBetween(wrap(twoFilePayload), StartSentinel, EndSentinel)

	require.NoError(t, res.Err)
	assert.Equal(t, MethodDirect, res.Method)
	require.Len(t, res.Operations, 2)
	assert.Equal(t, "a.js", res.Operations[0].Path)
	assert.Equal(t, "b.css", res.Operations[1].Path)
	assert.Equal(t, "", res.ErrorMessage())
}

func TestParseBetween_FencedBlock(t *testing.T) {
	res := ParseBetween(wrap("```json\n"+twoFilePayload+"\n```"), StartSentinel, EndSentinel)

	require.NoError(t, res.Err)
	assert.Len(t, res.Operations, 2)
}

func TestParseBetween_NoEndSentinel(t *testing.T) {
	res := ParseBetween("text "+StartSentinel+twoFilePayload, StartSentinel, EndSentinel)

	assert.NoError(t, res.Err)
	assert.Empty(t, res.Operations)
	assert.Equal(t, "", res.Method)
}

func TestParseBetween_NoSentinels(t *testing.T) {
	res := ParseBetween("just talking", StartSentinel, EndSentinel)

	assert.NoError(t, res.Err)
	assert.Empty(t, res.Operations)
}

func TestParseBetween_EmptyFilesList(t *testing.T) {
	res := ParseBetween(wrap(`{"files":[]}`), StartSentinel, EndSentinel)

	require.NoError(t, res.Err)
	assert.NotNil(t, res.Operations)
	assert.Empty(t, res.Operations)
}

func TestParseBetween_NoJSONObject(t *testing.T) {
	res := ParseBetween(wrap("no object here"), StartSentinel, EndSentinel)

	assert.ErrorIs(t, res.Err, ErrNoJSONObject)
	assert.Empty(t, res.Operations)
}

func TestParseBetween_FilesMissing(t *testing.T) {
	for _, body := range []string{`{"changes":[]}`, `{"files":"nope"}`, `{"files":null}`} {
		res := ParseBetween(wrap(body), StartSentinel, EndSentinel)
		assert.ErrorIs(t, res.Err, ErrFilesMissing, body)
		assert.Empty(t, res.Operations)
	}
}

// Test recovery from an invalid escape inside content
func TestParseBetween_SanitizedRecovery(t *testing.T) {
	body := `{"files":[{"operation":"CREATE","path":"a.js","description":"d","content":"const re = /\d+/;"}]}`

	res := ParseBetween(wrap(body), StartSentinel, EndSentinel)

	require.NoError(t, res.Err)
	assert.Equal(t, MethodSanitized, res.Method)
	require.Len(t, res.Operations, 1)
	assert.Equal(t, "const re = /d+/;", res.Operations[0].ContentOrEmpty())
}

func TestParseBetween_DecodeError(t *testing.T) {
	res := ParseBetween(wrap(`{"files":[{"operation":"CREATE",}]}`), StartSentinel, EndSentinel)

	require.Error(t, res.Err)
	var decodeErr *DecodeError
	require.True(t, errors.As(res.Err, &decodeErr))
	var syntaxErr *json.SyntaxError
	assert.True(t, errors.As(res.Err, &syntaxErr))
	assert.Contains(t, res.ErrorMessage(), "failed to parse code changes: ")
	assert.Empty(t, res.Operations)
}

// Test that parsing the same text twice gives the same result
func TestParseBetween_Idempotent(t *testing.T) {
	text := wrap(twoFilePayload)
	assert.Equal(t, ParseBetween(text, StartSentinel, EndSentinel), ParseBetween(text, StartSentinel, EndSentinel))
}

// Test that the terminal parse agrees with the last partial extraction
func TestParseBetween_AgreesWithPartial(t *testing.T) {
	text := wrap(twoFilePayload)
	seg := Split(text, StartSentinel)

	partial := ExtractPartial(seg.Payload)
	final := ParseBetween(text, StartSentinel, EndSentinel)

	require.NoError(t, final.Err)
	assert.Equal(t, partial, final.Operations)
}

func TestParser_CustomSentinels(t *testing.T) {
	p := NewParser("<<EDIT>>", "<<END>>")
	text := "Done.<<EDIT>>" + `{"files":[{"operation":"DELETE","path":"x","description":""}]}` + "<<END>>"

	narration, payload := p.Split(text)
	assert.Equal(t, "Done.", narration)
	assert.NotEmpty(t, payload)

	res := p.ParseFinal(text)
	require.NoError(t, res.Err)
	require.Len(t, res.Operations, 1)
	assert.Equal(t, models.OperationDelete, res.Operations[0].Operation)
	assert.Equal(t, "Done.", p.FinalNarration(text))
}

func TestNewParser_Defaults(t *testing.T) {
	p, ok := NewParser("", "").(*Parser)
	require.True(t, ok)
	assert.Equal(t, StartSentinel, p.Start)
	assert.Equal(t, EndSentinel, p.End)
}
