package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suvo-labs/suvo/config"
	"github.com/suvo-labs/suvo/providers"
	"github.com/suvo-labs/suvo/providers/replay"
	"github.com/suvo-labs/suvo/session"
	"github.com/suvo-labs/suvo/token_management"
	"github.com/suvo-labs/suvo/utils"
	"github.com/suvo-labs/suvo/vfs"
)

const recorded = "Adding a footer.\n[CODE_CHANGES]\n{\"files\":[{\"operation\":\"CREATE\",\"path\":\"footer.html\",\"description\":\"footer\",\"content\":\"<footer></footer>\"}]}\n[CODE_CHANGES_END]"

func newTestState(t *testing.T, input string) *codeState {
	t.Helper()

	provider, err := replay.NewReplayProvider(&replay.ReplayConfig{Text: recorded, ChunkSize: 9})
	require.NoError(t, err)

	initial, err := vfs.Bootstrap()
	require.NoError(t, err)

	deps := &RootDependencies{
		Cwd: t.TempDir(),
		Config: &config.Config{
			Protocol:         &config.ProtocolConfig{StartSentinel: "[CODE_CHANGES]"},
			AIProviderConfig: &providers.AIProviderConfig{Provider: providers.ProviderReplay},
		},
		TokenManagement:     token_management.NewTokenManager(),
		CurrentChatProvider: provider,
		Session:             session.New(initial, session.Options{}),
	}
	return &codeState{
		deps:  deps,
		lines: utils.NewLineReader(strings.NewReader(input)),
		intr:  &interrupter{},
	}
}

func TestRunTurn_AppliesReplayedAnswer(t *testing.T) {
	state := newTestState(t, "")

	state.runTurn("add a footer")

	fs := state.deps.Session.FileSystem()
	assert.Equal(t, "<footer></footer>", fs["footer.html"].Content)
	require.Len(t, state.deps.Session.Checkpoints(), 1)

	turns := state.deps.Session.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, "Adding a footer.", turns[1].Text)
	assert.Equal(t, 1, turns[1].Version)
}

func TestRunTurn_SendsAttachmentOnce(t *testing.T) {
	state := newTestState(t, "")
	state.upload = &vfs.Attachment{Data: "Zm9v", MimeType: "image/png"}

	state.runTurn("use my logo")

	assert.Nil(t, state.upload)
	turns := state.deps.Session.Turns()
	require.NotEmpty(t, turns)
	assert.NotNil(t, turns[0].Attachment)
}

func TestFindCodeSubCommand_Restore(t *testing.T) {
	state := newTestState(t, "y\n")
	before := state.deps.Session.FileSystem()
	state.runTurn("add a footer")

	handled, exit := findCodeSubCommand("/restore 1", state)

	assert.True(t, handled)
	assert.False(t, exit)
	assert.Equal(t, before, state.deps.Session.FileSystem())
	turns := state.deps.Session.Turns()
	assert.Equal(t, session.RestoredMessage, turns[len(turns)-1].Text)
}

func TestFindCodeSubCommand_RestoreDeclined(t *testing.T) {
	state := newTestState(t, "n\n")
	state.runTurn("add a footer")

	findCodeSubCommand("/restore 1", state)

	assert.Contains(t, state.deps.Session.FileSystem(), "footer.html")
}

func TestFindCodeSubCommand(t *testing.T) {
	state := newTestState(t, "")

	tests := []struct {
		command string
		handled bool
		exit    bool
	}{
		{"/help", true, false},
		{"/files", true, false},
		{"/show index.html", true, false},
		{"/show missing.js", true, false},
		{"/versions", true, false},
		{"/diff nope", true, false},
		{"/diff 3", true, false},
		{"/token", true, false},
		{"/attach", true, false},
		{"/whatever", true, false},
		{"/exit", false, true},
		{"make the header blue", false, false},
	}

	for _, tt := range tests {
		handled, exit := findCodeSubCommand(tt.command, state)
		assert.Equal(t, tt.handled, handled, tt.command)
		assert.Equal(t, tt.exit, exit, tt.command)
	}
}

func TestFindCodeSubCommand_Attach(t *testing.T) {
	state := newTestState(t, "")
	dir := t.TempDir()

	png := filepath.Join(dir, "logo.png")
	require.NoError(t, os.WriteFile(png, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o644))
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))

	findCodeSubCommand("/attach "+text, state)
	assert.Nil(t, state.upload)

	findCodeSubCommand("/attach "+png, state)
	require.NotNil(t, state.upload)
	assert.Equal(t, "image/png", state.upload.MimeType)
}

func TestFindCodeSubCommand_ClearHistory(t *testing.T) {
	state := newTestState(t, "")
	state.runTurn("add a footer")
	state.upload = &vfs.Attachment{Data: "Zm9v", MimeType: "image/png"}

	findCodeSubCommand("/clear-history", state)

	assert.Empty(t, state.deps.Session.Turns())
	assert.Empty(t, state.deps.Session.Checkpoints())
	assert.Nil(t, state.upload)
	total, _, _ := state.deps.TokenManagement.GetCurrentTokenUsage()
	assert.Zero(t, total)
}

func TestParseVersion(t *testing.T) {
	v, ok := parseVersion("2")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	v, ok = parseVersion("v3")
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = parseVersion("0")
	assert.False(t, ok)
	_, ok = parseVersion("")
	assert.False(t, ok)
}

func TestSeedFileSystem(t *testing.T) {
	fs, err := seedFileSystem("")
	require.NoError(t, err)
	assert.Contains(t, fs, "index.html")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("let x = 1;"), 0o644))
	fs, err = seedFileSystem(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.js"}, fs.Paths())

	// An empty directory falls back to the bootstrap project
	fs, err = seedFileSystem(t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, fs, "index.html")
}

func TestInterrupter(t *testing.T) {
	var i interrupter
	i.fire()

	calls := 0
	i.set(func() { calls++ })
	i.fire()
	i.set(nil)
	i.fire()

	assert.Equal(t, 1, calls)
}
