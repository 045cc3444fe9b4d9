package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astraterm/astraterm/internal/domain/session"
	"github.com/astraterm/astraterm/internal/domain/terminal"
	"github.com/astraterm/astraterm/internal/providers/ai"
	"github.com/astraterm/astraterm/internal/providers/github"
	"github.com/astraterm/astraterm/internal/shell"
)

type echoExecutor struct{}

func (echoExecutor) Execute(_ context.Context, cmd, _ string) shell.Result {
	if cmd == "false" {
		return shell.Failure("false: failed\n", 1)
	}
	return shell.OK(strings.TrimPrefix(cmd, "echo ") + "\n")
}

type stubAssistant struct{}

func (stubAssistant) Complete(_ context.Context, provider, prompt string) (ai.Reply, error) {
	kind, err := ai.ParseKind(provider)
	if err != nil {
		return ai.Reply{}, err
	}
	return ai.Reply{Response: "re: " + prompt, Provider: kind}, nil
}

type stubSearcher struct{}

func (stubSearcher) Search(_ context.Context, q string) ([]github.Repository, error) {
	desc := "a " + q + " project"
	return []github.Repository{{FullName: "octo/" + q, StargazersCount: 42, HTMLURL: "https://github.com/octo/" + q, Description: &desc}}, nil
}

func newTestREPL(t *testing.T, input string) (*repl, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	store := session.NewStore(session.Options{Home: t.TempDir()}, nil)
	snap := store.Create()

	var out, errOut bytes.Buffer
	return &repl{
		ctrl:      terminal.NewController(store, echoExecutor{}, nil),
		assistant: stubAssistant{},
		github:    stubSearcher{},
		provider:  "claude",
		sid:       snap.ID,
		in:        strings.NewReader(input),
		out:       &out,
		errOut:    &errOut,
	}, &out, &errOut
}

func TestREPLRunsCommandsUntilExit(t *testing.T) {
	r, out, errOut := newTestREPL(t, "echo hi\nfalse\nexit\necho never\n")

	require.NoError(t, r.run(context.Background()))

	assert.Contains(t, out.String(), "hi\n")
	assert.Contains(t, out.String(), "Goodbye!")
	assert.NotContains(t, out.String(), "never")
	assert.Contains(t, errOut.String(), "false: failed")
}

func TestREPLEndsOnEOF(t *testing.T) {
	r, out, _ := newTestREPL(t, "echo last")

	require.NoError(t, r.run(context.Background()))
	assert.Contains(t, out.String(), "last\n")
}

func TestREPLHelpAIAndGitHub(t *testing.T) {
	r, out, _ := newTestREPL(t, "help\nai explain pipes\ngithub cli\n")

	require.NoError(t, r.run(context.Background()))

	assert.Contains(t, out.String(), "Built-in commands:")
	assert.Contains(t, out.String(), "[claude] re: explain pipes\n")
	assert.Contains(t, out.String(), "octo/cli ★42\n")
	assert.Contains(t, out.String(), "  a cli project\n")
}

func TestREPLSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.txt.zst")

	r, out, errOut := newTestREPL(t, "echo one\necho two\nsave "+path+"\n")
	require.NoError(t, r.run(context.Background()))
	require.Empty(t, errOut.String())
	assert.Contains(t, out.String(), "Session saved to "+path)

	r2, out2, _ := newTestREPL(t, "load "+path+"\n")
	require.NoError(t, r2.run(context.Background()))
	assert.Contains(t, out2.String(), "$ echo one\none\n")
	assert.Contains(t, out2.String(), "Loaded 2 of 2 commands")

	snap, err := r2.ctrl.Store().Get(r2.sid)
	require.NoError(t, err)
	assert.Len(t, snap.History, 2)
}

func TestREPLUsageErrors(t *testing.T) {
	r, _, errOut := newTestREPL(t, "ai\ngithub\nsave\nload\nload /does/not/exist\n")

	require.NoError(t, r.run(context.Background()))

	for _, want := range []string{"usage: ai", "usage: github", "usage: save", "usage: load", "load failed"} {
		assert.Contains(t, errOut.String(), want)
	}
}
