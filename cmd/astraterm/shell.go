package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/astraterm/astraterm/internal/domain/session"
	"github.com/astraterm/astraterm/internal/domain/terminal"
	"github.com/astraterm/astraterm/internal/providers/ai"
	"github.com/astraterm/astraterm/internal/providers/github"
)

const helpText = `Built-in commands:
  help              show this help
  ai <prompt>       ask the configured AI provider
  github <query>    search GitHub repositories
  save <file>       save this session's transcript (.zst compresses)
  load <file>       replay a saved transcript into this session
  history           list commands run in this session
  cd <dir>          change directory
  clear             clear the screen
  exit, quit        leave the shell
Anything else runs in /bin/sh.
`

const clearScreen = "\033[H\033[2J"

type completer interface {
	Complete(ctx context.Context, provider, prompt string) (ai.Reply, error)
}

type repoSearcher interface {
	Search(ctx context.Context, query string) ([]github.Repository, error)
}

// repl is the line-oriented terminal driven by stdin
type repl struct {
	ctrl      *terminal.Controller
	assistant completer
	github    repoSearcher
	provider  string
	sid       string
	in        io.Reader
	out       io.Writer
	errOut    io.Writer
	// interrupt derives a per-command context cancelled by Ctrl-C
	interrupt func(context.Context) (context.Context, context.CancelFunc)
}

func newShellCmd(opts *rootOptions) *cobra.Command {
	var (
		provider  string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Interactive terminal on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.buildLocal()
			if err != nil {
				return err
			}
			defer c.Close()

			snap, _ := c.Store.Ensure(sessionID)
			r := &repl{
				ctrl:      c.Controller,
				assistant: c.Assistant,
				github:    c.GitHub,
				provider:  provider,
				sid:       snap.ID,
				in:        cmd.InOrStdin(),
				out:       cmd.OutOrStdout(),
				errOut:    cmd.ErrOrStderr(),
				interrupt: func(ctx context.Context) (context.Context, context.CancelFunc) {
					return signal.NotifyContext(ctx, os.Interrupt)
				},
			}
			return r.run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&provider, "provider", string(ai.DefaultKind), "AI provider: grok, openai, claude or deepseek")
	cmd.Flags().StringVar(&sessionID, "session", "", "session id to bind (default: new session)")
	return cmd
}

func (r *repl) run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if r.interrupt == nil {
		r.interrupt = context.WithCancel
	}

	fmt.Fprintf(r.out, "AstraTerm %s (session %s). Type 'help' for commands.\n", version, r.sid)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 64<<10), 1<<20)
	for {
		r.prompt()
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}

		done, err := r.dispatch(ctx, scanner.Text())
		if err != nil {
			return err
		}
		if done {
			fmt.Fprintln(r.out, "Goodbye!")
			return nil
		}
	}
}

func (r *repl) prompt() {
	cwd, err := r.ctrl.Store().Cwd(r.sid)
	if err != nil {
		cwd = "?"
	}
	fmt.Fprintf(r.out, "astraterm:%s$ ", cwd)
}

// dispatch handles one input line and reports whether the shell should exit.
func (r *repl) dispatch(parent context.Context, line string) (bool, error) {
	ctx, cancel := r.interrupt(parent)
	defer cancel()

	name, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "help":
		fmt.Fprint(r.out, helpText)
		return false, nil
	case "ai":
		r.ask(ctx, rest)
		return false, nil
	case "github":
		r.search(ctx, rest)
		return false, nil
	case "save":
		r.save(rest)
		return false, nil
	case "load":
		return r.load(ctx, rest)
	}

	out, err := r.ctrl.Handle(ctx, r.sid, line)
	if err != nil {
		return false, err
	}
	if out.Kind == terminal.KindClear {
		fmt.Fprint(r.out, clearScreen)
	}
	r.print(out.Result.Output, out.Result.ErrorText())
	return out.Exit(), nil
}

func (r *repl) print(output, errText string) {
	fmt.Fprint(r.out, output)
	if output != "" && !strings.HasSuffix(output, "\n") {
		fmt.Fprintln(r.out)
	}
	if errText != "" {
		fmt.Fprintln(r.errOut, errText)
	}
}

func (r *repl) ask(ctx context.Context, prompt string) {
	if r.assistant == nil {
		fmt.Fprintln(r.errOut, "AI is not configured")
		return
	}
	if prompt == "" {
		fmt.Fprintln(r.errOut, "usage: ai <prompt>")
		return
	}
	reply, err := r.assistant.Complete(ctx, r.provider, prompt)
	if err != nil {
		fmt.Fprintln(r.errOut, "AI request failed:", err)
		return
	}
	fmt.Fprintf(r.out, "[%s] %s\n", reply.Provider, reply.Response)
}

func (r *repl) search(ctx context.Context, query string) {
	if r.github == nil {
		fmt.Fprintln(r.errOut, "GitHub search is not configured")
		return
	}
	if query == "" {
		fmt.Fprintln(r.errOut, "usage: github <query>")
		return
	}
	repos, err := r.github.Search(ctx, query)
	if err != nil {
		fmt.Fprintln(r.errOut, "GitHub search failed:", err)
		return
	}
	if len(repos) == 0 {
		fmt.Fprintln(r.out, "No repositories found.")
		return
	}
	for _, repo := range repos {
		lang := ""
		if repo.Language != nil {
			lang = " [" + *repo.Language + "]"
		}
		fmt.Fprintf(r.out, "%s ★%d%s\n", repo.FullName, repo.StargazersCount, lang)
		if repo.Description != nil && *repo.Description != "" {
			fmt.Fprintf(r.out, "  %s\n", *repo.Description)
		}
		fmt.Fprintf(r.out, "  %s\n", repo.HTMLURL)
	}
}

func (r *repl) save(path string) {
	if path == "" {
		fmt.Fprintln(r.errOut, "usage: save <file>")
		return
	}
	snap, err := r.ctrl.Store().Get(r.sid)
	if err != nil {
		fmt.Fprintln(r.errOut, err)
		return
	}
	if err := session.WriteTranscriptFile(path, snap); err != nil {
		fmt.Fprintln(r.errOut, "save failed:", err)
		return
	}
	fmt.Fprintf(r.out, "Session saved to %s\n", path)
}

func (r *repl) load(ctx context.Context, path string) (bool, error) {
	if path == "" {
		fmt.Fprintln(r.errOut, "usage: load <file>")
		return false, nil
	}
	commands, err := session.ReadTranscriptFile(path)
	if err != nil {
		fmt.Fprintln(r.errOut, "load failed:", err)
		return false, nil
	}

	outcomes, err := r.ctrl.Replay(ctx, r.sid, commands)
	for _, o := range outcomes {
		fmt.Fprintf(r.out, "$ %s\n", o.Command)
		r.print(o.Result.Output, o.Result.ErrorText())
	}
	if err != nil && ctx.Err() == nil {
		return false, err
	}
	fmt.Fprintf(r.out, "Loaded %d of %d commands from %s\n", len(outcomes), len(commands), path)
	return len(outcomes) > 0 && outcomes[len(outcomes)-1].Exit(), nil
}
