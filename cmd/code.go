package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/suvo-labs/suvo/constants/lipgloss"
	"github.com/suvo-labs/suvo/logger"
	"github.com/suvo-labs/suvo/protocol/models"
	"github.com/suvo-labs/suvo/session"
	"github.com/suvo-labs/suvo/utils"
	"github.com/suvo-labs/suvo/vfs"
)

var log = logger.Component("cli")

// CodeCmd: suvo code
var codeCmd = &cobra.Command{
	Use:   "code",
	Short: "Start an interactive session that edits the project as you chat.",
	Long: `The 'code' subcommand opens a session on the project. Each request is sent with the current
list of files; the answer streams back as narration and its file operations are applied when it
completes. Use /versions, /diff and /restore to move between the states the session produced.`,
	Run: func(cmd *cobra.Command, args []string) {
		rootDependencies := handleRootCommand(cmd)
		handleCodeCommand(rootDependencies)
	},
}

// interrupter routes Ctrl+C to whatever is currently running: the prompt or
// a streaming turn.
type interrupter struct {
	mu sync.Mutex
	fn func()
}

func (i *interrupter) set(fn func()) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.fn = fn
}

func (i *interrupter) fire() {
	i.mu.Lock()
	fn := i.fn
	i.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// codeState is what the loop carries between requests.
type codeState struct {
	deps   *RootDependencies
	lines  *utils.LineReader
	intr   *interrupter
	upload *vfs.Attachment
}

func handleCodeCommand(rootDependencies *RootDependencies) {
	done := make(chan struct{})
	defer close(done)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	state := &codeState{
		deps:  rootDependencies,
		lines: utils.NewLineReader(os.Stdin),
		intr:  &interrupter{},
	}

	go func() {
		for {
			select {
			case <-sigCh:
				state.intr.fire()
			case <-done:
				return
			}
		}
	}()

	updates := rootDependencies.Session.Store().Subscribe()
	defer rootDependencies.Session.Store().Unsubscribe(updates)
	go func() {
		for snap := range updates {
			log.Debug("file system updated", "revision", snap.Revision, "files", len(snap.FileSystem))
		}
	}()

	fmt.Println(lipgloss.BoxStyle.Render("/help  Help for code subcommand"))
	fmt.Println(lipgloss.Gray.Render(fmt.Sprintf("Project: %s", strings.Join(rootDependencies.Session.FileSystem().Paths(), ", "))))

	if queued, ok := rootDependencies.Session.TakeQueuedPrompt(); ok {
		fmt.Println(lipgloss.BlueSky.Render("> ") + queued)
		state.runTurn(queued)
	}

	for {
		promptCtx, cancelPrompt := context.WithCancel(context.Background())
		state.intr.set(cancelPrompt)
		userInput, err := state.lines.InputPromptWithContext(promptCtx)
		cancelPrompt()

		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, utils.ErrInputClosed) {
				fmt.Println(lipgloss.Yellow.Render("🔄 Exiting..."))
				return
			}
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			continue
		}

		if userInput == "" {
			continue
		}

		handled, exit := findCodeSubCommand(userInput, state)
		if exit {
			return
		}
		if handled {
			continue
		}

		state.runTurn(userInput)
	}
}

// runTurn sends one request and renders the streaming answer.
func (s *codeState) runTurn(text string) {
	cfg := s.deps.Config
	start := ""
	if cfg.Protocol != nil {
		start = cfg.Protocol.StartSentinel
	}

	token := session.NewCancelToken()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.intr.set(func() {
		token.Cancel()
		cancel()
	})
	defer s.intr.set(nil)

	spinner, _ := pterm.DefaultSpinner.
		WithStyle(pterm.NewStyle(pterm.FgCyan)).
		WithSequence("⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏").
		WithDelay(100 * time.Millisecond).
		WithRemoveWhenDone(true).
		Start(spinnerText(cfg.AIProviderConfig.Provider))
	stopSpinner := func() {
		if spinner != nil {
			_ = spinner.Stop()
			fmt.Print("\r")
			spinner = nil
		}
	}

	printer := utils.NewNarrationPrinter(os.Stdout, cfg.Theme, start)
	listed := 0
	attachment := s.upload
	s.upload = nil

	turn := s.deps.Session.Send(ctx, s.deps.CurrentChatProvider, text, attachment, token, func(t session.Turn) {
		if !t.IsStreaming {
			return
		}
		if t.Text == "" && len(t.Operations) == 0 {
			return
		}
		stopSpinner()
		if err := printer.Update(t.Text); err != nil {
			log.Debug("failed to render narration", "err", err)
		}
		if len(t.Operations) > listed {
			if listed == 0 {
				fmt.Println()
			}
			for _, op := range t.Operations[listed:] {
				printOperation(op)
			}
			listed = len(t.Operations)
		}
	})
	stopSpinner()

	if listed == 0 {
		if err := printer.Finish(turn.Text); err != nil {
			log.Debug("failed to render narration", "err", err)
		}
		fmt.Println()
	} else {
		for _, op := range turn.Operations[min(listed, len(turn.Operations)):] {
			printOperation(op)
		}
		if turn.Error != "" {
			fmt.Println(lipgloss.Red.Render(turn.Text))
		}
	}

	printTurnStatus(turn, token.Cancelled())
	s.deps.TokenManagement.DisplayTokens(cfg.AIProviderConfig.Provider, cfg.AIProviderConfig.Model)
}

func spinnerText(provider string) string {
	switch provider {
	case "gemini":
		return "Gemini is thinking..."
	case "ollama":
		return "Local AI is working..."
	case "replay":
		return "Replaying recorded answer..."
	default:
		return "AI is thinking..."
	}
}

func printOperation(op models.FileOperation) {
	style := lipgloss.Green
	switch op.Operation {
	case models.OperationUpdate:
		style = lipgloss.Yellow
	case models.OperationDelete:
		style = lipgloss.Red
	}
	line := fmt.Sprintf("  %-6s %s", op.Operation, op.Path)
	if op.Description != "" {
		line += lipgloss.Gray.Render("  " + op.Description)
	}
	fmt.Println(style.Render(line))
}

func printTurnStatus(turn session.Turn, stopped bool) {
	switch {
	case turn.Error != "":
		fmt.Println(lipgloss.Red.Render("✖ " + turn.Error))
	case turn.HasVersion():
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("✔ Applied %d operations as version %d", len(turn.Operations), turn.Version)))
	case stopped:
		fmt.Println(lipgloss.Yellow.Render("⏹ Stopped."))
	}
	for _, skipped := range turn.Skipped {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  skipped %s %s: %s", skipped.Operation.Operation, skipped.Operation.Path, skipped.Reason)))
	}
}

func findCodeSubCommand(command string, s *codeState) (bool, bool) {
	deps := s.deps
	name, arg, _ := strings.Cut(command, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/help":
		helps := "/clear  Clear screen\n/exit  Exit from suvo\n/files  List project files\n/show <path>  Print a file\n/attach <file>  Send an image with the next request\n/versions  List versions\n/diff <version>  Changes since a version was applied\n/restore <version>  Restore the project to before a version\n/token  Token information\n/clear-history  Clear the conversation and versions"
		fmt.Println(lipgloss.BoxStyle.Render(helps))
		return true, false
	case "/clear":
		fmt.Print("\033[2J\033[H")
		return true, false
	case "/exit":
		return false, true
	case "/files":
		fs := deps.Session.FileSystem()
		for _, p := range fs.Paths() {
			record := fs[p]
			fmt.Printf("  %s %s\n", p, lipgloss.Gray.Render(fmt.Sprintf("(%s, %d bytes)", record.Kind, len(record.Content))))
		}
		return true, false
	case "/show":
		record, ok := deps.Session.FileSystem().Get(arg)
		if !ok {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("No such file: %q", arg)))
			return true, false
		}
		if err := utils.RenderFile(os.Stdout, arg, record.Kind, record.Content, record.IsBinary, deps.Config.Theme); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		}
		return true, false
	case "/attach":
		if arg == "" {
			fmt.Println("Usage: /attach <image file>")
			return true, false
		}
		attachment, err := vfs.LoadAttachment(arg)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			return true, false
		}
		s.upload = attachment
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("📎 %s (%s) will be sent with your next request", arg, attachment.MimeType)))
		return true, false
	case "/versions":
		checkpoints := deps.Session.Checkpoints()
		if len(checkpoints) == 0 {
			fmt.Println(lipgloss.Gray.Render("No versions yet."))
		}
		for _, cp := range checkpoints {
			fmt.Printf("  v%d  %s  %d operations\n", cp.Version, cp.CreatedAt.Format("15:04:05"), cp.Operations)
		}
		return true, false
	case "/diff":
		version, ok := parseVersion(arg)
		if !ok {
			return true, false
		}
		changes, err := deps.Session.Diff(version)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			return true, false
		}
		if len(changes) == 0 {
			fmt.Println(lipgloss.Gray.Render("No changes since that version."))
		}
		for _, c := range changes {
			printChange(c)
		}
		return true, false
	case "/restore":
		version, ok := parseVersion(arg)
		if !ok {
			return true, false
		}
		confirmed, err := s.lines.ConfirmPrompt(context.Background(), fmt.Sprintf("Restore the project to before version %d?", version))
		if err != nil || !confirmed {
			fmt.Println(lipgloss.Gray.Render("Restore cancelled."))
			return true, false
		}
		turn, err := deps.Session.Restore(version)
		if err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
			return true, false
		}
		fmt.Println(lipgloss.Green.Render("✔ " + turn.Text))
		return true, false
	case "/token":
		deps.TokenManagement.DisplayTokens(deps.Config.AIProviderConfig.Provider, deps.Config.AIProviderConfig.Model)
		return true, false
	case "/clear-history":
		deps.Session.ClearHistory()
		deps.TokenManagement.ClearToken()
		s.upload = nil
		fmt.Println(lipgloss.Gray.Render("History cleared."))
		return true, false
	default:
		if strings.HasPrefix(name, "/") {
			fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("Unknown command %s, try /help", name)))
			return true, false
		}
		return false, false
	}
}

func parseVersion(arg string) (int, bool) {
	version, err := strconv.Atoi(strings.TrimPrefix(arg, "v"))
	if err != nil || version <= 0 {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Invalid version %q", arg)))
		return 0, false
	}
	return version, true
}

func printChange(c vfs.FileChange) {
	stats := fmt.Sprintf("+%d -%d", c.LinesAdded, c.LinesRemoved)
	if c.Binary {
		stats = "binary"
	}
	switch c.Kind {
	case vfs.ChangeAdded:
		fmt.Println(lipgloss.Green.Render(fmt.Sprintf("  added    %s (%s)", c.Path, stats)))
	case vfs.ChangeRemoved:
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("  removed  %s (%s)", c.Path, stats)))
	default:
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("  modified %s (%s)", c.Path, stats)))
	}
}
