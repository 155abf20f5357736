package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/suvo-labs/suvo/config"
	"github.com/suvo-labs/suvo/constants/lipgloss"
	"github.com/suvo-labs/suvo/logger"
	"github.com/suvo-labs/suvo/prompt"
	"github.com/suvo-labs/suvo/protocol"
	"github.com/suvo-labs/suvo/providers"
	contracts_provider "github.com/suvo-labs/suvo/providers/contracts"
	"github.com/suvo-labs/suvo/session"
	"github.com/suvo-labs/suvo/token_management"
	contracts_token "github.com/suvo-labs/suvo/token_management/contracts"
	"github.com/suvo-labs/suvo/vfs"
)

// RootDependencies is everything a command needs for one session.
type RootDependencies struct {
	Cwd                 string
	Config              *config.Config
	TokenManagement     contracts_token.ITokenManagement
	CurrentChatProvider contracts_provider.IChatAIProvider
	Session             *session.Session
}

var initialPrompt string

var rootCmd = &cobra.Command{
	Use:   "suvo",
	Short: "Build a small web project by chatting with a model that streams file edits.",
	Long: `suvo keeps an in-memory web project (index.html, style.css, script.js and friends)
and lets you describe changes in plain language. The model's answer streams back as narration
followed by a block of file operations, which are applied as soon as the answer completes.
Every turn that changed the project gets a version you can inspect, diff, or restore.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Println(lipgloss.BlueSky.Render(fmt.Sprintf("suvo version %s", config.DefaultConfig.Version)))
			return
		}
		rootDependencies := handleRootCommand(cmd)
		handleCodeCommand(rootDependencies)
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
}

func init() {
	config.InitFlags(rootCmd)
	rootCmd.PersistentFlags().StringVarP(&initialPrompt, "prompt", "p", "", "A first request sent as soon as the session starts.")
	rootCmd.AddCommand(codeCmd)
}

// handleRootCommand loads the configuration and wires the session. It exits
// the process on failure, since nothing useful can run without a provider.
func handleRootCommand(cmd *cobra.Command) *RootDependencies {
	rootDependencies, err := buildDependencies(cmd.Context(), cmd)
	if err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("%v", err)))
		os.Exit(1)
	}
	return rootDependencies
}

func buildDependencies(ctx context.Context, cmd *cobra.Command) (*RootDependencies, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("error getting current working directory: %w", err)
	}

	cfg, err := config.LoadConfigWithCache(cmd, cwd)
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.LogLevel)

	initial, err := seedFileSystem(cfg.SeedDir)
	if err != nil {
		return nil, err
	}

	proto := prompt.DefaultProtocol()
	if cfg.Protocol != nil {
		proto.StartSentinel = valueOr(cfg.Protocol.StartSentinel, proto.StartSentinel)
		proto.EndSentinel = valueOr(cfg.Protocol.EndSentinel, proto.EndSentinel)
		proto.Placeholder = valueOr(cfg.Protocol.Placeholder, proto.Placeholder)
	}
	systemPrompt, err := prompt.SystemPrompt(proto)
	if err != nil {
		return nil, err
	}

	tokenManagement := token_management.NewTokenManager()

	chatProvider, err := providers.ChatProviderFactory(ctx, cfg.AIProviderConfig, tokenManagement)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat provider: %w", err)
	}

	s := session.New(initial, session.Options{
		Parser:       protocol.NewParser(proto.StartSentinel, proto.EndSentinel),
		Applier:      vfs.NewApplier(proto.Placeholder),
		Prompts:      prompt.NewBuilder(cfg.IncludeOutline),
		SystemPrompt: systemPrompt,
	})
	if initialPrompt != "" {
		s.QueuePrompt(initialPrompt)
	}

	return &RootDependencies{
		Cwd:                 cwd,
		Config:              cfg,
		TokenManagement:     tokenManagement,
		CurrentChatProvider: chatProvider,
		Session:             s,
	}, nil
}

// seedFileSystem returns the bootstrap project, or the contents of dir when set.
func seedFileSystem(dir string) (vfs.FileSystem, error) {
	if dir == "" {
		return vfs.Bootstrap()
	}
	fs, err := vfs.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to seed from %s: %w", dir, err)
	}
	if len(fs) == 0 {
		fmt.Println(lipgloss.Yellow.Render(fmt.Sprintf("No usable files in %s, starting from the bootstrap project", dir)))
		return vfs.Bootstrap()
	}
	return fs, nil
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
