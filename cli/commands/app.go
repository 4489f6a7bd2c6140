// Package commands implements the zai command-line interface using Cobra.
package commands

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petal-labs/zai-go/cli/config"
	"github.com/petal-labs/zai-go/core"
	"github.com/petal-labs/zai-go/providers/zai"
)

// ConfigLoader loads CLI config from a path.
type ConfigLoader func(path string) (*config.Config, error)

// ProviderFactory creates the Z.ai provider from the resolved key and config.
type ProviderFactory func(apiKey string, cfg *config.Config) (*zai.Zai, error)

// AppOption customizes App dependencies.
type AppOption func(*App)

// App holds CLI state and runtime dependencies.
type App struct {
	root *cobra.Command

	loadConfig     ConfigLoader
	createProvider ProviderFactory
	isTerminal     func(w io.Writer) bool
	stdin          io.Reader
	stdout         io.Writer
	stderr         io.Writer

	cfgFile    string
	envFile    string
	model      string
	jsonOutput bool
	verbose    bool
	cfg        *config.Config

	chatPrompt      string
	chatSystem      string
	chatTemperature float32
	chatMaxTokens   int
	chatStream      bool
	chatThinking    bool

	realtimeText         string
	realtimeInstructions string

	toolsDir string
}

// WithConfigLoader injects a config loader dependency.
func WithConfigLoader(loader ConfigLoader) AppOption {
	return func(a *App) {
		if loader != nil {
			a.loadConfig = loader
		}
	}
}

// WithProviderFactory injects a provider factory dependency.
func WithProviderFactory(factory ProviderFactory) AppOption {
	return func(a *App) {
		if factory != nil {
			a.createProvider = factory
		}
	}
}

// WithTerminalCheck overrides interactive terminal detection.
func WithTerminalCheck(fn func(w io.Writer) bool) AppOption {
	return func(a *App) {
		if fn != nil {
			a.isTerminal = fn
		}
	}
}

// WithIO injects process I/O streams.
func WithIO(stdin io.Reader, stdout, stderr io.Writer) AppOption {
	return func(a *App) {
		if stdin != nil {
			a.stdin = stdin
		}
		if stdout != nil {
			a.stdout = stdout
		}
		if stderr != nil {
			a.stderr = stderr
		}
	}
}

// NewApp creates a new CLI app with default dependencies.
func NewApp(opts ...AppOption) *App {
	a := &App{
		loadConfig:     config.LoadConfig,
		createProvider: defaultProviderFactory,
		isTerminal:     isTerminal,
		stdin:          os.Stdin,
		stdout:         os.Stdout,
		stderr:         os.Stderr,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.root = a.newRootCommand()
	return a
}

func (a *App) newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "zai",
		Short: "zai - command-line client for the Z.ai GLM models",
		Long: `zai is a command-line client for the Z.ai (GLM) chat and realtime APIs.

The API key is read from ZAI_API_KEY, a .env file, or api_key in the config file.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ~/.zai/config.yaml)")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file to load before reading ZAI_API_KEY")
	root.PersistentFlags().StringVar(&a.model, "model", "", "model ID (e.g. glm-4.6)")
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "emit JSON output")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "enable debug logging")

	root.AddCommand(a.newChatCommand())
	root.AddCommand(a.newRealtimeCommand())
	root.AddCommand(a.newToolsCommand())
	root.AddCommand(a.newVersionCommand())

	return root
}

// Execute runs the root command. Every returned error carries an exit code
// and has already been printed to stderr.
func (a *App) Execute() error {
	err := a.root.Execute()
	if err == nil {
		return nil
	}
	var ee *exitError
	if !errors.As(err, &ee) {
		ee = &exitError{code: ExitValidation, err: err}
	}
	if !ee.reported {
		a.report(err)
		ee.reported = true
	}
	return ee
}

// SetArgs sets the arguments used by Execute.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

func (a *App) initConfig() error {
	if err := config.LoadEnv(a.envFile); err != nil {
		return exitWithCode(ExitValidation, err)
	}

	path := a.cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	cfg, err := a.loadConfig(path)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}
	a.cfg = cfg

	if a.toolsDir == "" {
		a.toolsDir = cfg.ToolsDir
	}
	return nil
}

// logger returns a debug logger on stderr with --verbose, otherwise a discard logger.
func (a *App) logger() *slog.Logger {
	if !a.verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// provider resolves the API key and builds the provider.
func (a *App) provider() (*zai.Zai, error) {
	apiKey := a.cfg.ResolveAPIKey()
	if apiKey == "" {
		return nil, exitWithCode(ExitValidation, zai.ErrAPIKeyNotFound)
	}
	p, err := a.createProvider(apiKey, a.cfg)
	if err != nil {
		return nil, exitWithCode(ExitValidation, err)
	}
	return p, nil
}

func (a *App) chatModel() core.ModelID {
	switch {
	case a.model != "":
		return core.ModelID(a.model)
	case a.cfg != nil && a.cfg.DefaultModel != "":
		return core.ModelID(a.cfg.DefaultModel)
	default:
		return zai.ModelGLM47Flash
	}
}

func (a *App) realtimeModel() core.ModelID {
	switch {
	case a.model != "":
		return core.ModelID(a.model)
	case a.cfg != nil && a.cfg.RealtimeModel != "":
		return core.ModelID(a.cfg.RealtimeModel)
	default:
		return zai.ModelGLMRealtimeFlash
	}
}

func defaultProviderFactory(apiKey string, cfg *config.Config) (*zai.Zai, error) {
	var opts []zai.Option
	if cfg != nil {
		if cfg.BaseURL != "" {
			opts = append(opts, zai.WithBaseURL(cfg.BaseURL))
		}
		if cfg.RealtimeURL != "" {
			opts = append(opts, zai.WithRealtimeURL(cfg.RealtimeURL))
		}
		if cfg.Timeout > 0 {
			opts = append(opts, zai.WithTimeout(cfg.Timeout))
		}
	}
	return zai.New(apiKey, opts...), nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

var defaultApp = NewApp()

// Execute runs the default app root command.
func Execute() error {
	return defaultApp.Execute()
}
