package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"screen-ui-agent/src/clipboard"
	"screen-ui-agent/src/config"
	"screen-ui-agent/src/elevation"
	"screen-ui-agent/src/locate"
	"screen-ui-agent/src/logutil"
	"screen-ui-agent/src/ocr"
	"screen-ui-agent/src/screenshot"
	"screen-ui-agent/src/textread"
	"screen-ui-agent/src/uitree"
	"screen-ui-agent/src/winapi"
)

const (
	exitOK          = 0
	exitFailure     = 1
	exitCallerFault = 2
	exitCancelled   = 130
)

type cliOptions struct {
	jsonOutput  bool
	verbose     bool
	apiKeyPath  string
	ocrProvider string
	timeout     time.Duration

	cfg *config.Config
}

type desktop interface {
	elevation.WindowLocator
	textread.WindowQuery
}

// environment holds everything a command touches outside the process, so
// tests can run the full command tree against fakes.
type environment struct {
	tree       uitree.Provider
	desktop    desktop
	topology   locate.Topology
	capturer   textread.Capturer
	tokens     elevation.TokenSource
	loadConfig func(config.LoadOptions) (*config.Config, error)
	newEngine  func(*config.Config) (ocr.Engine, error)
	copyText   func(string) error
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
}

func defaultEnvironment() *environment {
	return &environment{
		tree:       uitree.NewWin32Provider(),
		desktop:    winapi.NewDesktop(),
		topology:   screenshot.NewTopology(),
		capturer:   screenshot.NewCapturer(),
		tokens:     elevation.NewTokenSource(),
		loadConfig: config.LoadWithOptions,
		newEngine:  ocr.NewEngine,
		copyText:   clipboard.Write,
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
}

// usageError marks bad command-line input; it exits like a caller fault.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func main() {
	err := run()
	if err != nil {
		if textread.IsCancelled(err) {
			fmt.Fprintln(os.Stderr, "Cancelled")
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	os.Exit(exitCode(err))
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return runWithArgs(ctx, normalizeLegacyArgs(os.Args), defaultEnvironment())
}

func runWithArgs(ctx context.Context, args []string, env *environment) error {
	if len(args) == 0 {
		args = []string{"uiread"}
	}

	opts := &cliOptions{}
	cmd := newRootCmd(opts, env)
	cmd.SetArgs(args[1:])
	cmd.SetIn(env.stdin)
	cmd.SetOut(env.stdout)
	cmd.SetErr(env.stderr)
	return cmd.ExecuteContext(ctx)
}

func exitCode(err error) int {
	var usage *usageError
	switch {
	case err == nil:
		return exitOK
	case textread.IsCancelled(err):
		return exitCancelled
	case textread.IsCallerFault(err), errors.As(err, &usage):
		return exitCallerFault
	default:
		return exitFailure
	}
}

func newRootCmd(opts *cliOptions, env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "uiread",
		Short:         "Locate, read and map desktop UI elements",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(opts, env)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := cmd.PersistentFlags()
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output results as JSON (read and ocr print plain text otherwise)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose output to stderr")
	flags.StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")
	flags.StringVar(&opts.ocrProvider, "ocr-provider", "", "OCR provider: openrouter, ollama or none")
	flags.DurationVar(&opts.timeout, "timeout", 0, "Deadline for the whole command, also used as the OCR request timeout")

	cmd.AddCommand(
		newReadCmd(opts, env),
		newFindCmd(opts, env),
		newMonitorsCmd(env),
		newMapCmd(env),
		newElevatedCmd(env),
		newOCRCmd(opts, env),
		newBatchCmd(opts, env),
	)
	return cmd
}

// setup loads configuration and configures logging before any command runs.
func setup(opts *cliOptions, env *environment) error {
	cfg, err := env.loadConfig(config.LoadOptions{
		APIKeyPathOverride:  opts.apiKeyPath,
		OCRProviderOverride: opts.ocrProvider,
	})
	if err != nil {
		return &usageError{err: fmt.Errorf("failed to load configuration: %w", err)}
	}
	if opts.timeout > 0 {
		cfg.OCRDeadlineSec = max(1, int(opts.timeout.Seconds()))
	}
	opts.cfg = cfg

	if opts.verbose {
		logutil.SetupStderr()
		log.Printf("[verbose] Config loaded: provider=%s model=%s key path=%s", cfg.OCRProvider, cfg.Model, cfg.APIKeyPath)
	} else {
		logutil.Setup(cfg.EnableFileLogging, cfg.LogFile)
	}
	return nil
}

// commandContext applies --timeout to the command's context.
func commandContext(cmd *cobra.Command, opts *cliOptions) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if opts != nil && opts.timeout > 0 {
		return context.WithTimeout(ctx, opts.timeout)
	}
	return context.WithCancel(ctx)
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

// normalizeLegacyArgs accepts Go-flag style single-dash long options
// (-window 0x10, -json) by rewriting them to their double-dash form.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}

	normalized := make([]string, len(args))
	copy(normalized, args)

	for i := 1; i < len(normalized); i++ {
		arg := normalized[i]
		if arg == "--" {
			break
		}
		if !strings.HasPrefix(arg, "-") || strings.HasPrefix(arg, "--") {
			continue
		}
		name, _, _ := strings.Cut(arg[1:], "=")
		if legacyFlags[name] {
			normalized[i] = "-" + arg
		}
	}

	return normalized
}

var legacyFlags = map[string]bool{
	"json": true, "verbose": true, "api-key-path": true, "ocr-provider": true, "timeout": true,
	"window": true, "name": true, "name-contains": true, "name-pattern": true, "control-type": true,
	"automation-id": true, "class-name": true, "found-index": true, "include-children": true,
	"lang": true, "copy": true, "file": true, "pid": true, "workers": true, "monitor": true,
	"x": true, "y": true, "width": true, "height": true,
}
