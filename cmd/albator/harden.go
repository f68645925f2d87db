package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/albator-sec/albator/internal/config"
	"github.com/albator-sec/albator/internal/engine"
	"github.com/albator-sec/albator/internal/logger"
	"github.com/albator-sec/albator/internal/operation"
	"github.com/albator-sec/albator/internal/preflight"
	"github.com/albator-sec/albator/internal/report"
	"github.com/albator-sec/albator/internal/tui"
)

type hardenOptions struct {
	Domain         string
	ConfigPath     string
	StateDir       string
	DryRun         bool
	Verbose        bool
	NonInteractive bool
}

var hardenCmdRunner = runHarden

func newHardenCmd(root *rootFlags) *cobra.Command {
	opts := hardenOptions{}

	cmd := &cobra.Command{
		Use:   "harden <domain>",
		Short: "Run the hardening catalog for one domain",
		Long: `Harden probes every operation in the domain's catalog and applies the
non-compliant ones, backing up each prior value first and verifying each
change afterwards. Exit code 0 means changes were applied with zero errors,
10 means everything was already compliant (a pure no-op run), and 1 means
one or more operations failed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Domain = args[0]
			opts.ConfigPath = root.config
			opts.DryRun = root.dryRun
			opts.Verbose = root.verbose
			opts.NonInteractive = !term.IsTerminal(int(os.Stdout.Fd()))

			return hardenCmdRunner(opts)
		},
	}

	cmd.Flags().StringVar(&opts.StateDir, "state-dir", "", "Override the backup/ledger state directory")

	return cmd
}

func runHarden(opts hardenOptions) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	if opts.StateDir != "" {
		cfg.StateDir = opts.StateDir
	}
	effectiveDryRun := opts.DryRun || cfg.DryRun

	level := cfg.LogLevel
	if opts.Verbose {
		level = "debug"
	}
	log, err := logger.New(logger.Options{Level: level, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	prov, err := getAppRegistry().Get(opts.Domain)
	if err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The TUI owns the terminal in raw mode, so a user interrupt arrives as
	// a key message instead of SIGINT; cancelRun is the path that turns it
	// into engine cancellation.
	ctx, cancelRun := context.WithCancel(signalCtx)
	defer cancelRun()

	pf := preflight.Run(ctx, preflight.Options{
		RequiredTools: prov.RequiredTools(),
		RequireRoot:   runtime.GOOS == "darwin" && !effectiveDryRun,
	})
	if !pf.Passed {
		log.Error(pf.Err(), "preflight failed; refusing to run any operation")
		return &exitError{code: report.ExitError, msg: pf.Err().Error()}
	}

	rc := &engine.RunContext{
		Provider:         prov,
		StateRoot:        cfg.StateDir,
		DryRun:           effectiveDryRun,
		OperationTimeout: time.Duration(cfg.OperationTimeoutSeconds) * time.Second,
		Logger:           log,
	}

	interactive := !opts.NonInteractive
	var program *tea.Program
	var programErr error
	done := make(chan struct{})

	if interactive {
		model := tui.NewModel(prov.Name(), prov.Operations(), effectiveDryRun)
		program = tea.NewProgram(model)
		go func() {
			finalModel, err := program.Run()
			programErr = err
			cancelOnUserInterrupt(finalModel, cancelRun)
			close(done)
		}()
		rc.OnResult = func(res operation.Result) {
			program.Send(tui.OperationCompleteMsg{Result: res})
		}
	} else {
		rc.OnResult = func(res operation.Result) {
			log.WithFields(map[string]any{
				"operation": res.OperationID,
				"outcome":   res.Outcome,
			}).Info(res.Message)
		}
	}

	summary, runErr := engine.Run(ctx, rc)

	if interactive {
		program.Send(tui.RunDoneMsg{})
		<-done
		if programErr != nil {
			return programErr
		}
	}

	fmt.Fprintln(os.Stdout, report.Render(summary))

	if runErr != nil {
		return &exitError{code: report.ExitError, msg: runErr.Error()}
	}

	switch code := summary.ExitCode(); code {
	case report.ExitOK:
		return nil
	case report.ExitError:
		return &exitError{code: code, msg: "run completed with errors"}
	default:
		return &exitError{code: code}
	}
}

// cancelOnUserInterrupt cancels the run when the TUI exited because the
// user interrupted it, so the engine stops before the next operation
// mutates anything.
func cancelOnUserInterrupt(finalModel tea.Model, cancel context.CancelFunc) {
	if m, ok := finalModel.(tui.Model); ok && m.Cancelled() {
		cancel()
	}
}
