// Package cli builds the hydroprep command tree: one subcommand per
// pipeline step, each opening the project ledger under the advisory lock,
// running its step, and exiting non-zero on any validator or engine
// failure.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vk/hydroprep/internal/app"
	"github.com/vk/hydroprep/internal/config"
	"github.com/vk/hydroprep/internal/ledger"
	"github.com/vk/hydroprep/internal/steps"
)

// ExitError carries a specific process exit code alongside the message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// Exit codes beyond the generic failure: a busy ledger is retryable and a
// corrupt ledger needs manual repair, so scripts get distinct codes.
const (
	exitFailure      = 1
	exitLedgerBusy   = 3
	exitCorruptState = 4
)

func exitCode(err error) int {
	if errors.Is(err, ledger.ErrLedgerBusy) {
		return exitLedgerBusy
	}
	var corrupt *ledger.CorruptLedgerError
	if errors.As(err, &corrupt) {
		return exitCorruptState
	}
	return exitFailure
}

// options holds the persistent flag values shared by every subcommand.
type options struct {
	outW       io.Writer
	project    string
	configPath string
	logLevel   string
	logFormat  string
	noWait     bool
}

func (o *options) loadConfig() (*config.Model, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	// Flags are the last layer over defaults, file, and environment.
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if o.noWait {
		cfg.NoWait = true
	}
	return cfg, nil
}

// withEnv runs fn against a fully wired step environment, holding the
// ledger session for the duration and releasing it on every exit path.
func (o *options) withEnv(fn func(ctx context.Context, env *steps.Env) error) error {
	cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	a := app.New(o.outW, cfg)

	p, session, err := a.OpenSession(o.project)
	if err != nil {
		return err
	}
	defer session.Close()

	return fn(a.Context(), a.Env(p, session))
}

// New builds the root command.
func New(outW io.Writer) *cobra.Command {
	o := &options{outW: outW}

	root := &cobra.Command{
		Use:           "hydroprep",
		Short:         "Prepare spatial and climate inputs for a distributed hydrological model",
		Long:          "hydroprep walks a watershed project through delineation, landcover and LAI derivation,\nclimate station mapping, and worldfile template generation, recording every step in a\nproject metadata ledger so a model run can be reproduced and audited.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)

	pf := root.PersistentFlags()
	pf.StringVarP(&o.project, "project", "p", ".", "Project root directory.")
	pf.StringVar(&o.configPath, "config", "", "Path to a hydroprep.yaml config file.")
	pf.StringVar(&o.logLevel, "log-level", "", "Logging level: 'debug', 'info', 'warn', or 'error'.")
	pf.StringVar(&o.logFormat, "log-format", "", "Log output format: 'text' or 'json'.")
	pf.BoolVar(&o.noWait, "no-wait", false, "Fail fast instead of blocking when the project ledger is locked.")

	root.AddCommand(
		newRegisterDEMCmd(o),
		newDelineateCmd(o),
		newLandcoverCmd(o),
		newPatchStatsCmd(o),
		newClimateCmd(o),
		newWorldfileCmd(o),
		newRunCmd(o),
		newStatusCmd(o),
	)
	return root
}

// Run executes the command tree and normalizes failures into ExitErrors.
func Run(outW io.Writer, args []string) error {
	root := New(outW)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		return &ExitError{Code: exitCode(err), Message: fmt.Sprintf("hydroprep: %v", err)}
	}
	return nil
}
