package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/quorum/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// FlowGenerator allows overriding the flow token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	FlowGenerator FlowTokenGenerator

	// LookupEnv allows overriding environment defaults (for testing).
	// If nil, config.ParseEnv is used.
	LookupEnv func() (config.Env, error)

	// Executors allows overriding the executor chosen by --executor (for
	// testing). If nil, the name is resolved by executorNamed.
	Executors ExecutorFactory

	env    *config.Env
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the quorum CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quorum",
		Short: "quorum - multi-party authorization wallet",
		Long: `A multi-owner wallet: owners submit proposals, a threshold of them
confirm, and any owner executes once quorum is met.

Every accepted operation is appended to an audit log in the wallet
database; executed actions are queued in an outbox for delivery.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewOwnersCommand(opts))
	cmd.AddCommand(NewSubmitCommand(opts))
	cmd.AddCommand(NewConfirmCommand(opts))
	cmd.AddCommand(NewRevokeCommand(opts))
	cmd.AddCommand(NewAmendCommand(opts))
	cmd.AddCommand(NewExecuteCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewOutboxCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// environment returns the environment defaults, parsing them once.
func (o *RootOptions) environment() (config.Env, error) {
	if o.env != nil {
		return *o.env, nil
	}
	lookup := o.LookupEnv
	if lookup == nil {
		lookup = config.ParseEnv
	}
	e, err := lookup()
	if err != nil {
		return config.Env{}, WrapExitError(ExitCommandError, "invalid environment", err)
	}
	o.env = &e
	return e, nil
}

// flowGenerator returns the configured flow token generator.
func (o *RootOptions) flowGenerator() FlowTokenGenerator {
	if o.FlowGenerator != nil {
		return o.FlowGenerator
	}
	return UUIDv7Generator{}
}

// loggerFor returns the command logger: text records on the command's
// stderr at Info, or Debug with --verbose.
func (o *RootOptions) loggerFor(w io.Writer) *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	logLevel := slog.LevelInfo
	if o.Verbose {
		logLevel = slog.LevelDebug
	}
	o.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	}))
	return o.logger
}

// formatter returns an OutputFormatter bound to cmd's writers.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
