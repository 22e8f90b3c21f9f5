package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/quorum/internal/config"
	"github.com/roach88/quorum/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	DataOptions
	Wallet string
}

// walletView is the CLI rendering of the stored wallet definition.
type walletView struct {
	Owners        []string `json:"owners"`
	Threshold     int      `json:"threshold"`
	Digest        string   `json:"digest"`
	EngineVersion string   `json:"engine_version"`
	IRVersion     string   `json:"ir_version"`
}

func newWalletView(w store.Wallet) walletView {
	owners := make([]string, len(w.Owners))
	for i, o := range w.Owners {
		owners[i] = string(o)
	}
	return walletView{
		Owners:        owners,
		Threshold:     w.Threshold,
		Digest:        w.Digest,
		EngineVersion: w.EngineVersion,
		IRVersion:     w.IRVersion,
	}
}

func (v walletView) String() string {
	return fmt.Sprintf("Owners (%d of %d required): %s\nDigest: %s",
		v.Threshold, len(v.Owners), strings.Join(v.Owners, ", "), v.Digest)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{DataOptions: DataOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a wallet database",
		Long: `Create a wallet database from a wallet definition file.

The definition lists the owners and the confirmation threshold, as YAML
(.yaml, .yml) or CUE (.cue). Membership is fixed once the wallet exists.

Example:
  quorum init --db ./wallet.db --wallet ./wallet.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, &opts.DataOptions)
	cmd.Flags().StringVar(&opts.Wallet, "wallet", "", "path to wallet definition (required)")
	_ = cmd.MarkFlagRequired("wallet")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	path, err := opts.database()
	if err != nil {
		return f.Fail(err)
	}

	def, err := config.LoadWallet(opts.Wallet)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to load wallet definition", err))
	}
	reg, err := def.Registry()
	if err != nil {
		return f.Fail(err)
	}

	st, err := store.Open(path)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to open database", err))
	}
	defer st.Close()

	w, err := st.InitWallet(ctx, reg.Owners(), reg.Threshold())
	if errors.Is(err, store.ErrWalletExists) {
		return f.Fail(WrapExitError(ExitCommandError, "cannot initialize "+path, err))
	}
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to initialize wallet", err))
	}

	opts.loggerFor(cmd.ErrOrStderr()).Info("wallet initialized",
		"db", path,
		"owners", len(w.Owners),
		"threshold", w.Threshold,
	)
	return f.Success(newWalletView(w))
}

// NewOwnersCommand creates the owners command.
func NewOwnersCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "owners",
		Short:         "Show the wallet owners and threshold",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOwners(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, opts)

	return cmd
}

func runOwners(opts *DataOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	path, err := opts.database()
	if err != nil {
		return f.Fail(err)
	}
	st, err := openStore(path)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	w, err := st.LoadWallet(cmd.Context())
	if errors.Is(err, store.ErrNoWallet) {
		return f.Fail(WrapExitError(ExitCommandError, "wallet not initialized (run quorum init)", err))
	}
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to load wallet", err))
	}
	return f.Success(newWalletView(w))
}
