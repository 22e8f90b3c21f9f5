package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/quorum/internal/executor"
	"github.com/roach88/quorum/internal/ir"
	"github.com/roach88/quorum/internal/ledger"
	"github.com/roach88/quorum/internal/registry"
	"github.com/roach88/quorum/internal/store"
)

// FlowTokenGenerator generates the flow token that stamps every event a
// command appends. Implemented by UUIDv7Generator (production) and
// testutil.FixedFlowGenerator (tests).
type FlowTokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 flow tokens.
//
// UUIDv7 embeds a timestamp in the most significant bits, so `quorum
// history` output grouped by flow sorts by creation time.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// DataOptions holds the flags shared by commands that work on a wallet
// database.
type DataOptions struct {
	*RootOptions
	Database string
	As       string
}

func addDatabaseFlag(cmd *cobra.Command, opts *DataOptions) {
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to wallet database (default $QUORUM_DB)")
}

func addCallerFlag(cmd *cobra.Command, opts *DataOptions) {
	cmd.Flags().StringVar(&opts.As, "as", "", "caller identity (default $QUORUM_OWNER)")
}

// database resolves --db, falling back to QUORUM_DB.
func (o *DataOptions) database() (string, error) {
	if o.Database != "" {
		return o.Database, nil
	}
	e, err := o.environment()
	if err != nil {
		return "", err
	}
	if e.DB == "" {
		return "", NewExitError(ExitCommandError, "--db is required (or set QUORUM_DB)")
	}
	return e.DB, nil
}

// caller resolves --as, falling back to QUORUM_OWNER.
func (o *DataOptions) caller() (ir.Owner, error) {
	if o.As != "" {
		return ir.Owner(o.As), nil
	}
	e, err := o.environment()
	if err != nil {
		return "", err
	}
	if e.Owner == "" {
		return "", NewExitError(ExitCommandError, "--as is required (or set QUORUM_OWNER)")
	}
	return ir.Owner(e.Owner), nil
}

// openStore opens an existing wallet database.
// store.Open would create a missing file, so existence is checked first.
func openStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, WrapExitError(ExitCommandError, "database not found", err)
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// loadRegistry rebuilds the membership registry from the stored wallet.
func loadRegistry(ctx context.Context, st *store.Store) (*registry.Registry, error) {
	w, err := st.LoadWallet(ctx)
	if errors.Is(err, store.ErrNoWallet) {
		return nil, WrapExitError(ExitCommandError, "wallet not initialized (run quorum init)", err)
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load wallet", err)
	}
	reg, err := registry.New(w.Owners, w.Threshold)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "stored wallet is invalid", err)
	}
	return reg, nil
}

// ExecutorFactory builds the Action Executor for a session. q is the
// session's staging queue.
type ExecutorFactory func(q executor.Enqueuer, logger *slog.Logger) (ledger.Executor, error)

// Executor names accepted by --executor and QUORUM_EXECUTOR.
const (
	ExecutorOutbox = "outbox"
	ExecutorLog    = "log"
)

// executorNamed returns the factory for name.
func executorNamed(name string) (ExecutorFactory, error) {
	switch name {
	case ExecutorOutbox, "":
		return func(q executor.Enqueuer, logger *slog.Logger) (ledger.Executor, error) {
			return executor.NewOutbox(q, logger), nil
		}, nil
	case ExecutorLog:
		return func(_ executor.Enqueuer, logger *slog.Logger) (ledger.Executor, error) {
			return executor.Log{Logger: logger}, nil
		}, nil
	default:
		return nil, NewExitError(ExitCommandError,
			fmt.Sprintf("unknown executor %q: must be %q or %q", name, ExecutorOutbox, ExecutorLog))
	}
}

// session is one command's view of the wallet: a ledger restored from the
// store, plus the bookkeeping needed to persist what the command did.
//
// A session is single-use: open, run one operation, commit, close.
type session struct {
	store    *store.Store
	ledger   *ledger.Ledger
	events   *ledger.Recorder
	staged   *executor.Staged
	base     int64
	flowGen  FlowTokenGenerator
	logger   *slog.Logger
	touched  []uint64
	consumed []uint64
}

// openSession restores the ledger stored at the resolved --db path.
// newExec may be nil for commands that never execute.
func openSession(ctx context.Context, opts *DataOptions, cmd *cobra.Command, newExec ExecutorFactory) (*session, error) {
	path, err := opts.database()
	if err != nil {
		return nil, err
	}
	st, err := openStore(path)
	if err != nil {
		return nil, err
	}

	s, err := restoreSession(ctx, st, opts.RootOptions, opts.loggerFor(cmd.ErrOrStderr()), newExec)
	if err != nil {
		st.Close()
		return nil, err
	}
	return s, nil
}

func restoreSession(ctx context.Context, st *store.Store, opts *RootOptions, logger *slog.Logger, newExec ExecutorFactory) (*session, error) {
	reg, err := loadRegistry(ctx, st)
	if err != nil {
		return nil, err
	}
	states, err := st.LoadProposals(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load proposals", err)
	}
	base, err := st.LastSeq(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read event log", err)
	}

	s := &session{
		store:   st,
		events:  ledger.NewRecorder(),
		staged:  executor.NewStaged(),
		base:    base,
		flowGen: opts.flowGenerator(),
		logger:  logger,
	}

	var exec ledger.Executor
	if newExec != nil {
		if exec, err = newExec(s.staged, logger); err != nil {
			return nil, err
		}
	}

	s.ledger, err = ledger.Restore(reg, exec, states,
		ledger.WithSink(ledger.MultiSink{s.events, ledger.LogSink{Logger: logger}}),
		ledger.WithClock(ledger.NewClockAt(base)),
		ledger.WithLogger(logger),
	)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "stored proposals are inconsistent", err)
	}
	return s, nil
}

// touch marks a proposal whose snapshot must be persisted on commit.
func (s *session) touch(index uint64) {
	s.touched = append(s.touched, index)
}

// consume marks a proposal this session executed. Commit refuses the batch
// if another writer consumed it first.
func (s *session) consume(index uint64) {
	s.touch(index)
	s.consumed = append(s.consumed, index)
}

// commit persists the session's events, touched snapshots and staged
// actions in one transaction and returns the flow token that stamps them.
// Returns "" without writing if the session changed nothing.
func (s *session) commit(ctx context.Context) (string, error) {
	var states []ir.ProposalState
	for _, idx := range s.touched {
		p, err := s.ledger.Proposal(idx)
		if err != nil {
			continue // never existed; nothing to persist
		}
		states = append(states, p)
	}
	events := s.events.Events()
	actions := s.staged.Drain()

	if len(states) == 0 && len(events) == 0 && len(actions) == 0 {
		return "", nil
	}

	flow := s.flowGen.Generate()
	err := s.store.Commit(ctx, store.Batch{
		Flow:     flow,
		BaseSeq:  s.base,
		States:   states,
		Events:   events,
		Actions:  actions,
		Consumed: s.consumed,
	})
	if errors.Is(err, store.ErrStaleState) {
		return "", WrapExitError(ExitFailure, "wallet changed during command; retry", err)
	}
	if err != nil {
		return "", WrapExitError(ExitCommandError, "failed to persist", err)
	}

	s.logger.Debug("batch committed",
		"flow", flow,
		"base_seq", s.base,
		"events", len(events),
		"actions", len(actions),
	)
	return flow, nil
}

// Close releases the store.
func (s *session) Close() error {
	return s.store.Close()
}

// parseIndex parses a proposal index argument.
func parseIndex(arg string) (uint64, error) {
	idx, err := strconv.ParseUint(strings.TrimSpace(arg), 10, 64)
	if err != nil {
		return 0, WrapExitError(ExitCommandError, fmt.Sprintf("invalid proposal index %q", arg), err)
	}
	return idx, nil
}
