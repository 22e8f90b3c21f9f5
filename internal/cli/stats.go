package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/quorum/internal/metrics"
	"github.com/roach88/quorum/internal/store"
)

type statsResult struct {
	Proposals int              `json:"proposals"`
	Executed  int              `json:"executed"`
	Flows     int              `json:"flows"`
	LastSeq   int64            `json:"last_seq"`
	Metrics   []metrics.Sample `json:"metrics"`
}

func (r statsResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Proposals: %d (%d executed)\n", r.Proposals, r.Executed)
	fmt.Fprintf(&b, "Events:    %d in %d flows\n", r.LastSeq, r.Flows)
	for _, s := range r.Metrics {
		fmt.Fprintf(&b, "%s%s %g\n", s.Name, formatLabels(s.Labels), s.Value)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = fmt.Sprintf("%s=%q", k, labels[k])
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize wallet activity",
		Long: `Summarize the wallet's proposals and audit log.

Counters are rebuilt from the stored log in Prometheus form: events by
kind and actions the executor rejected.

Example:
  quorum stats --db ./wallet.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	addDatabaseFlag(cmd, opts)

	return cmd
}

func runStats(opts *DataOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	ctx := cmd.Context()

	st, _, err := openWallet(ctx, opts)
	if err != nil {
		return f.Fail(err)
	}
	defer st.Close()

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewSink(reg)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to create metrics", err))
	}

	records, err := st.ReadEvents(ctx, store.EventFilter{})
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to read events", err))
	}
	for _, rec := range records {
		sink.Emit(rec.Event)
	}
	failed, err := st.CountFailedExecutions(ctx)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to count rejected actions", err))
	}
	sink.AddExecutionFailures(failed)

	states, err := st.LoadProposals(ctx)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to load proposals", err))
	}
	flows, err := st.ListFlows(ctx)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to list flows", err))
	}
	last, err := st.LastSeq(ctx)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to read event log", err))
	}

	samples, err := metrics.Gather(reg)
	if err != nil {
		return f.Fail(WrapExitError(ExitCommandError, "failed to gather metrics", err))
	}

	result := statsResult{
		Proposals: len(states),
		Flows:     len(flows),
		LastSeq:   last,
		Metrics:   samples,
	}
	for _, p := range states {
		if p.Executed {
			result.Executed++
		}
	}
	return f.Success(result)
}
