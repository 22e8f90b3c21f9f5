package executor

import (
	"context"
	"log/slog"

	"github.com/roach88/quorum/internal/ir"
)

// Log is a dry-run Action Executor: it records the action and succeeds.
type Log struct {
	Logger *slog.Logger
}

// Invoke logs action at Info and returns a dry_run Receipt.
func (l Log) Invoke(ctx context.Context, action ir.Action) ([]byte, error) {
	logger := l.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "action executed (dry run)",
		"index", action.Index,
		"target", action.Target,
		"value", action.Value,
		"payload", ir.EncodePayload(action.Payload),
	)
	return newReceipt(action, StatusDryRun)
}
