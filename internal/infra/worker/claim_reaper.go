// Package worker holds background maintenance loops that run next to
// the API process.
package worker

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// ClaimReaper releases generation claims left behind by a crashed or
// restarted process. A claim with no report after the stale window means
// the in-memory driver that held it is gone; releasing it lets a manual
// retry run. Only wired for the Postgres-backed content store, where we
// can sweep with one query.
type ClaimReaper struct {
	db           *sql.DB
	staleWindow  time.Duration
	tickInterval time.Duration
	logger       *zap.Logger
}

func NewClaimReaper(db *sql.DB, logger *zap.Logger) *ClaimReaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClaimReaper{
		db:           db,
		staleWindow:  15 * time.Minute,
		tickInterval: time.Minute,
		logger:       logger,
	}
}

func (w *ClaimReaper) Start(ctx context.Context) {
	w.logger.Info("claim reaper started",
		zap.Duration("staleWindow", w.staleWindow))

	ticker := time.NewTicker(w.tickInterval)
	defer ticker.Stop()

	w.reapStaleClaims(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("claim reaper stopped")
			return
		case <-ticker.C:
			w.reapStaleClaims(ctx)
		}
	}
}

func (w *ClaimReaper) reapStaleClaims(ctx context.Context) {
	query := `
		UPDATE documents
		SET fields = (fields - 'generationClaim') || jsonb_build_object(
				'reportStatus', jsonb_build_object(
					'status', 'failed',
					'message', 'generation interrupted, claim released',
					'updatedAt', to_char(NOW() AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS"Z"'),
					'attempts', COALESCE((fields #>> '{reportStatus,attempts}')::int, 0)
				)
			),
			updated_at = NOW()
		WHERE doc_type = 'lead'
			AND fields->'generationClaim' IS NOT NULL
			AND fields->'generationClaim' != 'null'::jsonb
			AND (fields->'report' IS NULL OR fields->'report' = 'null'::jsonb)
			AND updated_at < NOW() - $1 * INTERVAL '1 second'
		RETURNING id
	`

	rows, err := w.db.QueryContext(ctx, query, int(w.staleWindow.Seconds()))
	if err != nil {
		w.logger.Error("stale claim sweep failed", zap.Error(err))
		return
	}
	defer rows.Close()

	var released int
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			w.logger.Error("scan reaped lead id", zap.Error(err))
			return
		}
		w.logger.Warn("released stale generation claim", zap.String("leadId", id))
		released++
	}
	if err := rows.Err(); err != nil {
		w.logger.Error("stale claim sweep iteration", zap.Error(err))
	}
	if released > 0 {
		w.logger.Info("stale claim sweep done", zap.Int("released", released))
	}
}
