package rest

import (
	"context"
	"time"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util/websockets"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// RunVoteReconciler periodically restores vote_count == count(votes) for
// every report until ctx is cancelled. A non-positive interval disables it.
func (api *API) RunVoteReconciler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		api.Deps.Logger.Info("vote reconciler disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := api.ReconcileVoteCounts(ctx); err != nil && ctx.Err() == nil {
				api.Deps.Logger.Error("vote reconciliation failed", zap.Error(err))
			}
		}
	}
}

// ReconcileVoteCounts corrects every drifted report and returns the
// corrections it applied.
func (api *API) ReconcileVoteCounts(ctx context.Context) ([]model.VoteCorrection, error) {
	dbCtx, cancel := api.storeContext(ctx)
	ids, err := api.DriftedReportIDsRepo(dbCtx)
	cancel()
	if err != nil {
		return nil, err
	}

	var corrections []model.VoteCorrection
	for _, id := range ids {
		dbCtx, cancel := api.storeContext(ctx)
		correction, changed, err := api.RecountVotesRepo(dbCtx, id)
		cancel()

		if errors.Is(err, ErrReportNotFound) {
			continue
		}
		if err != nil {
			return corrections, err
		}
		if !changed {
			continue
		}

		api.Deps.Metrics.VoteCorrections.Inc()
		api.Deps.Logger.Warn("vote count corrected",
			zap.Stringer("report_id", correction.ReportID),
			zap.Int("stored", correction.Stored),
			zap.Int("actual", correction.Actual),
		)
		api.Deps.WebSocket.Publish(websockets.Event{
			Type:      websockets.MsgTypeVoteChanged,
			ReportID:  correction.ReportID,
			City:      correction.City,
			VoteCount: correction.Actual,
		})
		corrections = append(corrections, correction)
	}

	if len(corrections) > 0 {
		api.invalidateFeed(ctx)
	}
	return corrections, nil
}
