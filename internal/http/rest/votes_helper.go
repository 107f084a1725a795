package rest

import (
	"context"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/bwise1/civic_reports/util/websockets"
	"github.com/google/uuid"
)

func (api *API) ToggleVoteHelper(ctx context.Context, userID, reportID uuid.UUID) (model.ToggleVoteResponse, string, string, error) {
	dbCtx, cancel := api.storeContext(ctx)
	defer cancel()

	result, err := api.ToggleVoteRepo(dbCtx, userID, reportID)
	if err != nil {
		status := storeStatus(err)
		if status == values.NotFound {
			api.Deps.Metrics.VoteToggles.WithLabelValues("not_found").Inc()
			return model.ToggleVoteResponse{}, status, "Report not found", err
		}
		api.Deps.Metrics.VoteToggles.WithLabelValues("error").Inc()
		return model.ToggleVoteResponse{}, status, "Failed to toggle vote", err
	}

	outcome := "unvoted"
	if result.Voted {
		outcome = "voted"
	}
	api.Deps.Metrics.VoteToggles.WithLabelValues(outcome).Inc()

	api.invalidateFeed(ctx)
	api.Deps.WebSocket.Publish(websockets.Event{
		Type:      websockets.MsgTypeVoteChanged,
		ReportID:  reportID,
		City:      result.City,
		VoteCount: result.VoteCount,
	})

	return result.ToggleVoteResponse, values.Success, "Vote toggled successfully", nil
}

func (api *API) VoteStatusHelper(ctx context.Context, userID, reportID uuid.UUID) (model.VoteStatusResponse, string, string, error) {
	dbCtx, cancel := api.storeContext(ctx)
	defer cancel()

	voted, err := api.HasVotedRepo(dbCtx, userID, reportID)
	if err != nil {
		return model.VoteStatusResponse{}, storeStatus(err), "Failed to fetch vote status", err
	}
	return model.VoteStatusResponse{Voted: voted}, values.Success, "Vote status fetched successfully", nil
}
