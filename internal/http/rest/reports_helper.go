package rest

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/cache"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/bwise1/civic_reports/util/websockets"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

func (api *API) CreateReportHelper(ctx context.Context, req model.CreateReportRequest) (model.Report, string, string, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.ImageURL = strings.TrimSpace(req.ImageURL)
	req.City = strings.TrimSpace(req.City)

	if err := util.ValidateStruct(req); err != nil {
		return model.Report{}, values.BadRequestBody, util.ValidationMessage(err), err
	}

	dbCtx, cancel := api.storeContext(ctx)
	defer cancel()

	report, err := api.CreateReportRepo(dbCtx, req)
	if err != nil {
		return model.Report{}, storeStatus(err), "Failed to create report", err
	}

	api.Deps.Metrics.ReportsCreated.Inc()
	api.invalidateFeed(ctx)
	api.Deps.WebSocket.Publish(websockets.Event{
		Type:      websockets.MsgTypeReportCreated,
		ReportID:  report.ID,
		City:      report.City,
		VoteCount: report.VoteCount,
	})

	return report, values.Created, "Report created successfully", nil
}

func (api *API) GetReportByIDHelper(ctx context.Context, id uuid.UUID) (model.Report, string, string, error) {
	dbCtx, cancel := api.storeContext(ctx)
	defer cancel()

	report, err := api.GetReportByIDRepo(dbCtx, id)
	if err != nil {
		status := storeStatus(err)
		if status == values.NotFound {
			return model.Report{}, status, "Report not found", err
		}
		return model.Report{}, status, "Failed to fetch report", err
	}
	return report, values.Success, "Report fetched successfully", nil
}

// ListReportsHelper serves a feed page from the cache when possible. Cache
// failures are logged and the store is queried directly.
func (api *API) ListReportsHelper(ctx context.Context, params model.ListReportsParams) ([]model.Report, string, string, error) {
	query := cache.FeedQuery{
		SortBy:   params.SortBy,
		City:     params.City,
		Page:     params.Page,
		PageSize: params.PageSize,
	}

	generation, payload, hit, cacheErr := api.Deps.Cache.Lookup(ctx, query)
	switch {
	case cacheErr != nil:
		api.Deps.Metrics.FeedCache.WithLabelValues("error").Inc()
		api.Deps.Logger.Warn("feed cache lookup failed", zap.Error(cacheErr))
	case hit:
		var reports []model.Report
		if err := json.Unmarshal(payload, &reports); err == nil && reports != nil {
			api.Deps.Metrics.FeedCache.WithLabelValues("hit").Inc()
			return reports, values.Success, "Reports fetched successfully", nil
		}
		api.Deps.Metrics.FeedCache.WithLabelValues("error").Inc()
	case api.Deps.Cache != nil:
		api.Deps.Metrics.FeedCache.WithLabelValues("miss").Inc()
	}

	dbCtx, cancel := api.storeContext(ctx)
	defer cancel()

	reports, err := api.ListReportsRepo(dbCtx, params)
	if err != nil {
		return nil, storeStatus(err), "Failed to fetch reports", err
	}

	if cacheErr == nil && api.Deps.Cache != nil {
		if payload, err := json.Marshal(reports); err == nil {
			if err := api.Deps.Cache.Store(ctx, generation, query, payload); err != nil {
				api.Deps.Logger.Warn("feed cache store failed", zap.Error(err))
			}
		}
	}

	return reports, values.Success, "Reports fetched successfully", nil
}

func (api *API) invalidateFeed(ctx context.Context) {
	if err := api.Deps.Cache.Invalidate(ctx); err != nil {
		api.Deps.Logger.Warn("feed cache invalidation failed", zap.Error(err))
	}
}
