package rest

import (
	"math"
	"net/http"
	"strings"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/tracing"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/go-chi/chi/v5"
)

func (api *API) ReportRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Method(http.MethodGet, "/", Handler(api.ListReports))
	mux.Method(http.MethodGet, "/{reportID}", Handler(api.GetReportByID))

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodPost, "/", Handler(api.CreateReport))
	})

	return mux
}

// listParams reads the feed query string. An absent sortBy means votes and
// any other value means most recent first.
func listParams(r *http.Request) model.ListReportsParams {
	q := r.URL.Query()

	sortBy := q.Get("sortBy")
	if sortBy == "" {
		sortBy = model.SortByVotes
	} else if sortBy != model.SortByVotes {
		sortBy = model.SortByRecent
	}

	pageSize := util.QueryInt(q, "pageSize", model.DefaultPageSize)
	if pageSize > model.MaxPageSize {
		pageSize = model.MaxPageSize
	}

	// a page whose offset does not fit in an int is treated as invalid
	page := util.QueryInt(q, "page", 1)
	if page-1 > math.MaxInt/pageSize {
		page = 1
	}

	return model.ListReportsParams{
		SortBy:   sortBy,
		City:     strings.TrimSpace(q.Get("city")),
		Page:     page,
		PageSize: pageSize,
	}
}

func (api *API) ListReports(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	reports, status, message, err := api.ListReportsHelper(r.Context(), listParams(r))
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       model.ListReportsResponse{Reports: reports},
	}
}

func (api *API) GetReportByID(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	reportID, err := util.StringToUUID(chi.URLParam(r, "reportID"))
	if err != nil {
		return respondWithError(err, "invalid report ID", values.BadRequestBody, &tc)
	}

	report, status, message, err := api.GetReportByIDHelper(r.Context(), reportID)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       model.ReportResponse{Report: report},
	}
}

func (api *API) CreateReport(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	userID, err := util.GetUserIDFromContext(r.Context())
	if err != nil {
		return respondWithError(err, "unable to get user ID from context", values.NotAuthorised, &tc)
	}

	var req model.CreateReportRequest
	if decodeErr := util.DecodeJSONBody(&tc, r.Body, &req); decodeErr != nil {
		return respondWithError(decodeErr, "unable to decode request", values.BadRequestBody, &tc)
	}
	req.UserID = userID

	report, status, message, err := api.CreateReportHelper(r.Context(), req)
	if err != nil {
		return respondWithError(err, message, status, &tc)
	}

	return &ServerResponse{
		Message:    message,
		Status:     status,
		StatusCode: util.StatusCode(status),
		Data:       model.ReportResponse{Report: report},
	}
}
