package rest

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util/cache"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var reportColumnNames = []string{
	"id", "user_id", "title", "description", "image_url",
	"latitude", "longitude", "city", "vote_count", "created_at",
}

func reportRows(reports ...model.Report) *pgxmock.Rows {
	rows := pgxmock.NewRows(reportColumnNames)
	for _, r := range reports {
		rows.AddRow(r.ID, r.UserID, r.Title, r.Description, r.ImageURL,
			r.Latitude, r.Longitude, r.City, r.VoteCount, r.CreatedAt)
	}
	return rows
}

func sampleReport(city string, votes int) model.Report {
	return model.Report{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		Title:       "Pothole on Main St",
		Description: "Deep pothole in the left lane",
		ImageURL:    "https://res.cloudinary.com/demo/image/upload/reports/a.jpg",
		Latitude:    6.5244,
		Longitude:   3.3792,
		City:        city,
		VoteCount:   votes,
		CreatedAt:   time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func listReports(t *testing.T, api *API, target string) []model.Report {
	t.Helper()

	rec := serve(api, newRequest(t, http.MethodGet, target, nil, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp model.ListReportsResponse
	decodeBody(t, rec, &resp)
	return resp.Reports
}

func TestListReportsOrdering(t *testing.T) {
	tests := []struct {
		name   string
		target string
		order  string
	}{
		{name: "default is votes", target: "/reports", order: "ORDER BY vote_count DESC, created_at DESC, id"},
		{name: "votes", target: "/reports?sortBy=votes", order: "ORDER BY vote_count DESC, created_at DESC, id"},
		{name: "recent", target: "/reports?sortBy=recent", order: "ORDER BY created_at DESC, id"},
		{name: "unknown value is recent", target: "/reports?sortBy=oldest", order: "ORDER BY created_at DESC, id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, mock := newTestAPI(t)
			a, b := sampleReport("Lagos", 7), sampleReport("Abuja", 2)

			mock.ExpectQuery(regexp.QuoteMeta(tt.order)).
				WithArgs(model.DefaultPageSize, 0).
				WillReturnRows(reportRows(a, b))

			reports := listReports(t, api, tt.target)

			assert.Equal(t, []model.Report{a, b}, reports)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListReportsCityFilter(t *testing.T) {
	api, mock := newTestAPI(t)
	a := sampleReport("Lagos", 1)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE city = $1 ORDER BY vote_count DESC, created_at DESC, id LIMIT $2 OFFSET $3")).
		WithArgs("Lagos", model.DefaultPageSize, 0).
		WillReturnRows(reportRows(a))

	reports := listReports(t, api, "/reports?city=%20Lagos%20")

	assert.Equal(t, []model.Report{a}, reports)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReportsPagination(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		pageSize int
		offset   int
	}{
		{name: "explicit page", target: "/reports?page=3&pageSize=10", pageSize: 10, offset: 20},
		{name: "page size capped", target: "/reports?pageSize=1000", pageSize: model.MaxPageSize, offset: 0},
		{name: "invalid values fall back", target: "/reports?page=-1&pageSize=abc", pageSize: model.DefaultPageSize, offset: 0},
		{name: "page past int range falls back", target: "/reports?page=184467440737095518&pageSize=50", pageSize: 50, offset: 0},
		{name: "largest representable page", target: "/reports?page=184467440737095517&pageSize=50", pageSize: 50, offset: 184467440737095516 * 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, mock := newTestAPI(t)

			mock.ExpectQuery(regexp.QuoteMeta("LIMIT $1 OFFSET $2")).
				WithArgs(tt.pageSize, tt.offset).
				WillReturnRows(reportRows())

			listReports(t, api, tt.target)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestListReportsEmptyIsArray(t *testing.T) {
	api, mock := newTestAPI(t)

	mock.ExpectQuery("SELECT").WithArgs("Nowhere", model.DefaultPageSize, 0).WillReturnRows(reportRows())

	rec := serve(api, newRequest(t, http.MethodGet, "/reports?city=Nowhere", nil, ""))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"reports":[]}`, rec.Body.String())
}

func TestListReportsStoreFailure(t *testing.T) {
	api, mock := newTestAPI(t)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection refused"))

	rec := serve(api, newRequest(t, http.MethodGet, "/reports", nil, ""))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to fetch reports", errorMessage(t, rec))
}

func TestListReportsUsesFeedCache(t *testing.T) {
	api, mock := newTestAPI(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	api.Deps.Cache = cache.NewFeedCache(client, time.Minute)

	a := sampleReport("Lagos", 3)
	mock.ExpectQuery("SELECT").WithArgs(model.DefaultPageSize, 0).WillReturnRows(reportRows(a))

	first := listReports(t, api, "/reports")
	second := listReports(t, api, "/reports")

	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, float64(1), testutil.ToFloat64(api.Deps.Metrics.FeedCache.WithLabelValues("miss")))
	assert.Equal(t, float64(1), testutil.ToFloat64(api.Deps.Metrics.FeedCache.WithLabelValues("hit")))

	// a vote invalidates the cached page
	userID := uuid.New()
	expectVoteOn(mock, userID, a.ID, a.VoteCount)
	toggle(t, api, userID, a.ID)

	a.VoteCount++
	mock.ExpectQuery("SELECT").WithArgs(model.DefaultPageSize, 0).WillReturnRows(reportRows(a))

	third := listReports(t, api, "/reports")
	assert.Equal(t, []model.Report{a}, third)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListReportsCacheUnavailable(t *testing.T) {
	api, mock := newTestAPI(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	api.Deps.Cache = cache.NewFeedCache(client, time.Minute)
	mr.Close()

	a := sampleReport("Lagos", 3)
	mock.ExpectQuery("SELECT").WithArgs(model.DefaultPageSize, 0).WillReturnRows(reportRows(a))

	reports := listReports(t, api, "/reports")

	assert.Equal(t, []model.Report{a}, reports)
	assert.Equal(t, float64(1), testutil.ToFloat64(api.Deps.Metrics.FeedCache.WithLabelValues("error")))
}

func TestGetReportByID(t *testing.T) {
	api, mock := newTestAPI(t)
	a := sampleReport("Lagos", 3)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE id = $1")).
		WithArgs(a.ID).
		WillReturnRows(reportRows(a))

	rec := serve(api, newRequest(t, http.MethodGet, "/reports/"+a.ID.String(), nil, ""))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp model.ReportResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, a, resp.Report)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReportByIDNotFound(t *testing.T) {
	api, mock := newTestAPI(t)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE id = $1")).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	rec := serve(api, newRequest(t, http.MethodGet, "/reports/"+id.String(), nil, ""))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Report not found", errorMessage(t, rec))
}

func TestGetReportByIDInvalidID(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := serve(api, newRequest(t, http.MethodGet, "/reports/42", nil, ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func validReportBody() map[string]interface{} {
	return map[string]interface{}{
		"title":       "  Broken streetlight ",
		"description": "Dark since last week",
		"imageUrl":    "https://res.cloudinary.com/demo/image/upload/reports/b.jpg",
		"latitude":    9.0765,
		"longitude":   7.3986,
		"city":        "Abuja ",
	}
}

func TestCreateReport(t *testing.T) {
	api, mock := newTestAPI(t)
	userID := uuid.New()

	stored := model.Report{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       "Broken streetlight",
		Description: "Dark since last week",
		ImageURL:    "https://res.cloudinary.com/demo/image/upload/reports/b.jpg",
		Latitude:    9.0765,
		Longitude:   7.3986,
		City:        "Abuja",
		CreatedAt:   time.Date(2024, 5, 2, 8, 30, 0, 0, time.UTC),
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO reports")).
		WithArgs(userID, stored.Title, stored.Description, stored.ImageURL, stored.Latitude, stored.Longitude, stored.City).
		WillReturnRows(reportRows(stored))

	rec := serve(api, newRequest(t, http.MethodPost, "/reports", validReportBody(), tokenFor(t, userID)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp model.ReportResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, stored, resp.Report)
	assert.Equal(t, 0, resp.Report.VoteCount)
	assert.Equal(t, float64(1), testutil.ToFloat64(api.Deps.Metrics.ReportsCreated))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReportValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(body map[string]interface{})
		message string
	}{
		{name: "missing title", mutate: func(b map[string]interface{}) { delete(b, "title") }, message: "title is required"},
		{name: "blank city", mutate: func(b map[string]interface{}) { b["city"] = "   " }, message: "city is required"},
		{name: "image url not a url", mutate: func(b map[string]interface{}) { b["imageUrl"] = "not a url" }, message: "imageUrl must be a valid URL"},
		{name: "latitude out of range", mutate: func(b map[string]interface{}) { b["latitude"] = 91.0 }, message: "latitude must be between -90 and 90"},
		{name: "missing longitude", mutate: func(b map[string]interface{}) { delete(b, "longitude") }, message: "longitude is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, mock := newTestAPI(t)
			body := validReportBody()
			tt.mutate(body)

			rec := serve(api, newRequest(t, http.MethodPost, "/reports", body, tokenFor(t, uuid.New())))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.message, errorMessage(t, rec))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCreateReportRequiresLogin(t *testing.T) {
	api, mock := newTestAPI(t)

	rec := serve(api, newRequest(t, http.MethodPost, "/reports", validReportBody(), ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
