package rest

import (
	"context"
	"fmt"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

var ErrReportNotFound = errors.New("report not found")

const reportColumns = `id, user_id, title, description, image_url, latitude, longitude, city, vote_count, created_at`

func scanReport(row pgx.Row, report *model.Report) error {
	return row.Scan(
		&report.ID, &report.UserID, &report.Title, &report.Description, &report.ImageURL,
		&report.Latitude, &report.Longitude, &report.City, &report.VoteCount, &report.CreatedAt,
	)
}

// CreateReportRepo inserts a report and returns the stored row. vote_count
// starts at its column default of 0.
func (api *API) CreateReportRepo(ctx context.Context, req model.CreateReportRequest) (model.Report, error) {
	query := `
        INSERT INTO reports (user_id, title, description, image_url, latitude, longitude, city)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING ` + reportColumns

	var report model.Report
	err := scanReport(api.Deps.DB.Pool().QueryRow(ctx, query,
		req.UserID, req.Title, req.Description, req.ImageURL, *req.Latitude, *req.Longitude, req.City,
	), &report)
	if err != nil {
		return model.Report{}, errors.Wrap(err, "insert report")
	}
	return report, nil
}

func (api *API) GetReportByIDRepo(ctx context.Context, id uuid.UUID) (model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	var report model.Report
	err := scanReport(api.Deps.DB.Pool().QueryRow(ctx, query, id), &report)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Report{}, ErrReportNotFound
	}
	if err != nil {
		return model.Report{}, errors.Wrap(err, "select report")
	}
	return report, nil
}

// ListReportsRepo returns one page of the feed. Ties are broken by id so that
// pages are stable.
func (api *API) ListReportsRepo(ctx context.Context, params model.ListReportsParams) ([]model.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports`
	args := []interface{}{}

	if params.City != "" {
		args = append(args, params.City)
		query += fmt.Sprintf(" WHERE city = $%d", len(args))
	}

	if params.SortBy == model.SortByVotes {
		query += " ORDER BY vote_count DESC, created_at DESC, id"
	} else {
		query += " ORDER BY created_at DESC, id"
	}

	args = append(args, params.PageSize, params.Offset())
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := api.Deps.DB.Pool().Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query reports")
	}
	defer rows.Close()

	reports := make([]model.Report, 0)
	for rows.Next() {
		var report model.Report
		if err := scanReport(rows, &report); err != nil {
			return nil, errors.Wrap(err, "scan report")
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate reports")
	}

	return reports, nil
}
