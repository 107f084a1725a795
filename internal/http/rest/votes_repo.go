package rest

import (
	"context"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

const (
	lockReportQuery = `SELECT vote_count, city FROM reports WHERE id = $1 FOR UPDATE`
	voteExistsQuery = `SELECT EXISTS (SELECT 1 FROM votes WHERE user_id = $1 AND report_id = $2)`
	deleteVoteQuery = `DELETE FROM votes WHERE user_id = $1 AND report_id = $2`
	insertVoteQuery = `INSERT INTO votes (user_id, report_id) VALUES ($1, $2) ON CONFLICT (user_id, report_id) DO NOTHING`
	incrementQuery  = `SELECT increment_vote_count($1)`
	decrementQuery  = `SELECT decrement_vote_count($1)`

	driftedReportsQuery = `
        SELECT r.id
        FROM reports r
        LEFT JOIN votes v ON v.report_id = r.id
        GROUP BY r.id, r.vote_count
        HAVING r.vote_count <> COUNT(v.report_id)`
	countVotesQuery = `SELECT COUNT(*) FROM votes WHERE report_id = $1`
	setCountQuery   = `UPDATE reports SET vote_count = $2 WHERE id = $1`
)

type toggleResult struct {
	model.ToggleVoteResponse
	City string
}

func lockReport(ctx context.Context, tx pgx.Tx, reportID uuid.UUID) (int, string, error) {
	var (
		count int
		city  string
	)
	err := tx.QueryRow(ctx, lockReportQuery, reportID).Scan(&count, &city)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, "", ErrReportNotFound
	}
	if err != nil {
		return 0, "", errors.Wrap(err, "lock report")
	}
	return count, city, nil
}

// ToggleVoteRepo flips the caller's vote on a report. Membership and counter
// change together in one transaction that holds the report row lock, so
// toggles on the same report are serialized and a failure leaves both
// untouched.
func (api *API) ToggleVoteRepo(ctx context.Context, userID, reportID uuid.UUID) (toggleResult, error) {
	var result toggleResult

	err := api.Deps.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		count, city, err := lockReport(ctx, tx, reportID)
		if err != nil {
			return err
		}
		result.City = city
		result.VoteCount = count

		var exists bool
		if err := tx.QueryRow(ctx, voteExistsQuery, userID, reportID).Scan(&exists); err != nil {
			return errors.Wrap(err, "check vote")
		}

		if exists {
			tag, err := tx.Exec(ctx, deleteVoteQuery, userID, reportID)
			if err != nil {
				return errors.Wrap(err, "delete vote")
			}
			result.Voted = false
			if tag.RowsAffected() == 1 {
				if err := tx.QueryRow(ctx, decrementQuery, reportID).Scan(&result.VoteCount); err != nil {
					return errors.Wrap(err, "decrement vote count")
				}
			}
			return nil
		}

		tag, err := tx.Exec(ctx, insertVoteQuery, userID, reportID)
		if err != nil {
			return errors.Wrap(err, "insert vote")
		}
		result.Voted = true
		// zero rows means a concurrent toggle already inserted this vote
		if tag.RowsAffected() == 1 {
			if err := tx.QueryRow(ctx, incrementQuery, reportID).Scan(&result.VoteCount); err != nil {
				return errors.Wrap(err, "increment vote count")
			}
		}
		return nil
	})
	if err != nil {
		return toggleResult{}, err
	}

	return result, nil
}

func (api *API) HasVotedRepo(ctx context.Context, userID, reportID uuid.UUID) (bool, error) {
	var exists bool
	if err := api.Deps.DB.Pool().QueryRow(ctx, voteExistsQuery, userID, reportID).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "check vote")
	}
	return exists, nil
}

// DriftedReportIDsRepo lists reports whose stored counter disagrees with
// their vote rows.
func (api *API) DriftedReportIDsRepo(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := api.Deps.DB.Pool().Query(ctx, driftedReportsQuery)
	if err != nil {
		return nil, errors.Wrap(err, "query drifted reports")
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan drifted report")
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate drifted reports")
	}
	return ids, nil
}

// RecountVotesRepo recomputes one report's counter under its row lock. The
// returned bool reports whether the stored value was changed.
func (api *API) RecountVotesRepo(ctx context.Context, reportID uuid.UUID) (model.VoteCorrection, bool, error) {
	correction := model.VoteCorrection{ReportID: reportID}
	changed := false

	err := api.Deps.DB.RunInTx(ctx, func(tx pgx.Tx) error {
		stored, city, err := lockReport(ctx, tx, reportID)
		if err != nil {
			return err
		}
		correction.Stored = stored
		correction.City = city

		var actual int64
		if err := tx.QueryRow(ctx, countVotesQuery, reportID).Scan(&actual); err != nil {
			return errors.Wrap(err, "count votes")
		}
		correction.Actual = int(actual)

		if correction.Actual == stored {
			return nil
		}
		if _, err := tx.Exec(ctx, setCountQuery, reportID, correction.Actual); err != nil {
			return errors.Wrap(err, "correct vote count")
		}
		changed = true
		return nil
	})
	if err != nil {
		return model.VoteCorrection{}, false, err
	}

	return correction, changed, nil
}
