package model

import (
	"time"

	"github.com/google/uuid"
)

type Vote struct {
	UserID    uuid.UUID `json:"user_id"`
	ReportID  uuid.UUID `json:"report_id"`
	CreatedAt time.Time `json:"created_at"`
}

type ToggleVoteRequest struct {
	ReportID string `json:"reportId" validate:"required,uuid"`
}

type ToggleVoteResponse struct {
	Voted     bool `json:"voted"`
	VoteCount int  `json:"vote_count"`
}

type VoteStatusResponse struct {
	Voted bool `json:"voted"`
}

// VoteCorrection records a report whose stored counter disagreed with its
// vote rows.
type VoteCorrection struct {
	ReportID uuid.UUID
	City     string
	Stored   int
	Actual   int
}
