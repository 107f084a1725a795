package model

import (
	"math"
	"time"

	"github.com/google/uuid"
)

const (
	SortByVotes  = "votes"
	SortByRecent = "recent"

	DefaultPageSize = 50
	MaxPageSize     = 200
)

type Report struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	City        string    `json:"city"`
	VoteCount   int       `json:"vote_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateReportRequest is the submission payload. Coordinates are pointers so
// that a missing value is distinguishable from 0.
type CreateReportRequest struct {
	UserID      uuid.UUID `json:"-"`
	Title       string    `json:"title" validate:"required,notblank,max=200"`
	Description string    `json:"description" validate:"required,notblank,max=5000"`
	ImageURL    string    `json:"imageUrl" validate:"required,url"`
	Latitude    *float64  `json:"latitude" validate:"required,latitude"`
	Longitude   *float64  `json:"longitude" validate:"required,longitude"`
	City        string    `json:"city" validate:"required,notblank,max=200"`
}

type ListReportsParams struct {
	SortBy   string
	City     string
	Page     int
	PageSize int
}

// Offset is the number of rows skipped for the requested page. Pages whose
// offset would overflow an int start from the first row.
func (p ListReportsParams) Offset() int {
	if p.Page < 1 || p.PageSize < 1 || p.Page-1 > math.MaxInt/p.PageSize {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

type ListReportsResponse struct {
	Reports []Report `json:"reports"`
}

type ReportResponse struct {
	Report Report `json:"report"`
}
