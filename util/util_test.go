package util

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/bwise1/civic_reports/util/tracing"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusCode(t *testing.T) {
	testCases := []struct {
		status   string
		expected int
	}{
		{values.Success, http.StatusOK},
		{values.Created, http.StatusCreated},
		{values.BadRequestBody, http.StatusBadRequest},
		{values.NotAuthorised, http.StatusUnauthorized},
		{values.TokenExpired, http.StatusUnauthorized},
		{values.NotFound, http.StatusNotFound},
		{values.TooManyRequests, http.StatusTooManyRequests},
		{values.Unavailable, http.StatusServiceUnavailable},
		{values.Error, http.StatusInternalServerError},
		{values.SystemErr, http.StatusInternalServerError},
		{"", http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.status, func(t *testing.T) {
			assert.Equal(t, tc.expected, StatusCode(tc.status))
		})
	}
}

func TestDecodeJSONBody(t *testing.T) {
	tc := &tracing.Context{RequestID: "req-1"}

	var target struct {
		ReportID string `json:"reportId"`
	}
	body := io.NopCloser(strings.NewReader(`{"reportId":"abc"}`))
	require.NoError(t, DecodeJSONBody(tc, body, &target))
	assert.Equal(t, "abc", target.ReportID)

	err := DecodeJSONBody(tc, io.NopCloser(strings.NewReader(`{"reportId":`)), &target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "req-1")

	require.Error(t, DecodeJSONBody(tc, nil, &target))
}

func TestGetUserIDFromContext(t *testing.T) {
	_, err := GetUserIDFromContext(context.Background())
	require.Error(t, err)

	_, err = GetUserIDFromContext(WithUserID(context.Background(), uuid.Nil))
	require.Error(t, err)

	id := uuid.New()
	got, err := GetUserIDFromContext(WithUserID(context.Background(), id))
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

type coordinates struct {
	Title     string   `json:"title" validate:"required,notblank,max=10"`
	Latitude  *float64 `json:"latitude" validate:"required,latitude"`
	Longitude *float64 `json:"longitude" validate:"required,longitude"`
}

func ptr(f float64) *float64 { return &f }

func TestValidateStruct(t *testing.T) {
	valid := coordinates{Title: "pothole", Latitude: ptr(0), Longitude: ptr(-180)}
	require.NoError(t, ValidateStruct(valid))

	testCases := []struct {
		name    string
		input   coordinates
		message string
	}{
		{"latitude out of range", coordinates{Title: "x", Latitude: ptr(90.5), Longitude: ptr(0)}, "latitude must be between -90 and 90"},
		{"longitude out of range", coordinates{Title: "x", Latitude: ptr(0), Longitude: ptr(181)}, "longitude must be between -180 and 180"},
		{"missing latitude", coordinates{Title: "x", Longitude: ptr(0)}, "latitude is required"},
		{"blank title", coordinates{Title: "   ", Latitude: ptr(0), Longitude: ptr(0)}, "title is required"},
		{"long title", coordinates{Title: "a very long title", Latitude: ptr(0), Longitude: ptr(0)}, "title must be at most 10 characters"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateStruct(tc.input)
			require.Error(t, err)
			assert.Contains(t, ValidationMessage(err), tc.message)
		})
	}
}

func TestQueryInt(t *testing.T) {
	q := url.Values{"page": {"3"}, "pageSize": {"abc"}, "neg": {"-2"}}
	assert.Equal(t, 3, QueryInt(q, "page", 1))
	assert.Equal(t, 50, QueryInt(q, "pageSize", 50))
	assert.Equal(t, 1, QueryInt(q, "neg", 1))
	assert.Equal(t, 7, QueryInt(q, "missing", 7))
}

func TestIsImageContentType(t *testing.T) {
	assert.True(t, IsImageContentType("image/jpeg"))
	assert.True(t, IsImageContentType("image/png; charset=binary"))
	assert.False(t, IsImageContentType("application/pdf"))
	assert.False(t, IsImageContentType("text/plain; charset=utf-8"))
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://res.cloudinary.com/demo/image/upload/a.jpg"))
	assert.False(t, IsURL("not a url"))
	assert.False(t, IsURL("/relative/path"))
}
