package rest

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwise1/civic_reports/util/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func uploadRequest(t *testing.T, field string, content []byte, token string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "photo.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestUploadImage(t *testing.T) {
	api, _ := newTestAPI(t)
	images := &stubImages{url: "https://res.cloudinary.com/demo/image/upload/reports/x.png"}
	api.Deps.Images = images

	rec := serve(api, uploadRequest(t, "file", pngHeader, tokenFor(t, uuid.New())))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"url":"https://res.cloudinary.com/demo/image/upload/reports/x.png"}`, rec.Body.String())
	assert.Equal(t, storage.ReportImagesFolder, images.folder)
	assert.Equal(t, pngHeader, images.body)
}

func TestUploadImageRejections(t *testing.T) {
	tests := []struct {
		name    string
		field   string
		content []byte
		code    int
	}{
		{name: "not an image", field: "file", content: []byte("hello, plain text"), code: http.StatusBadRequest},
		{name: "empty file", field: "file", content: nil, code: http.StatusBadRequest},
		{name: "wrong field", field: "photo", content: pngHeader, code: http.StatusBadRequest},
		{name: "too large", field: "file", content: append(append([]byte{}, pngHeader...), make([]byte, 2<<20)...), code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, _ := newTestAPI(t)
			images := &stubImages{url: "https://example.com/x.png"}
			api.Deps.Images = images

			rec := serve(api, uploadRequest(t, tt.field, tt.content, tokenFor(t, uuid.New())))

			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Empty(t, images.folder)
		})
	}
}

func TestUploadImageStorageFailure(t *testing.T) {
	api, _ := newTestAPI(t)
	api.Deps.Images = &stubImages{err: errors.New("cloudinary down")}

	rec := serve(api, uploadRequest(t, "file", pngHeader, tokenFor(t, uuid.New())))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Failed to upload image", errorMessage(t, rec))
}

func TestUploadImageNotConfigured(t *testing.T) {
	api, _ := newTestAPI(t)

	rec := serve(api, uploadRequest(t, "file", pngHeader, tokenFor(t, uuid.New())))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestUploadImageRequiresLogin(t *testing.T) {
	api, _ := newTestAPI(t)
	api.Deps.Images = &stubImages{}

	rec := serve(api, uploadRequest(t, "file", pngHeader, ""))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
