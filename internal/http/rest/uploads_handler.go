package rest

import (
	"io"
	"net/http"

	"github.com/bwise1/civic_reports/internal/model"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/storage"
	"github.com/bwise1/civic_reports/util/tracing"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
)

const (
	uploadFormField     = "file"
	uploadMemoryLimit   = 1 << 20
	contentSniffLength  = 512
	defaultMaxUploadLen = 10 << 20
)

func (api *API) UploadRoutes() chi.Router {
	mux := chi.NewRouter()

	mux.Group(func(r chi.Router) {
		r.Use(api.RequireLogin)
		r.Method(http.MethodPost, "/", Handler(api.UploadImage))
	})

	return mux
}

// UploadImage stores a report photo and returns its public URL. Only image
// content, detected from the file bytes, is accepted.
func (api *API) UploadImage(w http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	if api.Deps.Images == nil {
		return respondWithError(errors.New("image storage not configured"), "image uploads are not available", values.Unavailable, &tc)
	}

	limit := api.Config.MaxUploadSize
	if limit <= 0 {
		limit = defaultMaxUploadLen
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		return respondWithError(err, "upload must be a multipart form no larger than the size limit", values.BadRequestBody, &tc)
	}

	file, _, err := r.FormFile(uploadFormField)
	if err != nil {
		return respondWithError(err, "file is required", values.BadRequestBody, &tc)
	}
	defer file.Close()

	head := make([]byte, contentSniffLength)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return respondWithError(err, "unable to read upload", values.BadRequestBody, &tc)
	}
	if !util.IsImageContentType(http.DetectContentType(head[:n])) {
		return respondWithError(errors.New("unsupported content type"), "only image uploads are accepted", values.BadRequestBody, &tc)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return respondWithError(err, "unable to read upload", values.Error, &tc)
	}

	url, err := api.Deps.Images.UploadImage(r.Context(), file, storage.ReportImagesFolder)
	if err != nil {
		return respondWithError(err, "Failed to upload image", values.Error, &tc)
	}

	return &ServerResponse{
		Message:    "Image uploaded successfully",
		Status:     values.Created,
		StatusCode: util.StatusCode(values.Created),
		Data:       model.UploadResponse{URL: url},
	}
}
