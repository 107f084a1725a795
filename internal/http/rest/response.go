package rest

import (
	"encoding/json"
	"net/http"

	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/tracing"
	"go.uber.org/zap"
)

type ServerResponse struct {
	Err        error
	Message    string
	Status     string
	StatusCode int
	Data       interface{}
}

type errorBody struct {
	Error string `json:"error"`
}

func respondWithError(err error, message, status string, tc *tracing.Context) *ServerResponse {
	code := util.StatusCode(status)
	logFailure(err, message, code, tc)

	return &ServerResponse{
		Err:        err,
		Message:    message,
		Status:     status,
		StatusCode: code,
	}
}

func logFailure(err error, message string, code int, tc *tracing.Context) {
	fields := append(tc.Fields(), zap.Int("status_code", code), zap.Error(err))
	if code >= http.StatusInternalServerError {
		zap.L().Error(message, fields...)
		return
	}
	zap.L().Info(message, fields...)
}

func writeErrorResponse(w http.ResponseWriter, err error, status, message string) {
	code := util.StatusCode(status)
	tc := tracing.Context{}
	logFailure(err, message, code, &tc)

	body, _ := json.Marshal(errorBody{Error: message})
	writeJSONResponse(w, body, code)
}

func writeJSONResponse(w http.ResponseWriter, body []byte, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
