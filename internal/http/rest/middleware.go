package rest

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/tracing"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/lucsky/cuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultRequestSource = "web"

// RequestTracing handles the request tracing context
func RequestTracing(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		requestSource := r.Header.Get(values.HeaderRequestSource)
		if requestSource == "" {
			requestSource = defaultRequestSource
		}

		requestID := r.Header.Get(values.HeaderRequestID)
		if requestID == "" {
			requestID = cuid.New()
		}
		w.Header().Set(values.HeaderRequestID, requestID)

		tracingContext := tracing.Context{
			RequestID:     requestID,
			RequestSource: requestSource,
		}

		ctx := context.WithValue(r.Context(), values.ContextTracingKey, tracingContext)
		next.ServeHTTP(w, r.WithContext(ctx))
	}

	return http.HandlerFunc(fn)
}

// Instrument logs every request and records its latency under the matched
// route pattern.
func (api *API) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		elapsed := time.Since(start)

		api.Deps.Metrics.RequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(status)).
			Observe(elapsed.Seconds())

		tc := tracing.FromContext(r.Context())
		api.Deps.Logger.Debug("request",
			append(tc.Fields(),
				zap.String("method", r.Method),
				zap.String("route", route),
				zap.Int("status", status),
				zap.Duration("duration", elapsed),
			)...,
		)
	})
}

// RequireLogin rejects requests without a valid bearer token and stores the
// caller's id on the request context.
func (api *API) RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authorization := strings.Split(r.Header.Get("Authorization"), " ")
		if len(authorization) != 2 || authorization[0] != "Bearer" {
			writeErrorResponse(w, errors.New(values.NotAuthorised), values.NotAuthorised, "Unauthorized")
			return
		}

		claims, err := api.verifyToken(authorization[1])
		if err != nil {
			if errors.Is(err, errTokenExpired) {
				writeErrorResponse(w, err, values.TokenExpired, "token expired")
				return
			}
			writeErrorResponse(w, err, values.NotAuthorised, "Unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(util.WithUserID(r.Context(), claims.UserID)))
	})
}

// LimitVotes applies the per-user vote rate limit. It must run after RequireLogin.
func (api *API) LimitVotes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := util.GetUserIDFromContext(r.Context())
		if err != nil {
			writeErrorResponse(w, err, values.NotAuthorised, "Unauthorized")
			return
		}

		if !api.Deps.VoteLimiter.Allow(userID.String()) {
			writeErrorResponse(w, errors.New("vote rate limit exceeded"), values.TooManyRequests, "too many vote requests, try again shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}
