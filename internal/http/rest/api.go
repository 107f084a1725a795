package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bwise1/civic_reports/config"
	deps "github.com/bwise1/civic_reports/internal/debs"
	"github.com/bwise1/civic_reports/util/tracing"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
)

const (
	defaultIdleTimeout    = time.Minute
	defaultReadTimeout    = 5 * time.Second
	defaultWriteTimeout   = 10 * time.Second
	defaultShutdownPeriod = 30 * time.Second
	defaultStoreTimeout   = 3 * time.Second
)

// Handler adapts a function returning a *ServerResponse to http.Handler.
// Successful responses are written as their Data payload, failures as
// {"error": message}.
type Handler func(w http.ResponseWriter, r *http.Request) *ServerResponse

func (h Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := h(w, r)
	if resp == nil {
		return
	}

	var body interface{} = resp.Data
	if resp.StatusCode >= http.StatusBadRequest {
		body = errorBody{Error: resp.Message}
	}

	respByte, err := json.Marshal(body)
	if err != nil {
		writeErrorResponse(w, err, values.Error, "unable to marshal server response")
		return
	}
	writeJSONResponse(w, respByte, resp.StatusCode)
}

type API struct {
	Server *http.Server
	Config *config.Config
	Deps   *deps.Dependencies
}

func (api *API) Serve() error {
	api.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", api.Config.Port),
		IdleTimeout:  defaultIdleTimeout,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		Handler:      api.setUpServerHandler(),
	}
	return api.Server.ListenAndServe()
}

func (api *API) setUpServerHandler() http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RealIP)
	mux.Use(middleware.Recoverer)
	mux.Use(RequestTracing)
	mux.Use(api.Instrument)

	mux.Method(http.MethodGet, "/health", Handler(api.Health))
	mux.Handle("/metrics", api.Deps.Metrics.Handler())
	mux.HandleFunc("/ws", api.Deps.WebSocket.HandleConnections)

	mux.Mount("/reports", api.ReportRoutes())
	mux.Mount("/votes", api.VoteRoutes())
	mux.Mount("/uploads", api.UploadRoutes())
	mux.Mount("/geocode", api.GeocodeRoutes())

	return mux
}

func (api *API) Shutdown() error {
	if api.Server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownPeriod)
	defer cancel()

	return api.Server.Shutdown(ctx)
}

func (api *API) Health(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	ctx, cancel := api.storeContext(r.Context())
	defer cancel()

	if err := api.Deps.DB.Ping(ctx); err != nil {
		tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)
		return respondWithError(err, "database unavailable", values.Unavailable, &tc)
	}
	return &ServerResponse{
		Message:    "ok",
		Status:     values.Success,
		StatusCode: http.StatusOK,
		Data:       map[string]string{"status": "ok"},
	}
}

// storeContext bounds a store call by the configured timeout.
func (api *API) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := api.Config.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// storeStatus classifies a repository error.
func storeStatus(err error) string {
	switch {
	case errors.Is(err, ErrReportNotFound):
		return values.NotFound
	case errors.Is(err, context.DeadlineExceeded), pgconn.Timeout(err):
		return values.Unavailable
	default:
		return values.Error
	}
}
