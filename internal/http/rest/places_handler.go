package rest

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bwise1/civic_reports/internal/model"
	stadiamaps "github.com/bwise1/civic_reports/internal/http/stadia_maps"
	"github.com/bwise1/civic_reports/util"
	"github.com/bwise1/civic_reports/util/tracing"
	"github.com/bwise1/civic_reports/util/values"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const geocodeTimeout = 5 * time.Second

func (api *API) GeocodeRoutes() chi.Router {
	mux := chi.NewRouter()

	// Query Params: ?lat=...&lng=...
	mux.Method(http.MethodGet, "/reverse", Handler(api.ReverseGeocodeHandler))

	return mux
}

// ReverseGeocodeHandler resolves the city for a coordinate. Lookup failures
// are not surfaced; the caller receives the unknown-city placeholder.
func (api *API) ReverseGeocodeHandler(_ http.ResponseWriter, r *http.Request) *ServerResponse {
	tc := r.Context().Value(values.ContextTracingKey).(tracing.Context)

	queryParams := r.URL.Query()
	lat, err := strconv.ParseFloat(queryParams.Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		return respondWithError(errors.Errorf("invalid lat %q", queryParams.Get("lat")), "lat must be a number between -90 and 90", values.BadRequestBody, &tc)
	}
	lng, err := strconv.ParseFloat(queryParams.Get("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		return respondWithError(errors.Errorf("invalid lng %q", queryParams.Get("lng")), "lng must be a number between -180 and 180", values.BadRequestBody, &tc)
	}

	ctx, cancel := context.WithTimeout(r.Context(), geocodeTimeout)
	defer cancel()

	city, err := api.Deps.Geocoder.CityForPoint(ctx, lat, lng)
	if err != nil {
		api.Deps.Logger.Warn("reverse geocoding failed", append(tc.Fields(), zap.Error(err))...)
		city = stadiamaps.UnknownCity
	}

	return &ServerResponse{
		Message:    "City resolved",
		Status:     values.Success,
		StatusCode: util.StatusCode(values.Success),
		Data:       model.ReverseGeocodeResponse{City: city},
	}
}
