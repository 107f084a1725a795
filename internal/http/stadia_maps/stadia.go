package stadiamaps

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/pkg/errors"
)

const (
	defaultStadiaBaseURL = "https://api.stadiamaps.com"

	// UnknownCity is reported when no city can be resolved for a point.
	UnknownCity = "Unknown City"
)

// cityLayers are tried in order when picking a city name from a feature.
var cityLayers = []string{"locality", "localadmin", "county"}

type Client struct {
	BaseURL    *url.URL
	APIKey     string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	baseURL, _ := url.Parse(defaultStadiaBaseURL)
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				TLSHandshakeTimeout: 5 * time.Second,
			},
		},
	}
}

type GeocodeQuery struct {
	PointLat *float64 `url:"point.lat,omitempty"`
	PointLon *float64 `url:"point.lon,omitempty"`
	Size     *int     `url:"size,omitempty"`
	Layers   []string `url:"layers,omitempty,comma"`
}

type GeoJSONFeatureCollection struct {
	Type     string `json:"type"`
	Features []struct {
		Type     string `json:"type"`
		Geometry *struct {
			Type        string    `json:"type"`
			Coordinates []float64 `json:"coordinates"` // [lon, lat]
		} `json:"geometry"`
		Properties map[string]interface{} `json:"properties"`
	} `json:"features"`
}

// buildURL constructs the API URL with query parameters.
func (c *Client) buildURL(endpoint string, queryParams interface{}) (string, error) {
	rel, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrap(err, "parse endpoint")
	}
	u := c.BaseURL.ResolveReference(rel)

	q := u.Query()
	q.Set("api_key", c.APIKey)

	if queryParams != nil {
		v, err := query.Values(queryParams)
		if err != nil {
			return "", errors.Wrap(err, "encode query parameters")
		}
		for k, vals := range v {
			for _, val := range vals {
				q.Add(k, val)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// ReverseGeocode performs reverse geocoding using v1 API.
// Endpoint: /geocoding/v1/reverse
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64, params *GeocodeQuery) (*GeoJSONFeatureCollection, error) {
	if params == nil {
		params = &GeocodeQuery{}
	}
	params.PointLat = &lat
	params.PointLon = &lon

	reqURL, err := c.buildURL("/geocoding/v1/reverse", params)
	if err != nil {
		return nil, errors.Wrap(err, "build reverse geocode URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create reverse geocode request")
	}

	var result GeoJSONFeatureCollection
	if err := c.do(req, &result); err != nil {
		return nil, errors.Wrap(err, "execute reverse geocode request")
	}
	return &result, nil
}

// CityForPoint resolves the city containing a coordinate. It returns
// UnknownCity together with the lookup error when the service is unavailable,
// and UnknownCity with a nil error when nothing matched.
func (c *Client) CityForPoint(ctx context.Context, lat, lon float64) (string, error) {
	size := 1
	result, err := c.ReverseGeocode(ctx, lat, lon, &GeocodeQuery{Size: &size})
	if err != nil {
		return UnknownCity, err
	}

	for _, feature := range result.Features {
		for _, layer := range cityLayers {
			if name, ok := feature.Properties[layer].(string); ok && name != "" {
				return name, nil
			}
		}
	}
	return UnknownCity, nil
}

// do executes HTTP requests and decodes JSON responses.
func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "execute HTTP request")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return errors.Wrap(err, "decode response")
		}
	}
	return nil
}
