package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmdatafocus/vehicle_sales_backend/config"
	"golang.org/x/time/rate"
)

// Coordinates is one resolved latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Client talks to a Nominatim-style geocoding endpoint. The service is
// treated as unreliable and rate limited; every request passes through the
// limiter before going on the wire.
type Client struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient returns nil when no API key is configured; the enricher treats a
// nil client as "enrichment disabled".
func NewClient(cfg config.GeocoderConfig) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 10
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		apiKeyHdr: cfg.APIKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(rate.Limit(perSec), perSec),
	}
}

type geocodeResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Lookup resolves a free-text address to its best-match coordinates. The
// second return value is false when the service has no match.
func (c *Client) Lookup(ctx context.Context, address string) (Coordinates, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Coordinates{}, false, err
	}

	params := url.Values{}
	params.Set("q", address)
	params.Set("format", "json")
	params.Set("limit", "1")

	endpoint := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Coordinates{}, false, err
	}
	req.Header.Set(c.apiKeyHdr, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Coordinates{}, false, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Coordinates{}, false, fmt.Errorf("geocode api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []geocodeResult
	if err := json.Unmarshal(body, &results); err != nil {
		return Coordinates{}, false, err
	}
	if len(results) == 0 {
		return Coordinates{}, false, nil
	}

	lat, latErr := strconv.ParseFloat(results[0].Lat, 64)
	lon, lonErr := strconv.ParseFloat(results[0].Lon, 64)
	if latErr != nil || lonErr != nil {
		return Coordinates{}, false, fmt.Errorf("geocode api returned malformed coordinates for %q", address)
	}
	return Coordinates{Latitude: lat, Longitude: lon}, true, nil
}
