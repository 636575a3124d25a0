// Package mapbox talks to the Mapbox Optimization API (optimized-trips v1).
package mapbox

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/routeoptima/route-optima/internal/core/domain/route"
)

const (
	defaultTimeout    = 5 * time.Second
	defaultGeometries = "geojson"

	// maxBodyBytes bounds how much of an upstream response is read.
	maxBodyBytes = 10 << 20

	httpMaxIdleConns    = 10
	httpIdleConnTimeout = 30 * time.Second
)

// ClientConfig holds the upstream endpoint and credential.
type ClientConfig struct {
	// BaseURL is the profile endpoint, e.g. https://api.mapbox.com/optimized-trips/v1/mapbox/driving
	BaseURL     string
	AccessToken string
	Geometries  string
	Timeout     time.Duration
}

// Client implements ports.RouteProvider.
type Client struct {
	base        *url.URL
	accessToken string
	geometries  string
	httpClient  *http.Client
	logger      *logrus.Logger
}

// NewClient validates cfg and builds a client with a bounded timeout.
func NewClient(cfg *ClientConfig, logger *logrus.Logger) (*Client, error) {
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("mapbox: access token is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("mapbox: invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("mapbox: base URL %q must be absolute", cfg.BaseURL)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	geometries := cfg.Geometries
	if geometries == "" {
		geometries = defaultGeometries
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        httpMaxIdleConns,
		MaxIdleConnsPerHost: httpMaxIdleConns,
		IdleConnTimeout:     httpIdleConnTimeout,
	}
	return &Client{
		base:        base,
		accessToken: cfg.AccessToken,
		geometries:  geometries,
		httpClient:  &http.Client{Timeout: timeout, Transport: transport},
		logger:      logger,
	}, nil
}

// RequestURL builds <base>/<coordinates>?access_token=..&geometries=..
// The coordinate string is embedded as-is; ';' and ',' stay unescaped.
func (c *Client) RequestURL(coordinates route.Coordinates) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + string(coordinates)
	u.RawPath = ""
	q := u.Query()
	q.Set("geometries", c.geometries)
	q.Set("access_token", c.accessToken)
	u.RawQuery = q.Encode()
	return u.String()
}

// Fetch performs one GET, without retry. Whatever JSON object the provider
// answers with is returned, including error payloads such as
// {"code":"NoTrips"}; only transport failures and undecodable bodies are errors.
func (c *Client) Fetch(ctx context.Context, coordinates route.Coordinates) (route.Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RequestURL(coordinates), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", route.ErrUpstream, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full URL, token included.
		return nil, fmt.Errorf("%w: %s", route.ErrUpstream, c.redact(err.Error()))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response (status %d): %v", route.ErrUpstream, resp.StatusCode, err)
	}

	result, err := route.Decode(body)
	if err != nil {
		return nil, fmt.Errorf("%w: decode response (status %d): %v", route.ErrUpstream, resp.StatusCode, err)
	}

	if c.logger != nil && resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"status":      resp.StatusCode,
			"code":        result.Code(),
			"coordinates": string(coordinates),
		}).Warn("route provider answered with a non-200 status")
	}
	return result, nil
}

func (c *Client) redact(s string) string {
	return strings.ReplaceAll(s, c.accessToken, "REDACTED")
}
