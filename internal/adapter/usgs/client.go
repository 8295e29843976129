package usgs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// DefaultBaseURL is the USGS summary feed directory.
const DefaultBaseURL = "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary"

// ErrMalformedFeed is returned when the feed body is not a usable
// FeatureCollection.
var ErrMalformedFeed = errors.New("malformed feed")

// Client fetches USGS GeoJSON summary feeds.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a feed client. An empty baseURL selects DefaultBaseURL
// and a nil logger selects slog.Default.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// FeedURL returns {base}/{minMagnitude}_{window}.geojson.
func (c *Client) FeedURL(f domain.Filter) string {
	return c.baseURL + "/" + f.FeedName() + ".geojson"
}

// FetchEvents retrieves the feed selected by f. The filter is not validated
// here; callers pass filters that already passed domain.Filter.Validate.
func (c *Client) FetchEvents(ctx context.Context, f domain.Filter) ([]domain.Event, error) {
	u := c.FeedURL(f)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("usgs feed error: status %d: %s", resp.StatusCode, body)
	}

	feed, err := DecodeFeed(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("feed fetched", "url", u, "events", len(feed.Events), "title", feed.Title)
	return feed.Events, nil
}
