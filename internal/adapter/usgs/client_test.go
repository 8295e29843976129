package usgs

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

const (
	contentTypeGeoJSON = "application/geo+json"
	headerContentType  = "Content-Type"
)

const testvilleFeed = `{
  "type": "FeatureCollection",
  "metadata": {"generated": 1714566600000, "title": "USGS Magnitude 2.5+ Earthquakes, Past Week", "count": 1},
  "features": [
    {
      "type": "Feature",
      "id": "ci40000001",
      "properties": {"mag": 4.2, "place": "10km N of Testville", "time": 1714566000000, "type": "earthquake", "url": "http://x"},
      "geometry": {"type": "Point", "coordinates": [-120.1, 35.2, 8.3]}
    }
  ]
}`

func testClient(baseURL string) *Client {
	return NewClient(baseURL, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestClient_FeedURL(t *testing.T) {
	tests := []struct {
		base   string
		filter domain.Filter
		want   string
	}{
		{"http://feed.local/summary", domain.DefaultFilter(), "http://feed.local/summary/2.5_week.geojson"},
		{"http://feed.local/summary/", domain.Filter{MinMagnitude: domain.MagnitudeAll, Window: domain.WindowHour}, "http://feed.local/summary/all_hour.geojson"},
		{"", domain.Filter{MinMagnitude: domain.MagnitudeSignificant, Window: domain.WindowMonth}, DefaultBaseURL + "/significant_month.geojson"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, testClient(tt.base).FeedURL(tt.filter))
		})
	}
}

func TestClient_FetchEvents_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/summary/2.5_week.geojson", r.URL.Path)
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set(headerContentType, contentTypeGeoJSON)
		_, _ = w.Write([]byte(testvilleFeed))
	}))
	defer srv.Close()

	events, err := testClient(srv.URL+"/summary").FetchEvents(context.Background(), domain.DefaultFilter())
	require.NoError(t, err)

	want := []domain.Event{{
		ID:          "ci40000001",
		Coordinates: domain.Coordinates{Longitude: -120.1, Latitude: 35.2, DepthKm: 8.3},
		Magnitude:   4.2,
		Place:       "10km N of Testville",
		Type:        "earthquake",
		URL:         "http://x",
		Time:        time.Date(2024, time.May, 1, 12, 20, 0, 0, time.UTC),
	}}
	if diff := cmp.Diff(want, events); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestClient_FetchEvents_EmptyFeatures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeGeoJSON)
		_, _ = w.Write([]byte(`{"type":"FeatureCollection","features":[]}`))
	}))
	defer srv.Close()

	events, err := testClient(srv.URL).FetchEvents(context.Background(), domain.DefaultFilter())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestClient_FetchEvents_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchEvents(context.Background(), domain.DefaultFilter())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "upstream unavailable")
}

func TestClient_FetchEvents_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"features": [`))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchEvents(context.Background(), domain.DefaultFilter())
	require.ErrorIs(t, err, ErrMalformedFeed)
}

func TestClient_FetchEvents_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 50*time.Millisecond, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := c.FetchEvents(context.Background(), domain.DefaultFilter())
	require.Error(t, err)
}

func TestClient_FetchEvents_ContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).FetchEvents(ctx, domain.DefaultFilter())
	require.ErrorIs(t, err, context.Canceled)
}

func TestDecodeFeed(t *testing.T) {
	feed, err := DecodeFeed(strings.NewReader(testvilleFeed))
	require.NoError(t, err)

	assert.Equal(t, "USGS Magnitude 2.5+ Earthquakes, Past Week", feed.Title)
	assert.Equal(t, 1, feed.Count)
	assert.Equal(t, time.Date(2024, time.May, 1, 12, 30, 0, 0, time.UTC), feed.Generated)
	require.Len(t, feed.Events, 1)
	assert.Equal(t, "10km N of Testville", feed.Events[0].Place)
}

func TestDecodeFeed_NullFields(t *testing.T) {
	body := `{"features":[{"id":"ak1","properties":{"mag":null,"place":null,"time":null,"type":"earthquake","url":""},"geometry":{"coordinates":[-150.5,61.2,-0.4]}}]}`

	feed, err := DecodeFeed(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, feed.Events, 1)

	e := feed.Events[0]
	assert.Equal(t, 0.0, e.Magnitude)
	assert.False(t, e.HasPlace())
	assert.True(t, e.Time.IsZero())
	assert.Equal(t, -0.4, e.Coordinates.DepthKm)
}

func TestDecodeFeed_MissingPlaceKey(t *testing.T) {
	body := `{"features":[{"id":"nc1","properties":{"mag":1.1,"type":"earthquake"},"geometry":{"coordinates":[-122.8,38.8,2.1]}}]}`

	feed, err := DecodeFeed(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, feed.Events, 1)
	assert.False(t, feed.Events[0].HasPlace())
}

func TestDecodeFeed_TwoCoordinates(t *testing.T) {
	body := `{"features":[{"id":"x","properties":{"mag":2.0},"geometry":{"coordinates":[10.0,20.0]}}]}`

	feed, err := DecodeFeed(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, domain.Coordinates{Longitude: 10, Latitude: 20}, feed.Events[0].Coordinates)
}

func TestDecodeFeed_Malformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>`},
		{"missing features", `{"type":"FeatureCollection"}`},
		{"null features", `{"features":null}`},
		{"one coordinate", `{"features":[{"id":"x","geometry":{"coordinates":[1.0]}}]}`},
		{"no geometry", `{"features":[{"id":"x","properties":{}}]}`},
		{"magnitude overflows radius", `{"features":[{"id":"x","properties":{"mag":1000},"geometry":{"coordinates":[1.0,2.0]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFeed(strings.NewReader(tt.body))
			require.ErrorIs(t, err, ErrMalformedFeed)
		})
	}
}

func TestClient_FetchEvents_RejectsOversizedMagnitude(t *testing.T) {
	body := strings.Replace(testvilleFeed, `"mag": 4.2`, `"mag": 1000`, 1)
	require.NotEqual(t, testvilleFeed, body)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeGeoJSON)
		_, _ = io.WriteString(w, body)
	}))
	defer srv.Close()

	events, err := testClient(srv.URL).FetchEvents(context.Background(), domain.DefaultFilter())
	require.ErrorIs(t, err, ErrMalformedFeed)
	assert.Nil(t, events)
	assert.Contains(t, err.Error(), "magnitude out of range")
}
