package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://earthquake.usgs.gov/earthquakes/feed/v1.0/summary", cfg.FeedBaseURL)
	assert.Equal(t, 30*time.Second, cfg.FeedTimeout)
	assert.Equal(t, domain.DefaultFilter(), cfg.DefaultFilter)
	assert.Equal(t, "#d7301f", cfg.MarkerColor)
	assert.True(t, cfg.TimezoneEnabled)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "earthquake-events", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FEED_BASE_URL", "http://feed.local/summary")
	t.Setenv("FEED_TIMEOUT", "5s")
	t.Setenv("DEFAULT_MIN_MAGNITUDE", "4.5")
	t.Setenv("DEFAULT_WINDOW", "month")
	t.Setenv("MARKER_COLOR", "#00f")
	t.Setenv("TIMEZONE_ENABLED", "false")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "quakes")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://feed.local/summary", cfg.FeedBaseURL)
	assert.Equal(t, 5*time.Second, cfg.FeedTimeout)
	assert.Equal(t, domain.Filter{MinMagnitude: domain.Magnitude4_5, Window: domain.WindowMonth}, cfg.DefaultFilter)
	assert.Equal(t, "#00f", cfg.MarkerColor)
	assert.False(t, cfg.TimezoneEnabled)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "quakes", cfg.KafkaTopic)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidFeedTimeout(t *testing.T) {
	for _, v := range []string{"bad", "0s", "-1s"} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("FEED_TIMEOUT", v)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "FEED_TIMEOUT")
		})
	}
}

func TestLoad_UnknownDefaultMagnitude(t *testing.T) {
	t.Setenv("DEFAULT_MIN_MAGNITUDE", "3.0")
	_, err := Load()
	require.ErrorIs(t, err, domain.ErrUnknownMagnitude)
	assert.Contains(t, err.Error(), "DEFAULT_MIN_MAGNITUDE")
}

func TestLoad_UnknownDefaultWindow(t *testing.T) {
	t.Setenv("DEFAULT_WINDOW", "year")
	_, err := Load()
	require.ErrorIs(t, err, domain.ErrUnknownWindow)
}

func TestLoad_UnsupportedDefaultFilter(t *testing.T) {
	t.Setenv("DEFAULT_MIN_MAGNITUDE", "1.0")
	t.Setenv("DEFAULT_WINDOW", "month")
	_, err := Load()
	require.ErrorIs(t, err, domain.ErrUnsupportedFilter)
}

func TestLoad_InvalidMarkerColor(t *testing.T) {
	t.Setenv("MARKER_COLOR", "red")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MARKER_COLOR")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " , ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_EmptyBrokersIgnoredWhenKafkaDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " , ")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.KafkaBrokers)
}

func TestDefaultMap(t *testing.T) {
	m := DefaultMap()

	require.NotEmpty(t, m.TileLayers)
	checked := 0
	for _, l := range m.TileLayers {
		assert.NotEmpty(t, l.Name)
		assert.NotEmpty(t, l.Attribution)
		assert.Contains(t, l.URL, "{z}")
		if l.Checked {
			checked++
		}
	}
	assert.Equal(t, 1, checked)

	assert.Equal(t, "events", m.OverlayName)
	assert.Equal(t, 0.0, m.Center.Lat())
	assert.Equal(t, 0.0, m.Center.Lon())
	assert.Equal(t, 3, m.Zoom)
	assert.Equal(t, 2, m.MinZoom)
	assert.Equal(t, -80.0, m.MaxBounds.Bottom())
	assert.Equal(t, 80.0, m.MaxBounds.Top())
	assert.Equal(t, -180.0, m.MaxBounds.Left())
	assert.Equal(t, 180.0, m.MaxBounds.Right())
	assert.Equal(t, 1.0, m.MaxBoundsViscosity)
}
