package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

type fakeWriter struct {
	msgs   []kafkago.Message
	calls  int
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testPublisher(w *fakeWriter) *Publisher {
	return &Publisher{writer: w, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func testEvent(id string) domain.Event {
	return domain.Event{
		ID:          id,
		Coordinates: domain.Coordinates{Longitude: -120.1, Latitude: 35.2, DepthKm: 8.3},
		Magnitude:   4.2,
		Place:       "10km N of Testville",
		Type:        "earthquake",
		URL:         "http://x",
	}
}

func TestSerializeToMessage(t *testing.T) {
	fetchedAt := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	msg, err := serializeToMessage(domain.DefaultFilter(), fetchedAt, testEvent("ci1"))
	require.NoError(t, err)

	assert.Equal(t, []byte("ci1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"place":"10km N of Testville"`)
	assert.Contains(t, string(msg.Value), `"depth_km":8.3`)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "min_magnitude", msg.Headers[0].Key)
	assert.Equal(t, []byte("2.5"), msg.Headers[0].Value)
	assert.Equal(t, "window", msg.Headers[1].Key)
	assert.Equal(t, []byte("week"), msg.Headers[1].Value)
	assert.Equal(t, "fetched_at", msg.Headers[2].Key)
	assert.Equal(t, []byte("2024-05-01T12:30:00Z"), msg.Headers[2].Value)
}

func TestPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := testPublisher(w)

	err := p.Publish(context.Background(), domain.DefaultFilter(), time.Now(), []domain.Event{testEvent("a"), testEvent("b")})
	require.NoError(t, err)

	assert.Equal(t, 1, w.calls)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, []byte("a"), w.msgs[0].Key)
	assert.Equal(t, []byte("b"), w.msgs[1].Key)
}

func TestPublisher_Publish_Empty(t *testing.T) {
	w := &fakeWriter{}

	require.NoError(t, testPublisher(w).Publish(context.Background(), domain.DefaultFilter(), time.Now(), nil))
	assert.Zero(t, w.calls)
}

func TestPublisher_Publish_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker unavailable")}

	err := testPublisher(w).Publish(context.Background(), domain.DefaultFilter(), time.Now(), []domain.Event{testEvent("a")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, testPublisher(w).Close())
	assert.True(t, w.closed)
}
