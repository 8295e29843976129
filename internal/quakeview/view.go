package quakeview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/observability"
)

// DefaultMarkerColor fills markers when no color is configured.
const DefaultMarkerColor = "#d7301f"

// ErrClosed is returned by operations on a closed View.
var ErrClosed = errors.New("view closed")

// Feed retrieves the events for a filter.
type Feed interface {
	FetchEvents(ctx context.Context, f domain.Filter) ([]domain.Event, error)
}

// Publisher receives every applied event collection.
type Publisher interface {
	Publish(ctx context.Context, f domain.Filter, fetchedAt time.Time, events []domain.Event) error
}

// Options configures a View. Zero values select defaults.
type Options struct {
	Filter      domain.Filter
	MarkerColor string
	Locator     domain.Locator
	Publisher   Publisher
	Clock       clockwork.Clock
	Logger      *slog.Logger
	Metrics     *observability.Metrics
}

// View holds the filter and the displayed event collection. Every filter
// change that alters a value starts exactly one fetch. Each fetch carries a
// generation number and its result is applied only while that generation is
// still the latest, so a slow response never overwrites a newer one.
type View struct {
	feed      Feed
	color     string
	locator   domain.Locator
	publisher Publisher
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics

	mu          sync.Mutex
	filter      domain.Filter
	events      []domain.Event
	markers     []domain.Marker
	fetchedAt   time.Time
	generation  uint64 // latest requested fetch
	settled     uint64 // latest fetch that completed, applied or failed
	mounted     bool
	closed      bool
	ctx         context.Context
	cancel      context.CancelFunc
	subscribers map[chan struct{}]struct{}

	ready    atomic.Bool
	inflight sync.WaitGroup

	publishMu     sync.Mutex
	lastPublished uint64 // generation of the last collection handed to the publisher
}

// New creates an unmounted View. No fetch happens until Mount.
func New(feed Feed, opts Options) (*View, error) {
	if feed == nil {
		return nil, errors.New("quakeview: feed is required")
	}

	filter := opts.Filter
	if filter == (domain.Filter{}) {
		filter = domain.DefaultFilter()
	}
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("initial filter: %w", err)
	}

	v := &View{
		feed:        feed,
		color:       opts.MarkerColor,
		locator:     opts.Locator,
		publisher:   opts.Publisher,
		clock:       opts.Clock,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		filter:      filter,
		events:      []domain.Event{},
		markers:     []domain.Marker{},
		subscribers: make(map[chan struct{}]struct{}),
	}
	if v.color == "" {
		v.color = DefaultMarkerColor
	}
	if v.clock == nil {
		v.clock = clockwork.NewRealClock()
	}
	if v.logger == nil {
		v.logger = slog.Default()
	}
	if v.metrics == nil {
		v.metrics = observability.NewMetricsForTesting()
	}
	return v, nil
}

// Mount starts the initial fetch. Fetches run until ctx is done or Close is
// called. Mounting twice is a no-op.
func (v *View) Mount(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	if v.mounted {
		return nil
	}
	v.mounted = true
	v.ctx, v.cancel = context.WithCancel(ctx)
	v.logger.Info("view mounted", "feed", v.filter.FeedName())
	v.startFetchLocked()
	return nil
}

// Close stops applying fetch results, cancels in-flight requests and closes
// subscriber channels. Use Wait to block until the fetch goroutines exit.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return
	}
	v.closed = true
	if v.cancel != nil {
		v.cancel()
	}
	for ch := range v.subscribers {
		close(ch)
		delete(v.subscribers, ch)
	}
}

// Wait blocks until every started fetch has finished.
func (v *View) Wait() {
	v.inflight.Wait()
}

// SetMinMagnitude changes the minimum magnitude. It reports whether a fetch
// was started.
func (v *View) SetMinMagnitude(m domain.Magnitude) (bool, error) {
	return v.change(func(f domain.Filter) domain.Filter {
		f.MinMagnitude = m
		return f
	})
}

// SetWindow changes the time window. It reports whether a fetch was started.
func (v *View) SetWindow(w domain.Window) (bool, error) {
	return v.change(func(f domain.Filter) domain.Filter {
		f.Window = w
		return f
	})
}

// SetFilter replaces both values at once, starting at most one fetch.
func (v *View) SetFilter(next domain.Filter) (bool, error) {
	return v.change(func(domain.Filter) domain.Filter { return next })
}

func (v *View) change(fn func(domain.Filter) domain.Filter) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return false, ErrClosed
	}

	next := fn(v.filter)
	if err := next.Validate(); err != nil {
		return false, err
	}
	if next == v.filter {
		return false, nil
	}

	if next.MinMagnitude != v.filter.MinMagnitude {
		v.metrics.FilterChanges.WithLabelValues("min_magnitude").Inc()
	}
	if next.Window != v.filter.Window {
		v.metrics.FilterChanges.WithLabelValues("window").Inc()
	}
	v.logger.Info("filter changed", "from", v.filter.FeedName(), "to", next.FeedName())
	v.filter = next

	if !v.mounted {
		v.notifyLocked()
		return false, nil
	}
	v.startFetchLocked()
	return true, nil
}

// Filter returns the current filter.
func (v *View) Filter() domain.Filter {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filter
}

// Events returns a copy of the displayed event collection.
func (v *View) Events() []domain.Event {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.events)
}

// Snapshot is a consistent copy of the view state for rendering.
type Snapshot struct {
	Filter           domain.Filter   `json:"filter"`
	MagnitudeOptions []domain.Option `json:"magnitude_options"`
	WindowOptions    []domain.Option `json:"window_options"`
	Markers          []domain.Marker `json:"markers"`
	FetchedAt        time.Time       `json:"fetched_at"`
	Generation       uint64          `json:"generation"`
	Loading          bool            `json:"loading"`
}

// Snapshot returns the current state. Markers are shared with the view and
// must not be modified.
func (v *View) Snapshot() Snapshot {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Snapshot{
		Filter:           v.filter,
		MagnitudeOptions: domain.MagnitudeOptions(v.filter),
		WindowOptions:    domain.WindowOptions(v.filter),
		Markers:          v.markers,
		FetchedAt:        v.fetchedAt,
		Generation:       v.generation,
		Loading:          v.settled < v.generation,
	}
}

// Subscribe returns a channel that receives a value whenever the filter or
// the displayed collection changes. Notifications coalesce: a slow reader
// sees one pending value, never a backlog. The channel is closed by Close.
func (v *View) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	v.subscribers[ch] = struct{}{}
	v.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			v.mu.Lock()
			delete(v.subscribers, ch)
			v.mu.Unlock()
		})
	}
}

// CheckReadiness reports ready once a fetch has been applied.
func (v *View) CheckReadiness(_ context.Context) error {
	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()

	if closed {
		return ErrClosed
	}
	if !v.ready.Load() {
		return errors.New("no feed data loaded yet")
	}
	return nil
}

func (v *View) notifyLocked() {
	for ch := range v.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (v *View) startFetchLocked() {
	v.generation++
	gen := v.generation
	f := v.filter
	ctx := v.ctx

	v.inflight.Add(1)
	go v.fetch(ctx, gen, f)
	v.notifyLocked()
}

func (v *View) fetch(ctx context.Context, gen uint64, f domain.Filter) {
	defer v.inflight.Done()

	start := v.clock.Now()
	events, err := v.feed.FetchEvents(ctx, f)
	v.metrics.FeedFetchDuration.Observe(v.clock.Since(start).Seconds())
	if err == nil {
		err = checkEvents(events)
	}

	if err != nil {
		v.mu.Lock()
		closed := v.closed
		if gen == v.generation {
			v.settled = gen
			v.notifyLocked()
		}
		v.mu.Unlock()

		v.metrics.FeedFetches.WithLabelValues(observability.OutcomeError).Inc()
		if closed {
			v.logger.Debug("feed fetch ended after close", "error", err, "feed", f.FeedName(), "generation", gen)
			return
		}
		v.logger.Error("feed fetch failed", "error", err, "feed", f.FeedName(), "generation", gen)
		return
	}

	markers, renderErr := BuildMarkers(events, v.color, v.zoneFor)
	if renderErr != nil {
		v.logger.Warn("render popups failed", "error", renderErr, "feed", f.FeedName())
	}
	fetchedAt := v.clock.Now()

	v.mu.Lock()
	if v.closed || gen != v.generation {
		latest := v.generation
		v.mu.Unlock()
		v.metrics.FeedFetches.WithLabelValues(observability.OutcomeStale).Inc()
		v.logger.Debug("discarding stale feed response", "feed", f.FeedName(), "generation", gen, "latest", latest)
		return
	}
	v.events = events
	v.markers = markers
	v.fetchedAt = fetchedAt
	v.settled = gen
	v.metrics.EventsDisplayed.Set(float64(len(events)))
	v.notifyLocked()
	v.mu.Unlock()

	v.ready.Store(true)
	v.metrics.FeedFetches.WithLabelValues(observability.OutcomeSuccess).Inc()
	v.logger.Info("feed applied", "feed", f.FeedName(), "events", len(events), "generation", gen)

	v.publish(ctx, gen, f, fetchedAt, events)
}

// publish hands an applied collection to the publisher. Publishes are
// serialized and a collection older than one already published is skipped,
// so the topic never ends on a superseded collection.
func (v *View) publish(ctx context.Context, gen uint64, f domain.Filter, fetchedAt time.Time, events []domain.Event) {
	if v.publisher == nil {
		return
	}

	v.publishMu.Lock()
	defer v.publishMu.Unlock()

	if gen <= v.lastPublished {
		v.logger.Debug("skipping superseded publish", "feed", f.FeedName(), "generation", gen, "published", v.lastPublished)
		return
	}
	v.lastPublished = gen

	if err := v.publisher.Publish(ctx, f, fetchedAt, events); err != nil {
		v.metrics.PublishErrors.Inc()
		v.logger.Error("publish events failed", "error", err, "feed", f.FeedName(), "generation", gen)
	}
}

// checkEvents rejects a collection containing an event that cannot be drawn.
func checkEvents(events []domain.Event) error {
	for _, e := range events {
		if err := domain.CheckMagnitude(e.Magnitude); err != nil {
			return fmt.Errorf("event %s: %w", e.ID, err)
		}
	}
	return nil
}

// BuildMarkers shapes one marker per event, attaching a popup to events that
// have a place name. zone may be nil; otherwise it supplies the local-time
// zone for each popup. Render failures leave PopupHTML empty and are joined
// into the returned error, one per event.
func BuildMarkers(events []domain.Event, color string, zone func(domain.Event) *time.Location) ([]domain.Marker, error) {
	markers := make([]domain.Marker, 0, len(events))
	var errs []error
	for _, e := range events {
		m := domain.NewMarker(e, color)
		var loc *time.Location
		if zone != nil {
			loc = zone(e)
		}
		if p, ok := domain.BuildPopup(e, loc); ok {
			html, err := domain.RenderPopupHTML(p)
			if err != nil {
				errs = append(errs, fmt.Errorf("event %s: %w", e.ID, err))
			}
			m.Popup = &p
			m.PopupHTML = html
		}
		markers = append(markers, m)
	}
	return markers, errors.Join(errs...)
}

func (v *View) zoneFor(e domain.Event) *time.Location {
	if v.locator == nil || e.Time.IsZero() || !e.HasPlace() {
		return nil
	}
	loc, err := v.locator.Locate(e.Coordinates.Latitude, e.Coordinates.Longitude)
	if err != nil {
		v.logger.Debug("timezone lookup failed", "error", err, "event", e.ID)
		return nil
	}
	return loc
}
