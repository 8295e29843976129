// Command feedcheck validates a USGS GeoJSON summary feed against what the
// map needs: the document shape, per-feature fields, marker sizing, popup
// shaping, and the GeoJSON overlay built from the markers.
//
// Usage:
//
//	go run ./cmd/feedcheck -file testdata/2.5_week.geojson
//	go run ./cmd/feedcheck -mag 4.5 -window day
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/quake-map-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-map-service/internal/config"
	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/quakeview"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	file := flag.String("file", "", "path to a saved GeoJSON summary feed")
	base := flag.String("base", usgs.DefaultBaseURL, "feed base URL used when -file is empty")
	mag := flag.String("mag", string(domain.Magnitude2_5), "minimum magnitude: all, 1.0, 2.5, 4.5, significant")
	window := flag.String("window", string(domain.WindowWeek), "time window: hour, day, week, month")
	timeout := flag.Duration("timeout", 30*time.Second, "feed request timeout")
	flag.Parse()

	feed, source, err := load(*file, *base, *mag, *window, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	if code := run(os.Stdout, source, feed); code != 0 {
		os.Exit(code)
	}
}

func load(file, base, mag, window string, timeout time.Duration) (usgs.Feed, string, error) {
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return usgs.Feed{}, "", err
		}
		defer f.Close()
		feed, err := usgs.DecodeFeed(f)
		return feed, file, err
	}

	m, err := domain.ParseMagnitude(mag)
	if err != nil {
		return usgs.Feed{}, "", err
	}
	w, err := domain.ParseWindow(window)
	if err != nil {
		return usgs.Feed{}, "", err
	}
	filter := domain.Filter{MinMagnitude: m, Window: w}
	if err := filter.Validate(); err != nil {
		return usgs.Feed{}, "", err
	}

	client := usgs.NewClient(base, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
	events, err := client.FetchEvents(context.Background(), filter)
	if err != nil {
		return usgs.Feed{}, "", err
	}
	return usgs.Feed{Count: len(events), Events: events}, client.FeedURL(filter), nil
}

func run(out io.Writer, source string, feed usgs.Feed) int {
	fmt.Fprintln(out, "=== USGS Feed Validation ===")
	fmt.Fprintf(out, "Source: %s\n", source)
	if feed.Title != "" {
		fmt.Fprintf(out, "Title:  %s\n", feed.Title)
	}

	mapCfg := config.DefaultMap()
	markers, renderErr := quakeview.BuildMarkers(feed.Events, quakeview.DefaultMarkerColor, nil)

	phases := []*phase{
		validateDocument(feed),
		validateFeatures(feed.Events),
		validateMarkers(feed.Events, markers, mapCfg),
		validatePopups(feed.Events, markers, renderErr),
		validateOverlay(markers),
	}

	fmt.Fprintln(out)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "Events: %d, with popup: %d\n", len(feed.Events), countPopups(markers))

	for _, p := range phases {
		for _, n := range p.notes {
			fmt.Fprintf(out, "  Note (%s): %s\n", p.name, n)
		}
	}

	// Print detailed errors.
	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

func countPopups(markers []domain.Marker) int {
	n := 0
	for _, m := range markers {
		if m.Popup != nil {
			n++
		}
	}
	return n
}

// ── Phases ──

func validateDocument(feed usgs.Feed) *phase {
	p := &phase{name: "Document shape"}
	if feed.Count > 0 && feed.Count != len(feed.Events) {
		p.errorf("metadata.count=%d but %d features decoded", feed.Count, len(feed.Events))
	}
	if !feed.Generated.IsZero() {
		p.notef("generated %s", feed.Generated.Format(time.RFC3339))
	}
	return p
}

func validateFeatures(events []domain.Event) *phase {
	p := &phase{name: "Feature fields"}
	seen := make(map[string]int, len(events))
	noPlace := 0

	for i, e := range events {
		if e.ID == "" {
			p.errorf("feature %d: empty id", i)
		} else if prev, dup := seen[e.ID]; dup {
			p.errorf("feature %d: duplicate id %s (first at %d)", i, e.ID, prev)
		} else {
			seen[e.ID] = i
		}

		c := e.Coordinates
		if c.Latitude < -90 || c.Latitude > 90 {
			p.errorf("%s: latitude %v out of range", e.ID, c.Latitude)
		}
		if c.Longitude < -180 || c.Longitude > 180 {
			p.errorf("%s: longitude %v out of range", e.ID, c.Longitude)
		}
		if math.IsNaN(e.Magnitude) || math.IsInf(e.Magnitude, 0) {
			p.errorf("%s: magnitude %v is not finite", e.ID, e.Magnitude)
		}
		if e.URL != "" {
			if u, err := url.Parse(e.URL); err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				p.errorf("%s: url %q is not http(s)", e.ID, e.URL)
			}
		}
		if !e.HasPlace() {
			noPlace++
		}
	}

	if noPlace > 0 {
		p.notef("%d event(s) without place get no popup", noPlace)
	}
	return p
}

func validateMarkers(events []domain.Event, markers []domain.Marker, mapCfg domain.MapConfig) *phase {
	p := &phase{name: "Marker sizing"}
	outside := 0

	for i, m := range markers {
		e := events[i]
		want := math.Sqrt(10 * math.Pow(10, (e.Magnitude-1)/2.5) / math.Pi)
		if math.Abs(m.Radius-want) > 1e-9 {
			p.errorf("%s: radius %v, want %v", e.ID, m.Radius, want)
		}
		if m.Lat != e.Coordinates.Latitude || m.Lon != e.Coordinates.Longitude {
			p.errorf("%s: marker at (%v, %v), event at (%v, %v)", e.ID, m.Lat, m.Lon, e.Coordinates.Latitude, e.Coordinates.Longitude)
		}
		if !mapCfg.Contains(m) {
			outside++
		}
	}

	sorted := make([]domain.Marker, len(markers))
	copy(sorted, markers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Magnitude < sorted[j].Magnitude })
	for i := 1; i < len(sorted); i++ {
		a, b := sorted[i-1], sorted[i]
		if a.Magnitude < b.Magnitude && !(a.Radius < b.Radius) {
			p.errorf("radius not increasing: M%v=%v, M%v=%v", a.Magnitude, a.Radius, b.Magnitude, b.Radius)
		}
	}

	if outside > 0 {
		p.notef("%d marker(s) lie outside the pannable bounds", outside)
	}
	return p
}

// validatePopups checks popup presence per event. renderErr carries the
// render failures from quakeview.BuildMarkers; when it is set, empty popup
// HTML is reported through it instead of as an empty popup.
func validatePopups(events []domain.Event, markers []domain.Marker, renderErr error) *phase {
	p := &phase{name: "Popup shaping"}
	if renderErr != nil {
		for _, err := range unjoin(renderErr) {
			p.errorf("render popup: %v", err)
		}
	}
	for i, m := range markers {
		e := events[i]
		switch {
		case !e.HasPlace() && m.Popup != nil:
			p.errorf("%s: popup built for event without place", e.ID)
		case e.HasPlace() && m.Popup == nil:
			p.errorf("%s: missing popup", e.ID)
		case e.HasPlace() && m.PopupHTML == "" && renderErr == nil:
			p.errorf("%s: popup rendered empty", e.ID)
		}
	}
	return p
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

func validateOverlay(markers []domain.Marker) *phase {
	p := &phase{name: "GeoJSON overlay"}

	data, err := json.Marshal(quakeview.OverlayFeatureCollection(markers))
	if err != nil {
		p.errorf("encode overlay: %v", err)
		return p
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		p.errorf("decode overlay: %v", err)
		return p
	}
	if len(fc.Features) != len(markers) {
		p.errorf("overlay has %d features, want %d", len(fc.Features), len(markers))
	}
	for _, f := range fc.Features {
		if _, ok := f.Properties["radius"]; !ok {
			p.errorf("feature %v: missing radius property", f.ID)
		}
	}
	return p
}
