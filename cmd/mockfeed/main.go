// Command mockfeed generates deterministic USGS summary feeds and optionally
// serves them, so the map can run without reaching earthquake.usgs.gov.
//
// Usage:
//
//	go run ./cmd/mockfeed -out data/mock
//	go run ./cmd/mockfeed -serve :9000
//	FEED_BASE_URL=http://localhost:9000 go run ./cmd/quakemap
package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-map-service/internal/adapter/usgs"
	"github.com/couchcryptid/quake-map-service/internal/domain"
)

var baseTime = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

// significantMagnitude approximates the USGS significance score with a
// magnitude threshold.
const significantMagnitude = 6.0

type region struct {
	place    string
	lat, lon float64
}

var regions = []region{
	{"Ridgecrest, CA", 35.77, -117.60},
	{"Anchorage, Alaska", 61.22, -149.90},
	{"Hualien City, Taiwan", 23.98, 121.60},
	{"Tokyo, Japan", 35.68, 139.69},
	{"Santiago, Chile", -33.45, -70.66},
	{"Reykjavik, Iceland", 64.15, -21.94},
	{"Wellington, New Zealand", -41.29, 174.78},
	{"Naples, Italy", 40.85, 14.27},
	{"Tonga", -21.18, -175.20},
	{"Hilo, Hawaii", 19.72, -155.08},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "directory to write {magnitude}_{window}.geojson files into")
	addr := flag.String("serve", "", "address to serve the generated feeds on")
	count := flag.Int("count", 400, "events generated across the month window")
	seed := flag.Uint64("seed", 1, "random seed")
	flag.Parse()

	if *out == "" && *addr == "" {
		flag.Usage()
		return errors.New("at least one of -out or -serve is required")
	}

	clock := clockwork.NewFakeClockAt(baseTime)
	events := generate(clock, *count, *seed)
	feeds, err := renderAll(clock, events)
	if err != nil {
		return err
	}

	if *out != "" {
		if err := writeAll(*out, feeds); err != nil {
			return err
		}
		log.Printf("wrote %d feeds to %s", len(feeds), *out)
	}
	if *addr != "" {
		log.Printf("serving %d feeds on %s", len(feeds), *addr)
		srv := &http.Server{
			Addr:              *addr,
			Handler:           newHandler(feeds),
			ReadHeaderTimeout: 5 * time.Second,
		}
		return srv.ListenAndServe()
	}
	return nil
}

// generate produces count events spread over the 30 days before clock.Now.
// Magnitudes follow an exponential tail so larger events are rarer. Every
// seventh event has no place name.
func generate(clock clockwork.Clock, count int, seed uint64) []domain.Event {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	now := clock.Now()
	month := 30 * 24 * time.Hour

	events := make([]domain.Event, 0, count)
	for i := range count {
		r := regions[rng.IntN(len(regions))]
		mag := math.Min(-0.5+rng.ExpFloat64()/0.9, 8.5)
		e := domain.Event{
			ID: fmt.Sprintf("mock%06d", i),
			Coordinates: domain.Coordinates{
				Latitude:  clampLat(r.lat + rng.NormFloat64()*0.8),
				Longitude: wrapLon(r.lon + rng.NormFloat64()*0.8),
				DepthKm:   math.Round(rng.Float64()*700*100) / 100,
			},
			Magnitude: math.Round(mag*10) / 10,
			Type:      "earthquake",
			Time:      now.Add(-time.Duration(rng.Int64N(int64(month)))).Truncate(time.Millisecond),
		}
		if i%7 != 0 {
			e.Place = fmt.Sprintf("%d km %s of %s", 1+rng.IntN(80), compass[rng.IntN(len(compass))], r.place)
		}
		e.URL = "https://earthquake.usgs.gov/earthquakes/eventpage/" + e.ID
		events = append(events, e)
	}
	return events
}

var compass = []string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

func clampLat(lat float64) float64 {
	return math.Max(-89.9, math.Min(89.9, lat))
}

func wrapLon(lon float64) float64 {
	switch {
	case lon > 180:
		return lon - 360
	case lon < -180:
		return lon + 360
	}
	return lon
}

// selects reports whether e belongs in the feed for f at now.
func selects(f domain.Filter, e domain.Event, now time.Time) bool {
	if e.Time.Before(now.Add(-windowDuration(f.Window))) {
		return false
	}
	switch f.MinMagnitude {
	case domain.MagnitudeAll:
		return true
	case domain.Magnitude1:
		return e.Magnitude >= 1.0
	case domain.Magnitude2_5:
		return e.Magnitude >= 2.5
	case domain.Magnitude4_5:
		return e.Magnitude >= 4.5
	case domain.MagnitudeSignificant:
		return e.Magnitude >= significantMagnitude
	}
	return false
}

func windowDuration(w domain.Window) time.Duration {
	switch w {
	case domain.WindowHour:
		return time.Hour
	case domain.WindowDay:
		return 24 * time.Hour
	case domain.WindowWeek:
		return 7 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

// renderAll encodes one document per feed name. Combinations the map never
// requests are still generated so the directory mirrors the upstream layout.
func renderAll(clock clockwork.Clock, events []domain.Event) (map[string][]byte, error) {
	now := clock.Now()
	feeds := make(map[string][]byte)
	for _, m := range domain.Magnitudes() {
		for _, w := range domain.Windows() {
			f := domain.Filter{MinMagnitude: m, Window: w}
			var selected []domain.Event
			for _, e := range events {
				if selects(f, e, now) {
					selected = append(selected, e)
				}
			}
			var buf bytes.Buffer
			err := usgs.EncodeFeed(&buf, usgs.Feed{
				Title:     fmt.Sprintf("USGS %s Earthquakes, %s", m.Label(), w.Label()),
				Generated: now,
				Events:    selected,
			})
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", f.FeedName(), err)
			}
			feeds[f.FeedName()+".geojson"] = buf.Bytes()
		}
	}
	return feeds, nil
}

func writeAll(dir string, feeds map[string][]byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for name, body := range feeds {
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o600); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}

func newHandler(feeds map[string][]byte) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{file}", func(w http.ResponseWriter, r *http.Request) {
		body, ok := feeds[r.PathValue("file")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = w.Write(body)
	})
	return mux
}
