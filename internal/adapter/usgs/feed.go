package usgs

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// Feed is a decoded summary document.
type Feed struct {
	Title     string
	Generated time.Time
	Count     int
	Events    []domain.Event
}

// DecodeFeed parses a GeoJSON summary document. A missing features array, a
// feature with fewer than two coordinates or a magnitude too large to size a
// marker is reported as ErrMalformedFeed.
// A null magnitude decodes as 0 and a null place as "".
func DecodeFeed(r io.Reader) (Feed, error) {
	var doc featureCollection
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Feed{}, fmt.Errorf("%w: decode response: %v", ErrMalformedFeed, err)
	}
	if doc.Features == nil {
		return Feed{}, fmt.Errorf("%w: missing features array", ErrMalformedFeed)
	}

	events := make([]domain.Event, 0, len(doc.Features))
	for i, f := range doc.Features {
		e, err := f.toEvent()
		if err != nil {
			return Feed{}, fmt.Errorf("%w: feature %d (%s): %v", ErrMalformedFeed, i, f.ID, err)
		}
		events = append(events, e)
	}

	feed := Feed{
		Title:  doc.Metadata.Title,
		Count:  doc.Metadata.Count,
		Events: events,
	}
	if doc.Metadata.Generated > 0 {
		feed.Generated = time.UnixMilli(doc.Metadata.Generated).UTC()
	}
	return feed, nil
}

func (f feature) toEvent() (domain.Event, error) {
	if len(f.Geometry.Coordinates) < 2 {
		return domain.Event{}, fmt.Errorf("expected at least 2 coordinates, got %d", len(f.Geometry.Coordinates))
	}

	e := domain.Event{
		ID: f.ID,
		Coordinates: domain.Coordinates{
			Longitude: f.Geometry.Coordinates[0],
			Latitude:  f.Geometry.Coordinates[1],
		},
		Type: f.Properties.Type,
		URL:  f.Properties.URL,
	}
	if len(f.Geometry.Coordinates) > 2 {
		e.Coordinates.DepthKm = f.Geometry.Coordinates[2]
	}
	if f.Properties.Mag != nil {
		if err := domain.CheckMagnitude(*f.Properties.Mag); err != nil {
			return domain.Event{}, err
		}
		e.Magnitude = *f.Properties.Mag
	}
	if f.Properties.Place != nil {
		e.Place = *f.Properties.Place
	}
	if f.Properties.Time != nil {
		e.Time = time.UnixMilli(*f.Properties.Time).UTC()
	}
	return e, nil
}

// EncodeFeed writes feed in the USGS summary format. Empty places and zero
// times are written as null.
func EncodeFeed(w io.Writer, feed Feed) error {
	doc := featureCollection{
		Type: "FeatureCollection",
		Metadata: metadata{
			Title:  feed.Title,
			Status: 200,
			Count:  len(feed.Events),
		},
		Features: make([]feature, 0, len(feed.Events)),
	}
	if !feed.Generated.IsZero() {
		doc.Metadata.Generated = feed.Generated.UnixMilli()
	}
	for _, e := range feed.Events {
		doc.Features = append(doc.Features, fromEvent(e))
	}
	if err := json.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("encode feed: %w", err)
	}
	return nil
}

func fromEvent(e domain.Event) feature {
	mag := e.Magnitude
	f := feature{
		Type: "Feature",
		ID:   e.ID,
		Properties: properties{
			Mag:  &mag,
			Type: e.Type,
			URL:  e.URL,
		},
		Geometry: geometry{
			Type:        "Point",
			Coordinates: []float64{e.Coordinates.Longitude, e.Coordinates.Latitude, e.Coordinates.DepthKm},
		},
	}
	if e.HasPlace() {
		place := e.Place
		f.Properties.Place = &place
	}
	if !e.Time.IsZero() {
		ms := e.Time.UnixMilli()
		f.Properties.Time = &ms
	}
	return f
}

// USGS GeoJSON document types.

type featureCollection struct {
	Type     string    `json:"type"`
	Metadata metadata  `json:"metadata"`
	Features []feature `json:"features"`
}

type metadata struct {
	Generated int64  `json:"generated"` // epoch ms
	URL       string `json:"url,omitempty"`
	Title     string `json:"title"`
	Status    int    `json:"status,omitempty"`
	Count     int    `json:"count"`
}

type feature struct {
	Type       string     `json:"type"`
	ID         string     `json:"id"`
	Properties properties `json:"properties"`
	Geometry   geometry   `json:"geometry"`
}

type properties struct {
	Mag   *float64 `json:"mag"`
	Place *string  `json:"place"`
	Time  *int64   `json:"time"` // epoch ms
	Type  string   `json:"type"`
	URL   string   `json:"url"`
}

type geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [lon, lat, depth]
}
