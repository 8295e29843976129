package domain

import "time"

// Coordinates is the feed's [longitude, latitude, depth] triple.
type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
	DepthKm   float64 `json:"depth_km"`
}

// Event is one seismic event as published by the feed. Events are never
// modified after decoding.
type Event struct {
	ID          string      `json:"id"`
	Coordinates Coordinates `json:"coordinates"`
	Magnitude   float64     `json:"magnitude"`
	Place       string      `json:"place,omitempty"`
	Type        string      `json:"type"`
	URL         string      `json:"url"`
	Time        time.Time   `json:"time"`
}

// HasPlace reports whether the feed supplied a place name. Events without
// one get a marker but no popup.
func (e Event) HasPlace() bool {
	return e.Place != ""
}
