package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	// markerBaseArea is the circle area, in square pixels, of a magnitude 1 event.
	markerBaseArea = 10.0
	// markerScaleDivisor sets how many magnitude units multiply the area by ten.
	markerScaleDivisor = 2.5
)

// MarkerRadius converts a magnitude to a circle radius in pixels so that the
// marker's area, not its radius, grows with the logarithmic magnitude:
//
//	radius(m) = sqrt(10 * 10^((m-1)/2.5) / π)
//
// Negative and zero magnitudes are valid feed values and are not clamped.
func MarkerRadius(magnitude float64) float64 {
	area := markerBaseArea * math.Pow(10, (magnitude-1)/markerScaleDivisor)
	return math.Sqrt(area / math.Pi)
}

// ErrMagnitudeOutOfRange is returned for magnitudes whose marker radius is
// not a finite number.
var ErrMagnitudeOutOfRange = errors.New("magnitude out of range")

// CheckMagnitude reports ErrMagnitudeOutOfRange when MarkerRadius(m) is NaN
// or infinite. Very small magnitudes yield a zero radius and pass.
func CheckMagnitude(m float64) error {
	r := MarkerRadius(m)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return fmt.Errorf("%w: %g", ErrMagnitudeOutOfRange, m)
	}
	return nil
}

// Marker is the filled circle drawn for one event.
type Marker struct {
	ID        string    `json:"id"`
	Point     orb.Point `json:"-"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Radius    float64   `json:"radius"`
	Color     string    `json:"color"`
	Magnitude float64   `json:"magnitude"`
	Popup     *Popup    `json:"popup,omitempty"`
	PopupHTML string    `json:"popup_html,omitempty"`
}

// NewMarker places a marker at the event's latitude/longitude. Popups are
// attached separately by the caller.
func NewMarker(e Event, color string) Marker {
	return Marker{
		ID:        e.ID,
		Point:     orb.Point{e.Coordinates.Longitude, e.Coordinates.Latitude},
		Lat:       e.Coordinates.Latitude,
		Lon:       e.Coordinates.Longitude,
		Radius:    MarkerRadius(e.Magnitude),
		Color:     color,
		Magnitude: e.Magnitude,
	}
}
