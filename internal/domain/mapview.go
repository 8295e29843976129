package domain

import "github.com/paulmach/orb"

// TileLayer is a selectable base layer.
type TileLayer struct {
	Name        string `json:"name"`
	Attribution string `json:"attribution"`
	URL         string `json:"url"`
	Checked     bool   `json:"checked"`
}

// MapConfig holds the fixed view constraints and layers handed to the map
// widget. Center and MaxBounds use orb's [lon, lat] ordering.
type MapConfig struct {
	TileLayers         []TileLayer
	OverlayName        string
	Center             orb.Point
	Zoom               int
	MinZoom            int
	MaxBounds          orb.Bound
	MaxBoundsViscosity float64
}

// Contains reports whether a marker lies inside the pannable area.
func (c MapConfig) Contains(m Marker) bool {
	return c.MaxBounds.Contains(m.Point)
}
