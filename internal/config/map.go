package config

import (
	"github.com/paulmach/orb"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// DefaultMap returns the base layers and view constraints for the map page.
func DefaultMap() domain.MapConfig {
	return domain.MapConfig{
		TileLayers: []domain.TileLayer{
			{
				Name:        "OpenStreetMap",
				Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
				URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
				Checked:     true,
			},
			{
				Name:        "Satellite",
				Attribution: "Tiles &copy; Esri &mdash; Source: Esri, i-cubed, USDA, USGS, AEX, GeoEye, Getmapping, Aerogrid, IGN, IGP, UPR-EGP, and the GIS User Community",
				URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
			},
			{
				Name:        "Topographic",
				Attribution: `Map data: &copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors, SRTM | Map style: &copy; <a href="https://opentopomap.org">OpenTopoMap</a> (CC-BY-SA)`,
				URL:         "https://{s}.tile.opentopomap.org/{z}/{x}/{y}.png",
			},
		},
		OverlayName: "events",
		Center:      orb.Point{0, 0},
		Zoom:        3,
		MinZoom:     2,
		MaxBounds: orb.Bound{
			Min: orb.Point{-180, -80},
			Max: orb.Point{180, 80},
		},
		MaxBoundsViscosity: 1.0,
	}
}
