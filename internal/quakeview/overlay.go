package quakeview

import (
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/quake-map-service/internal/domain"
)

// OverlayFeatureCollection converts markers to GeoJSON point features. The
// properties carry everything the map page needs to draw a circle marker.
func OverlayFeatureCollection(markers []domain.Marker) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, m := range markers {
		f := geojson.NewFeature(m.Point)
		f.ID = m.ID
		f.Properties["magnitude"] = m.Magnitude
		f.Properties["radius"] = m.Radius
		f.Properties["color"] = m.Color
		if m.PopupHTML != "" {
			f.Properties["popup_html"] = m.PopupHTML
		}
		fc.Append(f)
	}
	return fc
}
