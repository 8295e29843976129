package http

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/couchcryptid/quake-map-service/internal/domain"
	"github.com/couchcryptid/quake-map-service/internal/quakeview"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// pageConfig is handed to the map script as JSON. Leaflet wants [lat, lon]
// pairs, so points are flipped from orb's [lon, lat] ordering.
type pageConfig struct {
	TileLayers         []domain.TileLayer `json:"tile_layers"`
	OverlayName        string             `json:"overlay_name"`
	Center             [2]float64         `json:"center"`
	Zoom               int                `json:"zoom"`
	MinZoom            int                `json:"min_zoom"`
	MaxBounds          [2][2]float64      `json:"max_bounds"`
	MaxBoundsViscosity float64            `json:"max_bounds_viscosity"`
	Snapshot           quakeview.Snapshot `json:"snapshot"`
}

type pageData struct {
	Snapshot quakeview.Snapshot
	Config   pageConfig
}

func newPageConfig(m domain.MapConfig, snap quakeview.Snapshot) pageConfig {
	return pageConfig{
		TileLayers:  m.TileLayers,
		OverlayName: m.OverlayName,
		Center:      [2]float64{m.Center.Lat(), m.Center.Lon()},
		Zoom:        m.Zoom,
		MinZoom:     m.MinZoom,
		MaxBounds: [2][2]float64{
			{m.MaxBounds.Bottom(), m.MaxBounds.Left()},
			{m.MaxBounds.Top(), m.MaxBounds.Right()},
		},
		MaxBoundsViscosity: m.MaxBoundsViscosity,
		Snapshot:           snap,
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	snap := s.view.Snapshot()
	data := pageData{Snapshot: snap, Config: newPageConfig(s.mapCfg, snap)}

	var buf bytes.Buffer
	if err := s.page.ExecuteTemplate(&buf, "index.html.tmpl", data); err != nil {
		s.logger.Error("render page", "error", err)
		http.Error(w, "render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
