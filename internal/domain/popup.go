package domain

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"
)

const popupTimeLayout = "2006-01-02 15:04:05 MST"

var popupTemplate = template.Must(template.New("popup").Parse(
	`<div class="quake-popup"><h3>{{.Title}}</h3><ul>` +
		`{{range .Lines}}<li>{{.}}</li>{{end}}</ul>` +
		`{{if .Link}}<a href="{{.Link}}" target="_blank" rel="noopener noreferrer">{{.LinkText}}</a>{{end}}` +
		`</div>`,
))

// Popup is the static summary shown when a marker is clicked.
type Popup struct {
	Title    string   `json:"title"`
	Lines    []string `json:"lines"`
	Link     string   `json:"link,omitempty"`
	LinkText string   `json:"link_text,omitempty"`
}

// BuildPopup summarizes an event. It returns false for events without a
// place name, which get no popup. zone adds a local-time line when it is
// not nil and not UTC.
func BuildPopup(e Event, zone *time.Location) (Popup, bool) {
	if !e.HasPlace() {
		return Popup{}, false
	}

	lines := []string{
		"Magnitude: " + formatNumber(e.Magnitude),
		"Depth: " + formatNumber(e.Coordinates.DepthKm) + " km",
		"Type: " + e.Type,
		fmt.Sprintf("Coordinates: %s, %s", formatNumber(e.Coordinates.Longitude), formatNumber(e.Coordinates.Latitude)),
	}
	if !e.Time.IsZero() {
		lines = append(lines, "Time: "+e.Time.UTC().Format(popupTimeLayout))
		if zone != nil && zone != time.UTC {
			lines = append(lines, fmt.Sprintf("Local time: %s (%s)", e.Time.In(zone).Format(popupTimeLayout), zone))
		}
	}

	p := Popup{Title: e.Place, Lines: lines}
	if e.URL != "" {
		p.Link = e.URL
		p.LinkText = "More info"
	}
	return p, true
}

// RenderPopupHTML formats a popup as an escaped HTML fragment.
func RenderPopupHTML(p Popup) (string, error) {
	var b strings.Builder
	if err := popupTemplate.Execute(&b, p); err != nil {
		return "", fmt.Errorf("render popup: %w", err)
	}
	return b.String(), nil
}

// formatNumber prints the shortest decimal that round-trips, so 4.2 stays "4.2".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
