package domain

import "time"

// Locator resolves the IANA time zone at a coordinate. Popups use it to show
// the event's local time next to UTC.
type Locator interface {
	Locate(lat, lon float64) (*time.Location, error)
}
