package domain

import (
	"errors"
	"fmt"
)

// Magnitude is the minimum-magnitude bucket of a USGS summary feed.
type Magnitude string

const (
	MagnitudeAll         Magnitude = "all"
	Magnitude1           Magnitude = "1.0"
	Magnitude2_5         Magnitude = "2.5"
	Magnitude4_5         Magnitude = "4.5"
	MagnitudeSignificant Magnitude = "significant"
)

// Window is the recency bound of a USGS summary feed.
type Window string

const (
	WindowHour  Window = "hour"
	WindowDay   Window = "day"
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

var (
	ErrUnknownMagnitude = errors.New("unknown magnitude")
	ErrUnknownWindow    = errors.New("unknown time window")

	// ErrUnsupportedFilter is returned for combinations the feed does not publish.
	ErrUnsupportedFilter = errors.New("unsupported filter combination")
)

var magnitudeLabels = map[Magnitude]string{
	MagnitudeAll:         "All",
	Magnitude1:           "M1.0+",
	Magnitude2_5:         "M2.5+",
	Magnitude4_5:         "M4.5+",
	MagnitudeSignificant: "Significant",
}

var windowLabels = map[Window]string{
	WindowHour:  "Past Hour",
	WindowDay:   "Past Day",
	WindowWeek:  "Past 7 Days",
	WindowMonth: "Past 30 Days",
}

// Magnitudes returns every magnitude bucket in display order.
func Magnitudes() []Magnitude {
	return []Magnitude{MagnitudeAll, Magnitude1, Magnitude2_5, Magnitude4_5, MagnitudeSignificant}
}

// Windows returns every time window in display order.
func Windows() []Window {
	return []Window{WindowHour, WindowDay, WindowWeek, WindowMonth}
}

// ParseMagnitude validates a magnitude bucket name.
func ParseMagnitude(s string) (Magnitude, error) {
	m := Magnitude(s)
	if _, ok := magnitudeLabels[m]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMagnitude, s)
	}
	return m, nil
}

// ParseWindow validates a time window name.
func ParseWindow(s string) (Window, error) {
	w := Window(s)
	if _, ok := windowLabels[w]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownWindow, s)
	}
	return w, nil
}

// Label is the human-readable selector text.
func (m Magnitude) Label() string { return magnitudeLabels[m] }

// Label is the human-readable selector text.
func (w Window) Label() string { return windowLabels[w] }

// Filter selects which summary feed is displayed.
type Filter struct {
	MinMagnitude Magnitude `json:"min_magnitude"`
	Window       Window    `json:"window"`
}

// DefaultFilter is the filter a freshly mounted view starts with.
func DefaultFilter() Filter {
	return Filter{MinMagnitude: Magnitude2_5, Window: WindowWeek}
}

// Validate reports unknown values and combinations the feed does not publish.
func (f Filter) Validate() error {
	if _, err := ParseMagnitude(string(f.MinMagnitude)); err != nil {
		return err
	}
	if _, err := ParseWindow(string(f.Window)); err != nil {
		return err
	}
	if !MagnitudeSelectable(f.MinMagnitude, f.Window) {
		return fmt.Errorf("%w: %s_%s", ErrUnsupportedFilter, f.MinMagnitude, f.Window)
	}
	return nil
}

// FeedName is the summary feed file stem, e.g. "2.5_week".
func (f Filter) FeedName() string {
	return string(f.MinMagnitude) + "_" + string(f.Window)
}

// MagnitudeSelectable reports whether m may be combined with w.
// The 30-day feeds are not offered for the two smallest buckets.
func MagnitudeSelectable(m Magnitude, w Window) bool {
	if w != WindowMonth {
		return true
	}
	return m != MagnitudeAll && m != Magnitude1
}

// Option is one entry of a filter selector.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Selected bool   `json:"selected"`
	Disabled bool   `json:"disabled"`
}

// MagnitudeOptions lists the magnitude selector for the current filter.
func MagnitudeOptions(f Filter) []Option {
	opts := make([]Option, 0, len(magnitudeLabels))
	for _, m := range Magnitudes() {
		opts = append(opts, Option{
			Value:    string(m),
			Label:    m.Label(),
			Selected: m == f.MinMagnitude,
			Disabled: !MagnitudeSelectable(m, f.Window),
		})
	}
	return opts
}

// WindowOptions lists the window selector for the current filter. The month
// window is disabled while a magnitude it cannot serve is selected.
func WindowOptions(f Filter) []Option {
	opts := make([]Option, 0, len(windowLabels))
	for _, w := range Windows() {
		opts = append(opts, Option{
			Value:    string(w),
			Label:    w.Label(),
			Selected: w == f.Window,
			Disabled: !MagnitudeSelectable(f.MinMagnitude, w),
		})
	}
	return opts
}
