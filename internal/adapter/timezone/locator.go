package timezone

import (
	"fmt"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"
)

// zoneFinder is the subset of tzf.F the locator uses.
type zoneFinder interface {
	GetTimezoneName(lng, lat float64) string
}

// Locator resolves event coordinates to an IANA time zone using tzf.
// It implements domain.Locator.
type Locator struct {
	finder zoneFinder

	mu    sync.RWMutex
	zones map[string]*time.Location
}

// NewLocator loads the default tzf finder. The finder keeps its polygon data
// in memory, so build one Locator per process and share it.
func NewLocator() (*Locator, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("initialize timezone finder: %w", err)
	}
	return newLocator(finder), nil
}

func newLocator(finder zoneFinder) *Locator {
	return &Locator{finder: finder, zones: make(map[string]*time.Location)}
}

// Locate returns the time zone containing lat/lon.
func (l *Locator) Locate(lat, lon float64) (*time.Location, error) {
	name := l.finder.GetTimezoneName(lon, lat)
	if name == "" {
		return nil, fmt.Errorf("could not determine timezone for coordinates lat=%f, lon=%f", lat, lon)
	}

	l.mu.RLock()
	loc, ok := l.zones[name]
	l.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}

	l.mu.Lock()
	l.zones[name] = loc
	l.mu.Unlock()
	return loc, nil
}
