// Package biztime provides the reference timezone and clock used for
// business date boundaries.
//
// All storage and transport use UTC. The reference zone is only used to
// decide where a business day starts and ends: the daily reconciliation
// schedule and the report quota day key. A Zone is passed explicitly to
// the components that need it; there is no process-wide default.
package biztime

import (
	"fmt"
	"time"
)

const (
	// DefaultTimezone is used when no reference timezone is configured.
	DefaultTimezone = "UTC"

	dateKeyLayout = "2006-01-02"
)

// Zone is a business reference timezone.
type Zone struct {
	loc *time.Location
}

// LoadZone resolves an IANA timezone name. An empty name selects UTC.
func LoadZone(name string) (Zone, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return Zone{loc: loc}, nil
}

// MustLoadZone is LoadZone that panics on error.
func MustLoadZone(name string) Zone {
	z, err := LoadZone(name)
	if err != nil {
		panic(err)
	}
	return z
}

// NewZone wraps an existing location.
func NewZone(loc *time.Location) Zone {
	return Zone{loc: loc}
}

// Location returns the zone's location. The zero Zone behaves as UTC.
func (z Zone) Location() *time.Location {
	if z.loc == nil {
		return time.UTC
	}
	return z.loc
}

// Name returns the IANA name of the zone.
func (z Zone) Name() string {
	return z.Location().String()
}

// DateKey returns the calendar date of t in the zone, formatted YYYY-MM-DD.
func (z Zone) DateKey(t time.Time) string {
	return t.In(z.Location()).Format(dateKeyLayout)
}
