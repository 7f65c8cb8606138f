package calendar

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// DefaultWindowDays is the proximity radius used when a request does not
// override it.
const DefaultWindowDays = 21

// ErrInvalidWindow is returned for negative proximity windows.
var ErrInvalidWindow = errors.New("window must not be negative")

// Event is a festival anchored to a fixed Hebrew month and day. Order is
// the stable tie-break index between events at equal distance.
type Event struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Anchor   Anchor `yaml:"anchor" json:"anchor"`
	Emphasis string `yaml:"emphasis" json:"emphasis"`
	Order    int    `yaml:"order" json:"order"`
}

// Correlation is one festival occurrence near a requested date.
// DaysApart is the occurrence minus the requested date: positive values
// lie ahead of the request, negative values behind it.
type Correlation struct {
	EventID   string    `json:"event_id"`
	Festival  string    `json:"festival"`
	Anchor    string    `json:"anchor"`
	Date      CivilDate `json:"festival_date"`
	DaysApart int       `json:"days_apart"`
	Emphasis  string    `json:"emphasis"`
	Order     int       `json:"order"`
}

// Options tune a single correlation.
type Options struct {
	WindowDays int
	// FirstAdar resolves Adar anchors to Adar I in leap years.
	FirstAdar bool
}

// Correlator resolves festival proximity against a fixed event table.
// It holds no mutable state and is safe for concurrent use.
type Correlator struct {
	events []Event
	years  YearRange
}

// NewCorrelator creates a correlator over a copy of events.
func NewCorrelator(events []Event, years YearRange) *Correlator {
	return &Correlator{
		events: slices.Clone(events),
		years:  years,
	}
}

// Years returns the supported civil year range.
func (c *Correlator) Years() YearRange {
	return c.years
}

// Correlate returns every festival whose nearest occurrence lies within
// opts.WindowDays of date, ordered by absolute distance, then Order, then ID.
func (c *Correlator) Correlate(date CivilDate, opts Options) ([]Correlation, error) {
	if err := c.years.Check(date); err != nil {
		return nil, err
	}
	if opts.WindowDays < 0 {
		return nil, fmt.Errorf("correlate %s: %w", date, ErrInvalidWindow)
	}

	results := make([]Correlation, 0, len(c.events))
	for _, ev := range c.events {
		occurrence, daysApart, ok := Nearest(ev.Anchor, date, opts.WindowDays, opts.FirstAdar)
		if !ok {
			continue
		}
		results = append(results, Correlation{
			EventID:   ev.ID,
			Festival:  ev.Name,
			Anchor:    ev.Anchor.String(),
			Date:      occurrence,
			DaysApart: daysApart,
			Emphasis:  ev.Emphasis,
			Order:     ev.Order,
		})
	}

	SortByProximity(results, func(r Correlation) (int, int, string) {
		return r.DaysApart, r.Order, r.EventID
	})
	return results, nil
}

// Nearest resolves the occurrence of an anchor closest to date, searching
// every Hebrew year the window touches. A window that straddles Rosh
// Hashana therefore sees occurrences in both adjacent years. When two
// occurrences are equally far, the upcoming one wins.
func Nearest(a Anchor, date CivilDate, windowDays int, firstAdar bool) (occurrence CivilDate, daysApart int, ok bool) {
	n := date.dayNumber()
	first := fromDayNumber(n - windowDays).Year
	last := fromDayNumber(n + windowDays).Year

	for year := first; year <= last; year++ {
		candidate, exists := a.Occurrence(year, firstAdar)
		if !exists {
			continue
		}
		delta := candidate.dayNumber() - n
		if abs(delta) > windowDays {
			continue
		}
		if !ok || abs(delta) < abs(daysApart) || (abs(delta) == abs(daysApart) && delta > daysApart) {
			occurrence, daysApart, ok = candidate, delta, true
		}
	}
	return occurrence, daysApart, ok
}

// SortByProximity orders items by absolute distance, then by the stable
// order index, then by identifier so the result never depends on input
// order.
func SortByProximity[T any](items []T, key func(T) (daysApart, order int, id string)) {
	slices.SortStableFunc(items, func(x, y T) int {
		dx, ox, ix := key(x)
		dy, oy, iy := key(y)
		if c := cmp.Compare(abs(dx), abs(dy)); c != 0 {
			return c
		}
		if c := cmp.Compare(ox, oy); c != 0 {
			return c
		}
		return cmp.Compare(ix, iy)
	})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
