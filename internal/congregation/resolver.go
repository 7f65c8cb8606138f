// Package congregation resolves a community's own calendar against a
// requested date.
package congregation

import (
	"errors"
	"fmt"
	"time"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
)

// ErrNotFound is returned by Lookup for unknown congregation identifiers.
// Resolve never returns it.
var ErrNotFound = errors.New("congregation not found")

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Match is a congregation event occurring within the proximity window.
type Match struct {
	EventID     string             `json:"event_id,omitempty"`
	Description string             `json:"description"`
	Emphasis    string             `json:"emphasis"`
	Date        calendar.CivilDate `json:"event_date"`
	DaysApart   int                `json:"days_apart"`
	// Order is the event's position in the congregation record.
	Order int `json:"-"`
}

// Context is the congregation block of a lesson response. It is never
// nil: an unknown or absent congregation produces Empty().
type Context struct {
	ID       string   `json:"id,omitempty"`
	Name     string   `json:"name"`
	Location string   `json:"location"`
	Values   []string `json:"values"`
	Events   []Match  `json:"events"`
}

// Empty returns a context with no name and no events.
func Empty() Context {
	return Context{Values: []string{}, Events: []Match{}}
}

// Resolver computes congregation event proximity. It is stateless; the
// dataset snapshot is supplied per call.
type Resolver struct {
	years calendar.YearRange
}

// NewResolver creates a resolver accepting dates within years.
func NewResolver(years calendar.YearRange) *Resolver {
	return &Resolver{years: years}
}

// Lookup finds a congregation record.
func (r *Resolver) Lookup(d *dataset.Dataset, id string) (dataset.Congregation, error) {
	c, ok := d.Congregation(id)
	if !ok {
		return dataset.Congregation{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return c, nil
}

// Resolve returns the congregation's events within opts.WindowDays of
// date. An empty or unknown id yields Empty() and a nil error; only an
// invalid date or window fails.
func (r *Resolver) Resolve(d *dataset.Dataset, date calendar.CivilDate, id string, opts calendar.Options) (Context, error) {
	if err := r.years.Check(date); err != nil {
		return Context{}, err
	}
	if opts.WindowDays < 0 {
		return Context{}, fmt.Errorf("resolve %s: %w", date, calendar.ErrInvalidWindow)
	}
	if id == "" {
		return Empty(), nil
	}
	c, err := r.Lookup(d, id)
	if err != nil {
		return Empty(), nil
	}

	out := Context{
		ID:       c.ID,
		Name:     c.Name,
		Location: c.Location,
		Values:   append([]string{}, c.Values...),
		Events:   []Match{},
	}
	for i, ev := range c.Events {
		occurrence, daysApart, ok := nearest(ev, date, opts)
		if !ok {
			continue
		}
		out.Events = append(out.Events, Match{
			EventID:     ev.ID,
			Description: ev.Description,
			Emphasis:    ev.Emphasis,
			Date:        occurrence,
			DaysApart:   daysApart,
			Order:       i,
		})
	}

	calendar.SortByProximity(out.Events, func(m Match) (int, int, string) {
		return m.DaysApart, m.Order, m.EventID
	})
	return out, nil
}

func nearest(ev dataset.CongregationEvent, date calendar.CivilDate, opts calendar.Options) (calendar.CivilDate, int, bool) {
	switch {
	case ev.Date != nil:
		delta := date.DaysUntil(*ev.Date)
		if abs(delta) > opts.WindowDays {
			return calendar.CivilDate{}, 0, false
		}
		return *ev.Date, delta, true
	case ev.Annual != nil:
		return nearestAnnual(*ev.Annual, date, opts.WindowDays)
	case ev.Hebrew != nil:
		return calendar.Nearest(*ev.Hebrew, date, opts.WindowDays, opts.FirstAdar)
	}
	return calendar.CivilDate{}, 0, false
}

// nearestAnnual checks the recurrence in the years around date. A day past
// the end of its month (02-29 in a common year) falls on the last day.
func nearestAnnual(md dataset.MonthDay, date calendar.CivilDate, windowDays int) (occurrence calendar.CivilDate, daysApart int, ok bool) {
	for year := date.Year - 1; year <= date.Year+1; year++ {
		day := min(md.Day, daysIn(year, md.Month))
		candidate := calendar.Date(year, md.Month, day)
		delta := date.DaysUntil(candidate)
		if abs(delta) > windowDays {
			continue
		}
		if !ok || abs(delta) < abs(daysApart) || (abs(delta) == abs(daysApart) && delta > daysApart) {
			occurrence, daysApart, ok = candidate, delta, true
		}
	}
	return occurrence, daysApart, ok
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
