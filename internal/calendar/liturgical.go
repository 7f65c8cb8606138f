package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only accepted civil date format.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a date cannot be parsed or lies outside
// the supported civil year range.
var ErrInvalidDate = errors.New("invalid date")

// DateError describes why a requested date was rejected.
type DateError struct {
	Input  string
	Reason string
}

func (e *DateError) Error() string {
	return fmt.Sprintf("invalid date %q: %s", e.Input, e.Reason)
}

// Is lets errors.Is match DateError against ErrInvalidDate.
func (e *DateError) Is(target error) bool {
	return target == ErrInvalidDate
}

// IsInvalidDate checks if an error is an invalid date error.
func IsInvalidDate(err error) bool {
	return errors.Is(err, ErrInvalidDate)
}

// CivilDate is a Gregorian calendar date with no time component.
type CivilDate struct {
	Year  int
	Month time.Month
	Day   int
}

// Date builds a CivilDate, normalizing out-of-range days and months the
// way time.Date does.
func Date(year int, month time.Month, day int) CivilDate {
	return CivilOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// CivilOf returns the civil date of t in t's own location.
func CivilOf(t time.Time) CivilDate {
	y, m, d := t.Date()
	return CivilDate{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (CivilDate, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return CivilDate{}, &DateError{Input: s, Reason: "expected YYYY-MM-DD"}
	}
	return CivilOf(t), nil
}

// Time returns midnight UTC of the date.
func (d CivilDate) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (or earlier, for negative n).
func (d CivilDate) AddDays(n int) CivilDate {
	return civilFromDayNumber(d.dayNumber() + n)
}

// DaysUntil returns other minus d in whole days.
func (d CivilDate) DaysUntil(other CivilDate) int {
	return other.dayNumber() - d.dayNumber()
}

// IsZero reports whether d is the zero value.
func (d CivilDate) IsZero() bool {
	return d == CivilDate{}
}

func (d CivilDate) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (d CivilDate) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *CivilDate) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// YearRange bounds the civil years the correlator accepts.
type YearRange struct {
	Min int
	Max int
}

// DefaultYearRange covers 1900 through 2100.
var DefaultYearRange = YearRange{Min: 1900, Max: 2100}

// Check returns a DateError when d falls outside the range.
func (r YearRange) Check(d CivilDate) error {
	if d.Year < r.Min || d.Year > r.Max {
		return &DateError{
			Input:  d.String(),
			Reason: fmt.Sprintf("year must be between %d and %d", r.Min, r.Max),
		}
	}
	return nil
}

var monthNames = map[HebrewMonth]string{
	Nisan:   "Nisan",
	Iyyar:   "Iyyar",
	Sivan:   "Sivan",
	Tammuz:  "Tammuz",
	Av:      "Av",
	Elul:    "Elul",
	Tishri:  "Tishri",
	Heshvan: "Heshvan",
	Kislev:  "Kislev",
	Tevet:   "Tevet",
	Shevat:  "Shevat",
	Adar:    "Adar",
	AdarII:  "Adar II",
}

// Spelling variants found in curated data.
var monthAliases = map[string]HebrewMonth{
	"nisan":      Nisan,
	"iyyar":      Iyyar,
	"iyar":       Iyyar,
	"sivan":      Sivan,
	"tammuz":     Tammuz,
	"av":         Av,
	"elul":       Elul,
	"tishri":     Tishri,
	"tishrei":    Tishri,
	"heshvan":    Heshvan,
	"cheshvan":   Heshvan,
	"marheshvan": Heshvan,
	"kislev":     Kislev,
	"tevet":      Tevet,
	"shevat":     Shevat,
	"shvat":      Shevat,
	"adar":       Adar,
	"adar_i":     Adar,
	"adar_ii":    AdarII,
}

func (m HebrewMonth) String() string {
	if name, ok := monthNames[m]; ok {
		return name
	}
	return fmt.Sprintf("HebrewMonth(%d)", int(m))
}

// ParseMonth resolves a month name, ignoring case and accepting common
// transliterations. Spaces and hyphens are treated as underscores.
func ParseMonth(s string) (HebrewMonth, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	if m, ok := monthAliases[key]; ok {
		return m, nil
	}
	return 0, fmt.Errorf("unknown Hebrew month %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m HebrewMonth) MarshalText() ([]byte, error) {
	name, ok := monthNames[m]
	if !ok {
		return nil, fmt.Errorf("invalid Hebrew month %d", int(m))
	}
	return []byte(strings.ToLower(strings.ReplaceAll(name, " ", "_"))), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *HebrewMonth) UnmarshalText(b []byte) error {
	parsed, err := ParseMonth(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Anchor is a fixed Hebrew month/day rule such as "15th of Nisan".
//
// An anchor in Adar resolves to Adar II in leap years unless FirstAdar is
// set; an anchor in Adar II resolves to Adar in common years.
type Anchor struct {
	Month     HebrewMonth `yaml:"month" json:"month"`
	Day       int         `yaml:"day" json:"day"`
	FirstAdar bool        `yaml:"first_adar,omitempty" json:"first_adar,omitempty"`
}

// Validate checks the anchor names a real month and a day that exists in
// at least some years.
func (a Anchor) Validate() error {
	if _, ok := monthNames[a.Month]; !ok {
		return fmt.Errorf("invalid month %d", int(a.Month))
	}
	if a.Day < 1 || a.Day > 30 {
		return fmt.Errorf("day %d out of range 1-30", a.Day)
	}
	return nil
}

// Occurrence resolves the anchor inside a Hebrew year. ok is false when
// the day does not exist in that year's month (30 Heshvan in a regular
// year, for example).
func (a Anchor) Occurrence(year int, firstAdar bool) (date CivilDate, ok bool) {
	month := a.monthIn(year, firstAdar || a.FirstAdar)
	if a.Day < 1 || a.Day > MonthLength(year, month) {
		return CivilDate{}, false
	}
	return ToCivil(HebrewDate{Year: year, Month: month, Day: a.Day}), true
}

func (a Anchor) monthIn(year int, firstAdar bool) HebrewMonth {
	leap := IsLeapYear(year)
	switch {
	case a.Month == Adar && leap && !firstAdar:
		return AdarII
	case a.Month == AdarII && !leap:
		return Adar
	default:
		return a.Month
	}
}

func (a Anchor) String() string {
	s := fmt.Sprintf("%s of %s", Ordinal(a.Day), a.Month)
	if a.FirstAdar {
		s += " (Adar I)"
	}
	return s
}

// Ordinal returns the ordinal form of a number (1st, 2nd, 3rd, 4th, etc.)
func Ordinal(n int) string {
	switch n % 100 {
	case 11, 12, 13:
		return fmt.Sprintf("%dth", n)
	}
	switch n % 10 {
	case 1:
		return fmt.Sprintf("%dst", n)
	case 2:
		return fmt.Sprintf("%dnd", n)
	case 3:
		return fmt.Sprintf("%drd", n)
	default:
		return fmt.Sprintf("%dth", n)
	}
}
