// Package calendar provides Hebrew calendar calculations and festival
// proximity for civil dates.
package calendar

import (
	"time"
)

// Day numbers used throughout this package are Rata Die: day 1 is
// January 1 of year 1 in the proleptic Gregorian calendar.
const (
	// hebrewEpoch is the Rata Die of 1 Tishri, AM 1.
	hebrewEpoch = -1373427

	// unixEpochDay is the Rata Die of 1970-01-01.
	unixEpochDay = 719163

	// partsPerDay counts halakim (1/1080 hour) in a day.
	partsPerDay = 25920
)

// HebrewMonth numbers months from Nisan, as the festival rules do.
// Tishri (7) starts the civil year; Adar is Adar I in leap years.
type HebrewMonth int

const (
	Nisan HebrewMonth = iota + 1
	Iyyar
	Sivan
	Tammuz
	Av
	Elul
	Tishri
	Heshvan
	Kislev
	Tevet
	Shevat
	Adar
	AdarII
)

// HebrewDate is an immutable date in the Hebrew calendar.
type HebrewDate struct {
	Year  int         `json:"year"`
	Month HebrewMonth `json:"month"`
	Day   int         `json:"day"`
}

// FromCivil converts a civil date to its Hebrew equivalent.
//
// The conversion runs in day numbers: the year is located from the molad
// arithmetic in newYear, then months are walked from Tishri or Nisan until
// the date falls inside one.
func FromCivil(d CivilDate) HebrewDate {
	return fromDayNumber(d.dayNumber())
}

// ToCivil converts a Hebrew date to the civil calendar. The date is not
// validated; callers wanting a guarantee check MonthLength first.
func ToCivil(h HebrewDate) CivilDate {
	return civilFromDayNumber(fixedFromHebrew(h.Year, h.Month, h.Day))
}

func fromDayNumber(n int) HebrewDate {
	// Mean year length is 35975351/98496 days.
	approx := floorDiv((n-hebrewEpoch)*98496, 35975351) + 1
	year := approx - 1
	for newYear(year+1) <= n {
		year++
	}

	month := Tishri
	if n >= fixedFromHebrew(year, Nisan, 1) {
		month = Nisan
	}
	for n > fixedFromHebrew(year, month, MonthLength(year, month)) {
		month++
	}

	return HebrewDate{
		Year:  year,
		Month: month,
		Day:   n - fixedFromHebrew(year, month, 1) + 1,
	}
}

// fixedFromHebrew returns the day number of a Hebrew date. Months before
// Tishri belong to the second half of the year, after Adar.
func fixedFromHebrew(year int, month HebrewMonth, day int) int {
	n := newYear(year) + day - 1
	if month < Tishri {
		for m := Tishri; m <= lastMonth(year); m++ {
			n += MonthLength(year, m)
		}
		for m := Nisan; m < month; m++ {
			n += MonthLength(year, m)
		}
		return n
	}
	for m := Tishri; m < month; m++ {
		n += MonthLength(year, m)
	}
	return n
}

func (d CivilDate) dayNumber() int {
	unix := d.Time().Unix()
	return int(unix/86400) + unixEpochDay
}

func civilFromDayNumber(n int) CivilDate {
	t := time.Unix(int64(n-unixEpochDay)*86400, 0).UTC()
	return CivilDate{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func mod(a, b int) int {
	return a - b*floorDiv(a, b)
}
