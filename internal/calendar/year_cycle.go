package calendar

import "fmt"

// Metonic cycle constants
const (
	// CycleYears is the length of the leap-month cycle.
	CycleYears = 19

	// LeapYearsPerCycle counts years per cycle that insert Adar II.
	LeapYearsPerCycle = 7
)

// YearClass describes how the two variable months, Heshvan and Kislev,
// resolve in a given year.
type YearClass int

const (
	// Deficient years shorten Kislev to 29 days (353 or 383 days).
	Deficient YearClass = iota + 1
	// Regular years keep Heshvan at 29 and Kislev at 30 (354 or 384 days).
	Regular
	// Complete years lengthen Heshvan to 30 days (355 or 385 days).
	Complete
)

func (c YearClass) String() string {
	switch c {
	case Deficient:
		return "deficient"
	case Regular:
		return "regular"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("YearClass(%d)", int(c))
	}
}

// YearInfo summarizes the shape of one Hebrew year.
type YearInfo struct {
	Year        int       `json:"year"`
	Leap        bool      `json:"leap"`
	Length      int       `json:"length"`
	Class       YearClass `json:"class"`
	CycleYear   int       `json:"cycle_year"` // 1..19 within the Metonic cycle
	RoshHashana CivilDate `json:"rosh_hashana"`
}

// Year returns the leap flag, length and class of a Hebrew year.
func Year(year int) YearInfo {
	length := YearLength(year)
	class := Regular
	switch length % 10 {
	case 3:
		class = Deficient
	case 5:
		class = Complete
	}
	return YearInfo{
		Year:        year,
		Leap:        IsLeapYear(year),
		Length:      length,
		Class:       class,
		CycleYear:   mod(year-1, CycleYears) + 1,
		RoshHashana: civilFromDayNumber(newYear(year)),
	}
}

// IsLeapYear reports whether a Hebrew year inserts Adar II. Years 3, 6, 8,
// 11, 14, 17 and 19 of each cycle are leap years.
func IsLeapYear(year int) bool {
	return mod(LeapYearsPerCycle*year+1, CycleYears) < LeapYearsPerCycle
}

// YearLength returns the number of days in a Hebrew year.
func YearLength(year int) int {
	return newYear(year+1) - newYear(year)
}

// MonthLength returns the number of days in a month of the given year, or
// zero when the month does not occur (Adar II outside leap years).
func MonthLength(year int, month HebrewMonth) int {
	switch month {
	case Iyyar, Tammuz, Elul, Tevet, AdarII:
		if month == AdarII && !IsLeapYear(year) {
			return 0
		}
		return 29
	case Adar:
		if IsLeapYear(year) {
			return 30
		}
		return 29
	case Heshvan:
		if YearLength(year)%10 == 5 {
			return 30
		}
		return 29
	case Kislev:
		if YearLength(year)%10 == 3 {
			return 29
		}
		return 30
	case Nisan, Sivan, Av, Tishri, Shevat:
		return 30
	default:
		return 0
	}
}

func lastMonth(year int) HebrewMonth {
	if IsLeapYear(year) {
		return AdarII
	}
	return Adar
}

// elapsedDays counts days from the epoch to the molad of Tishri of the
// given year, applying the rule that Rosh Hashana never falls on Sunday,
// Wednesday or Friday.
func elapsedDays(year int) int {
	monthsElapsed := floorDiv(235*year-234, 19)
	partsElapsed := 12084 + 13753*monthsElapsed
	days := 29*monthsElapsed + floorDiv(partsElapsed, partsPerDay)
	if mod(3*(days+1), 7) < 3 {
		return days + 1
	}
	return days
}

// yearLengthCorrection delays the new year so that no year is 356 days
// long and no leap year is 382 days long.
func yearLengthCorrection(year int) int {
	ny0 := elapsedDays(year - 1)
	ny1 := elapsedDays(year)
	ny2 := elapsedDays(year + 1)
	switch {
	case ny2-ny1 == 356:
		return 2
	case ny1-ny0 == 382:
		return 1
	default:
		return 0
	}
}

func newYear(year int) int {
	return hebrewEpoch + elapsedDays(year) + yearLengthCorrection(year)
}
