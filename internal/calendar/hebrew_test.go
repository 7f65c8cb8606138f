package calendar

import (
	"testing"
	"time"
)

func TestFromCivil_KnownDates(t *testing.T) {
	tests := []struct {
		name  string
		civil CivilDate
		want  HebrewDate
	}{
		{"Passover 2024", Date(2024, time.April, 23), HebrewDate{5784, Nisan, 15}},
		{"Rosh Hashana 5784", Date(2023, time.September, 16), HebrewDate{5784, Tishri, 1}},
		{"Rosh Hashana 5785", Date(2024, time.October, 3), HebrewDate{5785, Tishri, 1}},
		{"Purim Katan 5784", Date(2024, time.February, 23), HebrewDate{5784, Adar, 14}},
		{"Purim 5784", Date(2024, time.March, 24), HebrewDate{5784, AdarII, 14}},
		{"Purim 5785", Date(2025, time.March, 14), HebrewDate{5785, Adar, 14}},
		{"Hanukkah 5785", Date(2024, time.December, 26), HebrewDate{5785, Kislev, 25}},
		{"Shavuot 5784", Date(2024, time.June, 12), HebrewDate{5784, Sivan, 6}},
		{"last day of 5784", Date(2024, time.October, 2), HebrewDate{5784, Elul, 29}},
		{"early century", Date(1900, time.January, 1), HebrewDate{5660, Shevat, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromCivil(tt.civil)
			if got != tt.want {
				t.Errorf("FromCivil(%s) = %+v, want %+v", tt.civil, got, tt.want)
			}
			if back := ToCivil(got); back != tt.civil {
				t.Errorf("ToCivil(%+v) = %s, want %s", got, back, tt.civil)
			}
		})
	}
}

func TestRoundTrip_SupportedRange(t *testing.T) {
	start := Date(DefaultYearRange.Min, time.January, 1)
	end := Date(DefaultYearRange.Max, time.December, 31)

	prev := FromCivil(start.AddDays(-1))
	for d := start; d != end.AddDays(1); d = d.AddDays(1) {
		h := FromCivil(d)
		if back := ToCivil(h); back != d {
			t.Fatalf("ToCivil(FromCivil(%s)) = %s", d, back)
		}
		if h.Day < 1 || h.Day > MonthLength(h.Year, h.Month) {
			t.Fatalf("FromCivil(%s) = %+v, day outside month", d, h)
		}
		// Consecutive civil days must be consecutive Hebrew days.
		if h.Day != 1 && h.Day != prev.Day+1 {
			t.Fatalf("FromCivil(%s) = %+v after %+v", d, h, prev)
		}
		prev = h
	}
}

func TestYear(t *testing.T) {
	tests := []struct {
		year   int
		leap   bool
		length int
		class  YearClass
		rosh   CivilDate
	}{
		{5784, true, 383, Deficient, Date(2023, time.September, 16)},
		{5785, false, 355, Complete, Date(2024, time.October, 3)},
		{5786, false, 354, Regular, Date(2025, time.September, 23)},
	}

	for _, tt := range tests {
		got := Year(tt.year)
		if got.Leap != tt.leap {
			t.Errorf("Year(%d).Leap = %v, want %v", tt.year, got.Leap, tt.leap)
		}
		if got.Length != tt.length {
			t.Errorf("Year(%d).Length = %d, want %d", tt.year, got.Length, tt.length)
		}
		if got.Class != tt.class {
			t.Errorf("Year(%d).Class = %s, want %s", tt.year, got.Class, tt.class)
		}
		if got.RoshHashana != tt.rosh {
			t.Errorf("Year(%d).RoshHashana = %s, want %s", tt.year, got.RoshHashana, tt.rosh)
		}
	}
}

func TestIsLeapYear_SevenPerCycle(t *testing.T) {
	for cycleStart := 5700; cycleStart < 5700+5*CycleYears; cycleStart += CycleYears {
		leaps := 0
		for y := cycleStart; y < cycleStart+CycleYears; y++ {
			if IsLeapYear(y) {
				leaps++
			}
		}
		if leaps != LeapYearsPerCycle {
			t.Errorf("cycle starting %d has %d leap years, want %d", cycleStart, leaps, LeapYearsPerCycle)
		}
	}
}

func TestYearLength_Classes(t *testing.T) {
	valid := map[int]bool{353: true, 354: true, 355: true, 383: true, 384: true, 385: true}
	for y := 5600; y <= 5900; y++ {
		length := YearLength(y)
		if !valid[length] {
			t.Fatalf("YearLength(%d) = %d", y, length)
		}
		if (length > 380) != IsLeapYear(y) {
			t.Fatalf("YearLength(%d) = %d disagrees with leap flag", y, length)
		}
	}
}

func TestMonthLength_AdarII(t *testing.T) {
	if got := MonthLength(5785, AdarII); got != 0 {
		t.Errorf("MonthLength(5785, AdarII) = %d, want 0", got)
	}
	if got := MonthLength(5784, AdarII); got != 29 {
		t.Errorf("MonthLength(5784, AdarII) = %d, want 29", got)
	}
	if got := MonthLength(5784, Adar); got != 30 {
		t.Errorf("MonthLength(5784, Adar) = %d, want 30", got)
	}
}
