package premium

import (
	"sort"
	"time"
)

const dateLayout = "2006-01-02"

// Holiday is a public holiday on a specific date
type Holiday struct {
	Date     time.Time
	Name     string
	Observed bool
}

type fixedHoliday struct {
	month time.Month
	day   int
	name  string
}

var fixedHolidays = []fixedHoliday{
	{time.January, 1, "New Year's Day"},
	{time.March, 21, "Human Rights Day"},
	{time.April, 27, "Freedom Day"},
	{time.May, 1, "Workers' Day"},
	{time.June, 16, "Youth Day"},
	{time.August, 9, "National Women's Day"},
	{time.September, 24, "Heritage Day"},
	{time.December, 16, "Day of Reconciliation"},
	{time.December, 25, "Christmas Day"},
	{time.December, 26, "Day of Goodwill"},
}

// Easter returns Easter Sunday for the given year using the anonymous Gregorian algorithm
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Holidays returns the public holidays of a year, including Monday observances
// of holidays that fall on a Sunday. Dates are at midnight UTC.
func Holidays(year int) []Holiday {
	var actual []Holiday
	for _, fh := range fixedHolidays {
		actual = append(actual, Holiday{
			Date: time.Date(year, fh.month, fh.day, 0, 0, 0, 0, time.UTC),
			Name: fh.name,
		})
	}
	easter := Easter(year)
	actual = append(actual,
		Holiday{Date: easter.AddDate(0, 0, -2), Name: "Good Friday"},
		Holiday{Date: easter.AddDate(0, 0, 1), Name: "Family Day"},
	)

	taken := make(map[string]bool, len(actual))
	for _, h := range actual {
		taken[h.Date.Format(dateLayout)] = true
	}

	holidays := append([]Holiday(nil), actual...)
	for _, h := range actual {
		if h.Date.Weekday() != time.Sunday {
			continue
		}
		monday := h.Date.AddDate(0, 0, 1)
		key := monday.Format(dateLayout)
		if taken[key] {
			continue
		}
		taken[key] = true
		holidays = append(holidays, Holiday{Date: monday, Name: h.Name + " (observed)", Observed: true})
	}

	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date.Before(holidays[j].Date)
	})
	return holidays
}

// HolidaysBetween returns holidays whose dates fall within [from, to] by calendar date
func HolidaysBetween(from, to time.Time) []Holiday {
	fromKey := from.Format(dateLayout)
	toKey := to.Format(dateLayout)

	var result []Holiday
	for year := from.Year(); year <= to.Year(); year++ {
		for _, h := range Holidays(year) {
			key := h.Date.Format(dateLayout)
			if key >= fromKey && key <= toKey {
				result = append(result, h)
			}
		}
	}
	return result
}
