package schedule

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// dayTokens maps lower-cased day labels to their weekday.
// Full names and the usual short forms are accepted in Russian and English.
var dayTokens = map[string]time.Weekday{
	"понедельник": time.Monday, "пн": time.Monday, "пон": time.Monday,
	"вторник": time.Tuesday, "вт": time.Tuesday, "вто": time.Tuesday,
	"среда": time.Wednesday, "ср": time.Wednesday, "сре": time.Wednesday,
	"четверг": time.Thursday, "чт": time.Thursday, "чет": time.Thursday,
	"пятница": time.Friday, "пт": time.Friday, "пят": time.Friday,
	"суббота": time.Saturday, "сб": time.Saturday, "суб": time.Saturday,
	"воскресенье": time.Sunday, "вс": time.Sunday, "вос": time.Sunday,

	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

var weekdayNames = map[language.Tag][7]string{
	language.Russian: {"воскресенье", "понедельник", "вторник", "среда", "четверг", "пятница", "суббота"},
	language.English: {"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"},
}

// unknownDayOrder sorts unresolvable labels after Sunday (7).
const unknownDayOrder = 8

// ResolveWeekday maps a day label such as "Понедельник", "monday" or "Пн" to its weekday.
func ResolveWeekday(label string) (time.Weekday, bool) {
	wd, ok := dayTokens[strings.ToLower(strings.TrimSpace(label))]
	return wd, ok
}

// isoDay numbers weekdays Monday=1 .. Sunday=7.
func isoDay(wd time.Weekday) int {
	if wd == time.Sunday {
		return 7
	}
	return int(wd)
}

// DayOrder returns the Monday-first position (1..7) of a day label, 8 when unknown.
func DayOrder(label string) int {
	if wd, ok := ResolveWeekday(label); ok {
		return isoDay(wd)
	}
	return unknownDayOrder
}

// SortWeekdays returns the labels in canonical week order.
// Unknown labels come last in their input order.
func SortWeekdays(days []string) []string {
	sorted := make([]string, len(days))
	copy(sorted, days)
	sort.SliceStable(sorted, func(i, j int) bool { return DayOrder(sorted[i]) < DayOrder(sorted[j]) })
	return sorted
}

// WeekdayName is the capitalized display name of wd, Russian unless English is requested.
func WeekdayName(wd time.Weekday, tag language.Tag) string {
	names, ok := weekdayNames[tag]
	if !ok {
		tag = language.Russian
		names = weekdayNames[tag]
	}
	return cases.Title(tag).String(names[wd])
}
