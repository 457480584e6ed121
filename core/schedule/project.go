package schedule

import (
	"sort"
	"time"

	"github.com/goccy/go-json"
)

const (
	minHorizonDays = 14
	maxHorizonDays = 21

	// maxOccurrenceDays bounds Occurrences to a year of calendar days.
	maxOccurrenceDays = 366

	dateLayout = "2006-01-02"
)

// Session is one projected occurrence of a schedule slot.
type Session struct {
	Date time.Time // midnight of the session day
	Time string    // "HH:MM - HH:MM"
}

// Start combines the session date with the start of its time label.
// A malformed label starts at midnight.
func (s Session) Start() time.Time {
	m := TimeToMinutes(s.Time)
	y, mo, d := s.Date.Date()
	return time.Date(y, mo, d, m/60, m%60, 0, 0, s.Date.Location())
}

// End is the end of the time label, or Start plus fallback when the label has no usable end.
func (s Session) End(fallback time.Duration) time.Time {
	start := s.Start()
	_, endLabel := splitRange(s.Time)
	if m, ok := parseClock(endLabel); ok {
		y, mo, d := s.Date.Date()
		if end := time.Date(y, mo, d, m/60, m%60, 0, 0, s.Date.Location()); end.After(start) {
			return end
		}
	}
	return start.Add(fallback)
}

func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Date  string    `json:"date"`
		Time  string    `json:"time"`
		Start time.Time `json:"start"`
	}{
		Date:  s.Date.Format(dateLayout),
		Time:  s.Time,
		Start: s.Start(),
	})
}

// Horizon is the number of days NextSessions looks ahead for ws: twice the longest
// gap between scheduled weekdays, kept within 14..21 days. A weekly gap never exceeds
// 7 days, so the result is 14 in practice and the upper bound only guards the walk.
func Horizon(ws WeeklySchedule) int {
	seen := make(map[int]bool)
	for _, sl := range ws.slots() {
		if wd, ok := ResolveWeekday(sl.day); ok {
			seen[isoDay(wd)] = true
		}
	}
	days := make([]int, 0, len(seen))
	for d := range seen {
		days = append(days, d)
	}
	sort.Ints(days)

	maxGap := 7
	if len(days) > 1 {
		maxGap = days[0] + 7 - days[len(days)-1]
		for i := 1; i < len(days); i++ {
			if gap := days[i] - days[i-1]; gap > maxGap {
				maxGap = gap
			}
		}
	}

	horizon := 2 * maxGap
	if horizon < minHorizonDays {
		horizon = minHorizonDays
	}
	if horizon > maxHorizonDays {
		horizon = maxHorizonDays
	}
	return horizon
}

// NextSessions returns up to count sessions of ws starting strictly after now, in
// chronological order. It walks day by day from now's date over the Horizon and
// returns what it found when the horizon runs out.
func NextSessions(ws WeeklySchedule, count int, now time.Time) []Session {
	return nextSessions(ws, count, now, nopReport)
}

// NextSessionTimes is NextSessions reduced to the bookable start instants.
func NextSessionTimes(ws WeeklySchedule, count int, now time.Time) []time.Time {
	return sessionTimes(NextSessions(ws, count, now))
}

func sessionTimes(sessions []Session) []time.Time {
	times := make([]time.Time, 0, len(sessions))
	for _, s := range sessions {
		times = append(times, s.Start())
	}
	return times
}

type daySlot struct {
	weekday time.Weekday
	label   string
}

// resolveSlots drops and reports slots whose day label is not a weekday.
func resolveSlots(ws WeeklySchedule, report reportFunc) []daySlot {
	var out []daySlot
	for _, sl := range ws.slots() {
		wd, ok := ResolveWeekday(sl.day)
		if !ok {
			report("unknown schedule day", map[string]interface{}{"day": sl.day})
			continue
		}
		if _, ok := startMinutes(sl.label); !ok {
			report("malformed schedule time", map[string]interface{}{"day": sl.day, "time": sl.label})
		}
		out = append(out, daySlot{weekday: wd, label: sl.label})
	}
	return out
}

func nextSessions(ws WeeklySchedule, count int, now time.Time, report reportFunc) []Session {
	if count <= 0 || len(ws) == 0 {
		return nil
	}
	slots := resolveSlots(ws, report)
	if len(slots) == 0 {
		return nil
	}

	var sessions []Session
	today := midnight(now)
	horizon := Horizon(ws)
	for d := 0; d < horizon; d++ {
		day := today.AddDate(0, 0, d)
		for _, sl := range slots {
			if sl.weekday != day.Weekday() {
				continue
			}
			s := Session{Date: day, Time: sl.label}
			if !s.Start().After(now) {
				continue
			}
			sessions = append(sessions, s)
			if len(sessions) == count {
				return sessions
			}
		}
	}
	return sessions
}

// Occurrences lists every session of ws dated between from and to, both days included.
// The range is capped to a year.
func Occurrences(ws WeeklySchedule, from, to time.Time) []Session {
	return occurrences(ws, from, to, nopReport)
}

func occurrences(ws WeeklySchedule, from, to time.Time, report reportFunc) []Session {
	slots := resolveSlots(ws, report)
	if len(slots) == 0 {
		return nil
	}
	first, last := midnight(from), midnight(to.In(from.Location()))

	var sessions []Session
	for d := 0; d < maxOccurrenceDays; d++ {
		day := first.AddDate(0, 0, d)
		if day.After(last) {
			break
		}
		for _, sl := range slots {
			if sl.weekday == day.Weekday() {
				sessions = append(sessions, Session{Date: day, Time: sl.label})
			}
		}
	}
	return sessions
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
