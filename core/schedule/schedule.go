// Package schedule parses weekly recurring schedules of training groups and projects them
// into concrete upcoming sessions.
//
// A schedule is persisted as free-form text, either one "Day: time" entry per line:
//
//	Понедельник: 10:00 - 11:00
//	Среда: 15:00 - 16:00
//	Среда: 18:00 - 19:00
//
// or as a JSON object whose values are a label, a [start, end] pair, or a list of labels:
//
//	{"Monday": "10:00 - 11:00", "Wednesday": ["15:00 - 16:00", "18:00 - 19:00"]}
//
// Schedules come from legacy data, so nothing here returns an error for bad input:
// unparseable strings give a nil schedule, malformed times sort first and unknown days are never projected.
package schedule

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

var errInvalidTimeValue = errors.New("time value must be a string or a list of strings")

// Entry is one day of a WeeklySchedule.
type Entry struct {
	Day   string
	Value TimeValue
}

// WeeklySchedule is an ordered day -> time mapping. It is never modified once parsed.
type WeeklySchedule []Entry

// Days returns the day labels in schedule order.
func (ws WeeklySchedule) Days() []string {
	days := make([]string, 0, len(ws))
	for _, e := range ws {
		days = append(days, e.Day)
	}
	return days
}

// Get returns the value stored for the exact day label.
func (ws WeeklySchedule) Get(day string) (TimeValue, bool) {
	for _, e := range ws {
		if e.Day == day {
			return e.Value, true
		}
	}
	return TimeValue{}, false
}

// MarshalJSON writes the schedule as a JSON object, keeping the entry order.
func (ws WeeklySchedule) MarshalJSON() ([]byte, error) {
	if ws == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range ws {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Day)
		if err != nil {
			return nil, errors.Wrap(err, "marshalling day")
		}
		val, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, errors.Wrap(err, "marshalling time value")
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (ws *WeeklySchedule) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*ws = nil
		return nil
	}
	// a schedule may also be sent as its raw persisted string
	var raw string
	if err := json.Unmarshal(data, &raw); err == nil {
		*ws = Parse(raw)
		return nil
	}
	parsed, err := parseJSON(string(data), nopReport)
	if err != nil {
		return errors.Wrap(err, "decoding weekly schedule")
	}
	*ws = parsed
	return nil
}

// String renders the schedule in the text format, one line per session label.
func (ws WeeklySchedule) String() string {
	var sb strings.Builder
	for _, e := range ws {
		for _, label := range e.Value.Labels() {
			sb.WriteString(e.Day)
			sb.WriteString(": ")
			sb.WriteString(label)
			sb.WriteByte('\n')
		}
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

type slot struct {
	day   string
	label string
}

// slots flattens the schedule into one slot per session label.
func (ws WeeklySchedule) slots() []slot {
	var out []slot
	for _, e := range ws {
		for _, label := range e.Value.Labels() {
			out = append(out, slot{day: e.Day, label: label})
		}
	}
	return out
}
