package schedule

import (
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// Kind tells which shape a TimeValue was written in.
type Kind uint8

const (
	Single   Kind = iota + 1 // "10:00 - 11:00"
	Range                    // ["10:00", "11:00"]
	Multiple                 // ["10:00 - 11:00", "18:00 - 19:00"]
)

func (k Kind) String() string {
	switch k {
	case Single:
		return "single"
	case Range:
		return "range"
	case Multiple:
		return "multiple"
	default:
		return "invalid"
	}
}

// TimeValue is the time part of a schedule day.
// Its shape is kept as written so that it serializes back the same way;
// Labels gives the normalized per-session view.
type TimeValue struct {
	kind   Kind
	values []string
}

func SingleValue(label string) TimeValue {
	return TimeValue{kind: Single, values: []string{strings.TrimSpace(label)}}
}

func RangeValue(start, end string) TimeValue {
	return TimeValue{kind: Range, values: []string{strings.TrimSpace(start), strings.TrimSpace(end)}}
}

func MultipleValue(labels ...string) TimeValue {
	vals := make([]string, 0, len(labels))
	for _, l := range labels {
		vals = append(vals, strings.TrimSpace(l))
	}
	return TimeValue{kind: Multiple, values: vals}
}

func (v TimeValue) Kind() Kind { return v.kind }

// IsList reports whether the value serializes as a JSON array.
func (v TimeValue) IsList() bool { return v.kind == Range || v.kind == Multiple }

func (v TimeValue) IsZero() bool { return v.kind == 0 || len(v.values) == 0 }

// Labels returns one "HH:MM - HH:MM" label per session held by the value.
func (v TimeValue) Labels() []string {
	switch v.kind {
	case Single, Multiple:
		labels := make([]string, len(v.values))
		copy(labels, v.values)
		return labels
	case Range:
		return []string{joinRange(v.values[0], v.values[1])}
	default:
		return nil
	}
}

// append promotes the value to Multiple and adds label to it.
func (v TimeValue) append(label string) TimeValue {
	labels := v.Labels()
	labels = append(labels, strings.TrimSpace(label))
	return TimeValue{kind: Multiple, values: labels}
}

func (v TimeValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case Single:
		return json.Marshal(v.values[0])
	case Range, Multiple:
		return json.Marshal(v.values)
	default:
		return []byte("null"), nil
	}
}

func (v *TimeValue) UnmarshalJSON(data []byte) error {
	val, ok := decodeTimeValue(data)
	if !ok {
		return errInvalidTimeValue
	}
	*v = val
	return nil
}

// decodeTimeValue accepts a string, a [start, end] pair of bare times,
// or a list whose items are labels or [start, end] pairs.
func decodeTimeValue(data []byte) (TimeValue, bool) {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		if strings.TrimSpace(str) == "" {
			return TimeValue{}, false
		}
		return SingleValue(str), true
	}

	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil || len(items) == 0 {
		return TimeValue{}, false
	}

	var strs []string
	if err := json.Unmarshal(data, &strs); err == nil && len(strs) == 2 && isBareClock(strs[0]) && isBareClock(strs[1]) {
		return RangeValue(strs[0], strs[1]), true
	}

	labels := make([]string, 0, len(items))
	for _, item := range items {
		if err := json.Unmarshal(item, &str); err == nil {
			if str = strings.TrimSpace(str); str != "" {
				labels = append(labels, str)
			}
			continue
		}
		var pair []string
		if err := json.Unmarshal(item, &pair); err == nil && len(pair) == 2 {
			labels = append(labels, joinRange(pair[0], pair[1]))
		}
	}
	if len(labels) == 0 {
		return TimeValue{}, false
	}
	return MultipleValue(labels...), true
}

func joinRange(start, end string) string {
	return strings.TrimSpace(start) + " - " + strings.TrimSpace(end)
}

// splitRange splits "HH:MM - HH:MM" into its start and end parts.
// end is empty when the label holds a single time.
func splitRange(label string) (start, end string) {
	label = strings.TrimSpace(label)
	for _, sep := range []string{"-", "–", "—"} {
		if i := strings.Index(label, sep); i >= 0 {
			return strings.TrimSpace(label[:i]), strings.TrimSpace(label[i+len(sep):])
		}
	}
	return label, ""
}

// parseClock parses "HH:MM" (or "HH.MM", seconds ignored) into minutes since midnight.
func parseClock(s string) (int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", ":")
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func isBareClock(s string) bool {
	if _, end := splitRange(s); end != "" {
		return false
	}
	_, ok := parseClock(s)
	return ok
}

// startMinutes is the start of a time label in minutes since midnight.
func startMinutes(label string) (int, bool) {
	start, _ := splitRange(label)
	return parseClock(start)
}

// TimeToMinutes converts "HH:MM", or the start of "HH:MM - HH:MM", to minutes since midnight.
// Malformed input converts to 0.
func TimeToMinutes(s string) int {
	m, _ := startMinutes(s)
	return m
}
