package schedule

import (
	"io"
	"regexp"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

var (
	lineRegex = regexp.MustCompile(`^\s*([^:]+?)\s*:\s*(.*?)\s*$`)

	errNotObject   = errors.New("schedule JSON must be an object")
	errEmptyObject = errors.New("schedule JSON is an empty object")
	errNoUsable    = errors.New("schedule JSON has no usable entries")
)

// reportFunc receives degraded-input notices; the Projector forwards them to its logger.
type reportFunc func(msg string, fields map[string]interface{})

func nopReport(string, map[string]interface{}) {}

// Parse reads a persisted schedule string. It returns nil when neither the text
// nor the JSON format yields at least one day.
func Parse(s string) WeeklySchedule {
	return parse(s, nopReport)
}

// ParseNull is Parse for nullable columns; a NULL value has no schedule.
func ParseNull(s null.String) WeeklySchedule {
	if !s.Valid {
		return nil
	}
	return Parse(s.String)
}

func parse(s string, report reportFunc) WeeklySchedule {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if startsWithDay(s) {
		return parseText(s)
	}
	ws, err := parseJSON(s, report)
	if err == nil {
		return ws
	}
	if err == errNoUsable { // valid JSON, reading it as text would only produce noise
		report("unparseable schedule", map[string]interface{}{"schedule": s, "json_error": err.Error()})
		return nil
	}
	if ws = parseText(s); ws == nil {
		report("unparseable schedule", map[string]interface{}{"schedule": s, "json_error": err.Error()})
	}
	return ws
}

// startsWithDay reports whether s begins with a known day label followed by a colon.
func startsWithDay(s string) bool {
	firstLine := strings.SplitN(s, "\n", 2)[0]
	i := strings.Index(firstLine, ":")
	if i <= 0 {
		return false
	}
	_, ok := ResolveWeekday(firstLine[:i])
	return ok
}

// parseText reads "<Day>: <time>" lines. A day seen twice becomes a Multiple value;
// blank and non-matching lines are skipped.
func parseText(s string) WeeklySchedule {
	var ws WeeklySchedule
	index := make(map[string]int)
	for _, line := range strings.Split(s, "\n") {
		m := lineRegex.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m == nil || m[2] == "" {
			continue
		}
		day, value := m[1], m[2]
		if i, ok := index[day]; ok {
			ws[i].Value = ws[i].Value.append(value)
			continue
		}
		index[day] = len(ws)
		ws = append(ws, Entry{Day: day, Value: SingleValue(value)})
	}
	if len(ws) == 0 {
		return nil
	}
	return ws
}

// parseJSON reads a JSON object keeping its key order.
// Values that are neither a string nor a list of strings are skipped.
func parseJSON(s string, report reportFunc) (WeeklySchedule, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	tok, err := dec.Token()
	if err != nil {
		return nil, errors.Wrap(err, "reading schedule JSON")
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errNotObject
	}

	var ws WeeklySchedule
	keys := 0
	index := make(map[string]int)
	for dec.More() {
		keys++
		tok, err = dec.Token()
		if err != nil {
			return nil, errors.Wrap(err, "reading schedule key")
		}
		day, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}
		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			return nil, errors.Wrap(err, "reading schedule value")
		}
		day = strings.TrimSpace(day)
		value, ok := decodeTimeValue(raw)
		if !ok || day == "" {
			report("skipping schedule entry", map[string]interface{}{"day": day, "value": string(raw)})
			continue
		}
		if i, ok := index[day]; ok {
			for _, label := range value.Labels() {
				ws[i].Value = ws[i].Value.append(label)
			}
			continue
		}
		index[day] = len(ws)
		ws = append(ws, Entry{Day: day, Value: value})
	}
	if _, err = dec.Token(); err != nil { // closing '}'
		return nil, errors.Wrap(err, "reading schedule JSON")
	}
	if _, err = dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after schedule JSON")
	}
	switch {
	case keys == 0:
		return nil, errEmptyObject
	case len(ws) == 0:
		return nil, errNoUsable
	}
	return ws, nil
}
