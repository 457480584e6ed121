package schedule

import (
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"golang.org/x/text/language"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want WeeklySchedule
	}{
		{name: "empty", in: ""},
		{name: "blank", in: "  \n\t "},
		{name: "garbage", in: "garbage"},
		{name: "empty object", in: "{}"},
		{name: "malformed json", in: `{"Monday" 10}`},
		{name: "json number value", in: `{"Monday": 10}`},
		{name: "json empty string value", in: `{"Monday": ""}`},
		{name: "json null and object values", in: `{"Monday": null, "Tuesday": {"a": 1}}`},
		{
			name: "text single",
			in:   "Monday: 10:00 - 11:00",
			want: WeeklySchedule{{Day: "Monday", Value: SingleValue("10:00 - 11:00")}},
		},
		{
			name: "text list promotion",
			in:   "Monday: 10:00 - 11:00\nMonday: 12:00 - 13:00",
			want: WeeklySchedule{{Day: "Monday", Value: MultipleValue("10:00 - 11:00", "12:00 - 13:00")}},
		},
		{
			name: "text skips blank and non matching lines",
			in:   "Понедельник: 10:00 - 11:00\n\nнет расписания\r\nСреда:  18:00 - 19:00  \r\n",
			want: WeeklySchedule{
				{Day: "Понедельник", Value: SingleValue("10:00 - 11:00")},
				{Day: "Среда", Value: SingleValue("18:00 - 19:00")},
			},
		},
		{
			name: "text keeps unknown labels",
			in:   "Monday: 10:00\nHoliday: 12:00",
			want: WeeklySchedule{
				{Day: "Monday", Value: SingleValue("10:00")},
				{Day: "Holiday", Value: SingleValue("12:00")},
			},
		},
		{
			name: "text fallback when not starting with a day",
			in:   "Зал 1: 10:00 - 11:00",
			want: WeeklySchedule{{Day: "Зал 1", Value: SingleValue("10:00 - 11:00")}},
		},
		{
			name: "json keeps key order",
			in:   `{"Wednesday": "15:00 - 16:00", "Monday": "10:00 - 11:00"}`,
			want: WeeklySchedule{
				{Day: "Wednesday", Value: SingleValue("15:00 - 16:00")},
				{Day: "Monday", Value: SingleValue("10:00 - 11:00")},
			},
		},
		{
			name: "json range pair",
			in:   `{"Monday": ["10:00", "11:00"]}`,
			want: WeeklySchedule{{Day: "Monday", Value: RangeValue("10:00", "11:00")}},
		},
		{
			name: "json label list",
			in:   `{"Wednesday": ["15:00 - 16:00", "18:00 - 19:00"]}`,
			want: WeeklySchedule{{Day: "Wednesday", Value: MultipleValue("15:00 - 16:00", "18:00 - 19:00")}},
		},
		{
			name: "json list of pairs",
			in:   `{"Friday": [["09:00", "10:00"], ["17:30", "19:00"]]}`,
			want: WeeklySchedule{{Day: "Friday", Value: MultipleValue("09:00 - 10:00", "17:30 - 19:00")}},
		},
		{
			name: "json skips unusable values",
			in:   `{"Monday": 10, "Tuesday": "", "Friday": "18:00 - 19:00"}`,
			want: WeeklySchedule{{Day: "Friday", Value: SingleValue("18:00 - 19:00")}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.in))
		})
	}
}

func TestParseNull(t *testing.T) {
	assert.Nil(t, ParseNull(null.String{}))
	assert.Nil(t, ParseNull(null.StringFrom("")))
	assert.Equal(t,
		WeeklySchedule{{Day: "Пн", Value: SingleValue("10:00 - 11:00")}},
		ParseNull(null.StringFrom("Пн: 10:00 - 11:00")),
	)
}

func TestParse_jsonRoundTrip(t *testing.T) {
	inputs := []string{
		`{"Monday": "10:00 - 11:00", "Wednesday": ["15:00 - 16:00", "18:00 - 19:00"]}`,
		`{"Monday": ["10:00", "11:00"]}`,
		`{"Friday": [["09:00", "10:00"], ["17:30", "19:00"]], "Holiday": "12:00"}`,
		`{"Суббота": ["10:00"], "Воскресенье": ["10:00", ["12:00", "13:00"]]}`,
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			parsed := Parse(in)
			require.NotNil(t, parsed)
			data, err := json.Marshal(parsed)
			require.NoError(t, err)
			assert.Equal(t, parsed, Parse(string(data)))
		})
	}
}

func TestWeeklySchedule_UnmarshalJSON(t *testing.T) {
	var body struct {
		Schedule WeeklySchedule `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"schedule": {"Monday": ["10:00", "11:00"]}}`), &body))
	assert.Equal(t, WeeklySchedule{{Day: "Monday", Value: RangeValue("10:00", "11:00")}}, body.Schedule)

	require.NoError(t, json.Unmarshal([]byte(`{"schedule": "Вт: 19:00 - 20:30"}`), &body))
	assert.Equal(t, WeeklySchedule{{Day: "Вт", Value: SingleValue("19:00 - 20:30")}}, body.Schedule)

	assert.Error(t, json.Unmarshal([]byte(`{"schedule": {}}`), &body))
}

func TestWeeklySchedule_String(t *testing.T) {
	ws := Parse(`{"Monday": "10:00 - 11:00", "Wednesday": ["15:00 - 16:00", "18:00 - 19:00"]}`)
	want := "Monday: 10:00 - 11:00\nWednesday: 15:00 - 16:00\nWednesday: 18:00 - 19:00"
	assert.Equal(t, want, ws.String())
	assert.Equal(t, ws.String(), Parse(ws.String()).String())
}

func TestResolveWeekday(t *testing.T) {
	tests := []struct {
		label  string
		want   time.Weekday
		wantOk bool
	}{
		{label: "Monday", want: time.Monday, wantOk: true},
		{label: " понедельник ", want: time.Monday, wantOk: true},
		{label: "ВС", want: time.Sunday, wantOk: true},
		{label: "thurs", want: time.Thursday, wantOk: true},
		{label: "Суббота", want: time.Saturday, wantOk: true},
		{label: "Holiday"},
		{label: ""},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, ok := ResolveWeekday(tt.label)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSortWeekdays(t *testing.T) {
	assert.Equal(t,
		[]string{"Monday", "Tuesday", "Saturday", "Sunday"},
		SortWeekdays([]string{"Sunday", "Tuesday", "Saturday", "Monday"}),
	)
	assert.Equal(t,
		[]string{"Понедельник", "Среда", "Воскресенье", "Зал", "Holiday"},
		SortWeekdays([]string{"Зал", "Воскресенье", "Holiday", "Среда", "Понедельник"}),
	)
}

func TestWeekdayName(t *testing.T) {
	assert.Equal(t, "Понедельник", WeekdayName(time.Monday, language.Russian))
	assert.Equal(t, "Sunday", WeekdayName(time.Sunday, language.English))
	assert.Equal(t, "Среда", WeekdayName(time.Wednesday, language.German))
}

func TestTimeToMinutes(t *testing.T) {
	tests := map[string]int{
		"10:30":         630,
		"10:30 - 11:45": 630,
		"9.15":          555,
		"07:05–08:00":   425,
		"18:00:00":      1080,
		"garbage":       0,
		"25:00":         0,
		"":              0,
	}
	for in, want := range tests {
		assert.Equal(t, want, TimeToMinutes(in), in)
	}
}

func TestSortSchedule(t *testing.T) {
	ws := Parse(`{"Sunday": "12:00", "Holiday": "09:00", "Wednesday": ["18:00 - 19:00", "garbage", "15:00 - 16:00"], "Monday": ["10:00", "11:00"]}`)
	want := WeeklySchedule{
		{Day: "Monday", Value: RangeValue("10:00", "11:00")},
		{Day: "Wednesday", Value: MultipleValue("garbage", "15:00 - 16:00", "18:00 - 19:00")},
		{Day: "Sunday", Value: SingleValue("12:00")},
		{Day: "Holiday", Value: SingleValue("09:00")},
	}
	assert.Equal(t, want, SortSchedule(ws))
	assert.Nil(t, SortSchedule(nil))

	// the input is left untouched
	assert.Equal(t, "Sunday", ws[0].Day)
}

func TestHorizon(t *testing.T) {
	assert.Equal(t, 14, Horizon(nil))
	assert.Equal(t, 14, Horizon(Parse("Monday: 10:00")))
	assert.Equal(t, 14, Horizon(Parse("Monday: 10:00\nThursday: 10:00")))
	assert.Equal(t, 14, Horizon(Parse("Holiday: 10:00")))

	// every weekday combination stays within the bounds
	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	for mask := 1; mask < 1<<len(days); mask++ {
		var lines []string
		for i, d := range days {
			if mask&(1<<i) != 0 {
				lines = append(lines, d+": 10:00")
			}
		}
		h := Horizon(Parse(strings.Join(lines, "\n")))
		assert.True(t, h >= minHorizonDays && h <= maxHorizonDays, "mask %b: %d", mask, h)
	}
}

func TestNextSessions(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	sunday := time.Date(2023, time.January, 15, 12, 0, 0, 0, msk)
	ws := Parse(`{"Monday": "10:00 - 11:00", "Wednesday": ["15:00 - 16:00", "18:00 - 19:00"]}`)
	date := func(day int) time.Time { return time.Date(2023, time.January, day, 0, 0, 0, 0, msk) }

	t.Run("next three", func(t *testing.T) {
		want := []Session{
			{Date: date(16), Time: "10:00 - 11:00"},
			{Date: date(18), Time: "15:00 - 16:00"},
			{Date: date(18), Time: "18:00 - 19:00"},
		}
		assert.Equal(t, want, NextSessions(ws, 3, sunday))
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.Empty(t, NextSessions(nil, 5, sunday))
		assert.Empty(t, NextSessions(Parse(""), 5, sunday))
		assert.Empty(t, NextSessions(ws, 0, sunday))
		assert.Empty(t, NextSessions(ws, -1, sunday))
		assert.Empty(t, NextSessions(Parse("Holiday: 10:00\nЗал: 12:00"), 5, sunday))
	})

	t.Run("unknown days are skipped", func(t *testing.T) {
		got := NextSessions(Parse("Holiday: 09:00\nTuesday: 19:00 - 20:00"), 1, sunday)
		assert.Equal(t, []Session{{Date: date(17), Time: "19:00 - 20:00"}}, got)
	})

	t.Run("today only after now", func(t *testing.T) {
		ws := Parse("Sunday: 11:00 - 12:00\nSunday: 12:00 - 13:00\nSunday: 18:00 - 19:00")
		got := NextSessions(ws, 2, sunday)
		assert.Equal(t, []Session{
			{Date: date(15), Time: "18:00 - 19:00"},
			{Date: date(22), Time: "11:00 - 12:00"},
		}, got)
	})

	t.Run("horizon bounds sparse schedules", func(t *testing.T) {
		got := NextSessions(Parse("Monday: 10:00 - 11:00"), 10, sunday)
		assert.Equal(t, []Session{
			{Date: date(16), Time: "10:00 - 11:00"},
			{Date: date(23), Time: "10:00 - 11:00"},
		}, got)
	})

	t.Run("bounded, monotonic, strictly future and ordered", func(t *testing.T) {
		prev := 0
		for n := 1; n <= 8; n++ {
			got := NextSessions(ws, n, sunday)
			assert.LessOrEqual(t, len(got), n)
			assert.GreaterOrEqual(t, len(got), prev)
			for i, s := range got {
				assert.True(t, s.Start().After(sunday), s)
				if i > 0 {
					assert.False(t, s.Date.Before(got[i-1].Date), s)
				}
			}
			prev = len(got)
		}
		assert.Equal(t, NextSessions(ws, 3, sunday), NextSessions(ws, 4, sunday)[:3])
	})
}

func TestNextSessionTimes(t *testing.T) {
	sunday := time.Date(2023, time.January, 15, 12, 0, 0, 0, time.UTC)
	ws := Parse(`{"Wednesday": ["15:00 - 16:00", "18:30"]}`)
	want := []time.Time{
		time.Date(2023, time.January, 18, 15, 0, 0, 0, time.UTC),
		time.Date(2023, time.January, 18, 18, 30, 0, 0, time.UTC),
	}
	assert.Equal(t, want, NextSessionTimes(ws, 2, sunday))
	assert.Empty(t, NextSessionTimes(nil, 2, sunday))
}

func TestSession_End(t *testing.T) {
	day := time.Date(2023, time.January, 16, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return time.Date(2023, time.January, 16, h, m, 0, 0, time.UTC) }

	assert.Equal(t, at(11, 30), Session{Date: day, Time: "10:00 - 11:30"}.End(time.Hour))
	assert.Equal(t, at(11, 0), Session{Date: day, Time: "10:00"}.End(time.Hour))
	assert.Equal(t, at(10, 45), Session{Date: day, Time: "10:00 - 09:00"}.End(45*time.Minute))
}

func TestSession_MarshalJSON(t *testing.T) {
	s := Session{Date: time.Date(2023, time.January, 16, 0, 0, 0, 0, time.UTC), Time: "10:00 - 11:00"}
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `{"date": "2023-01-16", "time": "10:00 - 11:00", "start": "2023-01-16T10:00:00Z"}`, string(data))
}

func TestOccurrences(t *testing.T) {
	ws := Parse("Monday: 10:00 - 11:00\nThursday: 18:00 - 19:00\nHoliday: 12:00")
	from := time.Date(2023, time.January, 1, 15, 0, 0, 0, time.UTC)
	to := time.Date(2023, time.January, 12, 0, 0, 0, 0, time.UTC)

	got := Occurrences(ws, from, to)
	require.Len(t, got, 4)
	assert.Equal(t, "2023-01-02", got[0].Date.Format(dateLayout))
	assert.Equal(t, "2023-01-05", got[1].Date.Format(dateLayout))
	assert.Equal(t, "2023-01-09", got[2].Date.Format(dateLayout))
	assert.Equal(t, "2023-01-12", got[3].Date.Format(dateLayout))
	assert.Equal(t, "18:00 - 19:00", got[1].Time)

	assert.Empty(t, Occurrences(ws, to, from))
	assert.Empty(t, Occurrences(nil, from, to))
}

func TestFormatDateTime(t *testing.T) {
	got := FormatDateTime(time.Date(2023, time.January, 15, 10, 30, 0, 0, time.UTC))
	assert.True(t, strings.Contains(got, "января 2023"), got)
	assert.True(t, strings.HasSuffix(got, "10:30"), got)

	got, err := FormatDateTimeString("2023-01-15T10:30:00+03:00", time.FixedZone("MSK", 3*60*60))
	require.NoError(t, err)
	assert.True(t, strings.Contains(got, "15 января 2023"), got)
	assert.True(t, strings.HasSuffix(got, "10:30"), got)

	_, err = FormatDateTimeString("15/01/2023", time.UTC)
	assert.Error(t, err)
}
