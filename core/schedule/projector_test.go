package schedule

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recordingLogger) Debug(string, ...interface{}) {}
func (l *recordingLogger) Info(string, ...interface{})  {}
func (l *recordingLogger) Error(string, ...interface{}) {}
func (l *recordingLogger) Fatal(string, ...interface{}) {}

func (l *recordingLogger) Warn(msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprint(append([]interface{}{msg, " "}, args...)...))
}

func (l *recordingLogger) contains(part string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, w := range l.warns {
		if strings.Contains(w, part) {
			return true
		}
	}
	return false
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestProjector(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)
	// Sunday 2023-01-15 21:30 UTC is already Monday in Moscow
	now := time.Date(2023, time.January, 15, 21, 30, 0, 0, time.UTC)

	log := new(recordingLogger)
	p := NewProjector(log, WithClock(fixedClock(now)), WithLocation(msk))
	assert.Equal(t, msk, p.Location())
	assert.Equal(t, "2023-01-16 00:30", p.Now().Format("2006-01-02 15:04"))

	ws := p.Parse("Понедельник: 10:00 - 11:00\nПраздник: 12:00")
	require.Len(t, ws, 2)

	got := p.NextSessions(ws, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "2023-01-16", got[0].Date.Format(dateLayout))
	assert.True(t, log.contains("schedule: unknown schedule day"))

	times := p.NextSessionTimes(ws, 1)
	require.Len(t, times, 1)
	assert.True(t, times[0].Equal(time.Date(2023, time.January, 16, 7, 0, 0, 0, time.UTC)))
}

func TestProjector_reportsDegradedInput(t *testing.T) {
	log := new(recordingLogger)
	p := NewProjector(log)

	assert.Nil(t, p.Parse("nothing to see"))
	assert.True(t, log.contains("schedule: unparseable schedule"))

	jsonLog := new(recordingLogger)
	assert.Nil(t, NewProjector(jsonLog).Parse(`{"Monday": 10}`))
	assert.True(t, jsonLog.contains("schedule: unparseable schedule"))

	p.Parse(`{"Monday": 10, "Tuesday": "19:00"}`)
	assert.True(t, log.contains("schedule: skipping schedule entry"))

	p.Sort(Parse("Monday: late"))
	assert.True(t, log.contains("schedule: malformed schedule time"))
}

func TestProjector_nilLogger(t *testing.T) {
	p := NewProjector(nil, WithClock(fixedClock(time.Date(2023, time.January, 15, 12, 0, 0, 0, time.UTC))))
	assert.Empty(t, p.NextSessions(p.Parse("Holiday: 10:00"), 3))
	assert.Len(t, p.Occurrences(p.Parse("Monday: 10:00"), p.Now(), p.Now().AddDate(0, 0, 13)), 2)
}

func TestCalendar(t *testing.T) {
	sunday := time.Date(2023, time.January, 15, 12, 0, 0, 0, time.UTC)
	sessions := NextSessions(Parse("Monday: 10:00 - 11:30\nWednesday: 18:00"), 3, sunday)
	require.Len(t, sessions, 3)

	out := Calendar(CalendarInfo{ID: "42", Name: "Футбол U10", Location: "Зал 1"}, sessions, time.Hour, sunday)

	cal, err := ics.ParseCalendar(strings.NewReader(out))
	require.NoError(t, err)
	events := cal.Events()
	require.Len(t, events, 3)

	first := events[0]
	assert.Equal(t, "42-20230116T1000@sportschool", first.Id())
	assert.Equal(t, "Футбол U10", first.GetProperty(ics.ComponentPropertySummary).Value)
	assert.Equal(t, "Зал 1", first.GetProperty(ics.ComponentPropertyLocation).Value)
	assert.Equal(t, "20230116T100000Z", first.GetProperty(ics.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20230116T113000Z", first.GetProperty(ics.ComponentPropertyDtEnd).Value)

	// no end in the label: the default session length applies
	assert.Equal(t, "20230118T190000Z", events[1].GetProperty(ics.ComponentPropertyDtEnd).Value)
}
