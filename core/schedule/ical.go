package schedule

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarInfo describes the feed sessions are exported under.
type CalendarInfo struct {
	ID       string // stable identifier, used in event UIDs
	Name     string // event summary
	Location string
}

// Calendar renders sessions as an iCalendar feed.
// Sessions whose label has no end last sessionLength.
func Calendar(info CalendarInfo, sessions []Session, sessionLength time.Duration, stamp time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//SportSchool CRM//Group schedule//RU")

	for _, s := range sessions {
		start := s.Start()
		event := cal.AddEvent(fmt.Sprintf("%s-%s@sportschool", info.ID, start.UTC().Format("20060102T1504")))
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(s.End(sessionLength))
		event.SetSummary(info.Name)
		if info.Location != "" {
			event.SetLocation(info.Location)
		}
	}
	return cal.Serialize()
}
