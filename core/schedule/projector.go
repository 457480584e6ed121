package schedule

import (
	"time"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

// Projector runs the schedule operations against an injected clock and reports
// every degraded input (unparseable schedule, malformed time, unknown day) as a warning.
type Projector struct {
	log core.Logger
	now func() time.Time
	loc *time.Location
}

type Option func(*Projector)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Projector) { p.now = now }
}

// WithLocation sets the time zone sessions are projected in.
func WithLocation(loc *time.Location) Option {
	return func(p *Projector) { p.loc = loc }
}

func NewProjector(logger core.Logger, opts ...Option) *Projector {
	if logger == nil {
		logger = core.NopLogger{}
	}
	p := &Projector{log: logger, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Projector) report(msg string, fields map[string]interface{}) {
	p.log.Warn("schedule: "+msg, fields)
}

// Now is the projector's current time in its location.
func (p *Projector) Now() time.Time {
	return p.now().In(p.loc)
}

func (p *Projector) Location() *time.Location {
	return p.loc
}

func (p *Projector) Parse(s string) WeeklySchedule {
	return parse(s, p.report)
}

func (p *Projector) Sort(ws WeeklySchedule) WeeklySchedule {
	return sortSchedule(ws, p.report)
}

func (p *Projector) NextSessions(ws WeeklySchedule, count int) []Session {
	return nextSessions(ws, count, p.Now(), p.report)
}

func (p *Projector) NextSessionTimes(ws WeeklySchedule, count int) []time.Time {
	return sessionTimes(p.NextSessions(ws, count))
}

// Occurrences lists the sessions of ws between the from and to dates, in the projector's location.
func (p *Projector) Occurrences(ws WeeklySchedule, from, to time.Time) []Session {
	return occurrences(ws, from.In(p.loc), to.In(p.loc), p.report)
}
