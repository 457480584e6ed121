package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
)

var errNoSchedule = errors.New("schedule could not be read")

// sessions prints the next sessions of a raw schedule or of a stored group.
func (cli *commandLine) sessions(sched, groupID string, count int) error {
	var list []schedule.Session
	if groupID != "" {
		_, sessions, err := cli.groupSvc.UpcomingSessions(context.Background(), groupID, count)
		if err != nil {
			return err
		}
		list = sessions
	} else {
		ws := cli.projector.Sort(cli.projector.Parse(sched))
		if ws == nil {
			return errNoSchedule
		}
		if count <= 0 {
			count = cli.conf.Schedule.UpcomingCount
		}
		fmt.Fprintln(cli.out, ws.String())
		fmt.Fprintln(cli.out)
		list = cli.projector.NextSessions(ws, count)
	}

	if len(list) == 0 {
		fmt.Fprintln(cli.out, "no upcoming sessions")
		return nil
	}
	for _, s := range list {
		fmt.Fprintf(cli.out, "%s  %s\n", schedule.FormatDateTime(s.Start()), s.Time)
	}
	return nil
}
