package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/text/language"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
)

// maxSheetDays keeps a sheet within a year.
const maxSheetDays = 366

var (
	errStudentNotInGroup = errors.New("student is not a member of this group")
	errBadRange          = errors.New("to cannot be before from")
	errRangeTooLong      = errors.Errorf("range cannot exceed %d days", maxSheetDays)
)

type (
	Service interface {
		SaveMarks(ctx context.Context, g group.Group, sm SaveMarks, markedBy string) ([]Mark, error)
		Sheet(ctx context.Context, g group.Group, filter SheetFilter) (Sheet, error)
	}

	service struct {
		repo       Repository
		studentSvc student.Service
		groupSvc   group.Service
		projector  *schedule.Projector
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, studentSvc student.Service, groupSvc group.Service, projector *schedule.Projector) Service {
	return &service{repo: repo, studentSvc: studentSvc, groupSvc: groupSvc, projector: projector}
}

func (svc *service) SaveMarks(ctx context.Context, g group.Group, sm SaveMarks, markedBy string) ([]Mark, error) {
	members, err := svc.studentSvc.QueryByGroup(ctx, g.ID)
	if err != nil {
		return nil, errors.Wrap(err, "querying group students")
	}
	inGroup := make(map[string]bool, len(members))
	for _, s := range members {
		inGroup[s.ID] = true
	}

	var fieldErrs []core.FieldError
	for i, in := range sm.Marks {
		if !inGroup[in.StudentID] {
			fieldErrs = append(fieldErrs, core.FieldError{
				Field: fmt.Sprintf("marks[%d].student_id", i),
				Error: errStudentNotInGroup.Error(),
			})
		}
	}
	if len(fieldErrs) > 0 {
		return nil, core.NewValidationError(nil, fieldErrs...)
	}

	now := time.Now().UTC()
	marks := make([]Mark, 0, len(sm.Marks))
	for _, in := range sm.Marks {
		marks = append(marks, Mark{
			GroupID:   g.ID,
			StudentID: in.StudentID,
			Date:      sm.Date,
			Present:   in.Present,
			Comment:   in.Comment,
			MarkedBy:  markedBy,
			UpdatedAt: now,
		})
	}
	if err = svc.repo.UpsertMarks(ctx, marks); err != nil {
		return nil, errors.Wrap(err, "saving marks")
	}
	return marks, nil
}

func (svc *service) parseRange(filter SheetFilter) (time.Time, time.Time, error) {
	loc := svc.projector.Location()
	from, err := time.ParseInLocation(DateLayout, filter.From, loc)
	if err != nil {
		return time.Time{}, time.Time{}, core.NewFieldError("from", err.Error())
	}
	to, err := time.ParseInLocation(DateLayout, filter.To, loc)
	if err != nil {
		return time.Time{}, time.Time{}, core.NewFieldError("to", err.Error())
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, core.NewFieldError("to", errBadRange.Error())
	}
	if to.Sub(from) >= maxSheetDays*24*time.Hour {
		return time.Time{}, time.Time{}, core.NewFieldError("to", errRangeTooLong.Error())
	}
	return from, to, nil
}

func (svc *service) Sheet(ctx context.Context, g group.Group, filter SheetFilter) (Sheet, error) {
	from, to, err := svc.parseRange(filter)
	if err != nil {
		return Sheet{}, err
	}

	students, err := svc.studentSvc.QueryByGroup(ctx, g.ID)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "querying group students")
	}
	marks, err := svc.repo.QueryMarks(ctx, g.ID, filter.From, filter.To)
	if err != nil {
		return Sheet{}, errors.Wrap(err, "querying marks")
	}

	// rows follow the schedule, one per day
	var rows []Row
	index := make(map[string]int)
	for _, s := range svc.projector.Occurrences(svc.groupSvc.WeeklySchedule(g), from, to) {
		date := s.Date.Format(DateLayout)
		i, ok := index[date]
		if !ok {
			i = len(rows)
			index[date] = i
			rows = append(rows, Row{
				Date:    date,
				Weekday: schedule.WeekdayName(s.Date.Weekday(), language.Russian),
				Display: schedule.FormatDate(s.Date),
				Times:   []string{},
				Marks:   []Mark{},
			})
		}
		rows[i].Times = append(rows[i].Times, s.Time)
	}

	extra := []Mark{}
	for _, m := range marks {
		if i, ok := index[m.Date]; ok {
			rows[i].Marks = append(rows[i].Marks, m)
		} else {
			extra = append(extra, m)
		}
	}

	if rows == nil {
		rows = []Row{}
	}
	if students == nil {
		students = []student.Student{}
	}
	return Sheet{
		GroupID:  g.ID,
		From:     filter.From,
		To:       filter.To,
		Students: students,
		Rows:     rows,
		Extra:    extra,
	}, nil
}
