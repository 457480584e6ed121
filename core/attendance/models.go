package attendance

import (
	"context"
	"time"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
)

// DateLayout is the format of Mark.Date and of the sheet range bounds.
const DateLayout = "2006-01-02"

// Mark records whether a student attended the group's session on Date.
// There is at most one Mark per (GroupID, StudentID, Date).
type Mark struct {
	GroupID   string    `json:"group_id"`
	StudentID string    `json:"student_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Present   bool      `json:"present"`
	Comment   string    `json:"comment"`
	MarkedBy  string    `json:"marked_by"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type MarkInput struct {
	StudentID string `json:"student_id" validate:"required,uuid"`
	Present   bool   `json:"present"`
	Comment   string `json:"comment" validate:"max=500"`
}

// SaveMarks is a batch of marks for one session day.
type SaveMarks struct {
	Date  string      `json:"date" validate:"required,datetime=2006-01-02"`
	Marks []MarkInput `json:"marks" validate:"required,min=1,dive"`
}

func (sm *SaveMarks) Validate() error {
	sm.Date = core.CleanString(sm.Date)
	for i := range sm.Marks {
		sm.Marks[i].StudentID = core.CleanString(sm.Marks[i].StudentID, true /* lower */)
		sm.Marks[i].Comment = core.CleanString(sm.Marks[i].Comment)
	}
	return core.Validate.Struct(sm)
}

type SheetFilter struct {
	From string `json:"from" query:"from" validate:"required,datetime=2006-01-02"`
	To   string `json:"to" query:"to" validate:"required,datetime=2006-01-02"`
}

func (sf *SheetFilter) Validate() error {
	sf.From = core.CleanString(sf.From)
	sf.To = core.CleanString(sf.To)
	return core.Validate.Struct(sf)
}

// Row is one scheduled day of the sheet.
type Row struct {
	Date    string   `json:"date"`
	Weekday string   `json:"weekday"`
	Display string   `json:"display"`
	Times   []string `json:"times"`
	Marks   []Mark   `json:"marks"`
}

// Sheet reconciles recorded marks with the days the group was scheduled to train.
type Sheet struct {
	GroupID  string            `json:"group_id"`
	From     string            `json:"from"`
	To       string            `json:"to"`
	Students []student.Student `json:"students"`
	Rows     []Row             `json:"rows"`
	// Extra holds marks recorded on days outside the schedule.
	Extra []Mark `json:"extra"`
}

type Repository interface {
	// UpsertMark creates the mark or replaces the existing one for the same group, student and date.
	UpsertMark(ctx context.Context, m Mark, exec ...core.DBExecutor) (Mark, error)
	// UpsertMarks saves a whole roll call, or nothing if one mark fails.
	UpsertMarks(ctx context.Context, marks []Mark) error
	// QueryMarks lists the marks of groupID dated between from and to (both included),
	// ordered by date then student.
	QueryMarks(ctx context.Context, groupID, from, to string, exec ...core.DBExecutor) ([]Mark, error)
}
