package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/attendance"
)

type (
	attendanceRepository struct {
		repository
	}

	markRow struct {
		GroupID   string      `db:"group_id"`
		StudentID string      `db:"student_id"`
		Date      string      `db:"date"`
		Present   bool        `db:"present"`
		Comment   string      `db:"comment"`
		MarkedBy  null.String `db:"marked_by"`
		UpdatedAt time.Time   `db:"updated_at"`
	}
)

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(exec core.DBExecutor) attendance.Repository {
	return &attendanceRepository{repository{exec: exec}}
}

func (repo attendanceRepository) UpsertMark(ctx context.Context, m attendance.Mark, exec ...core.DBExecutor) (attendance.Mark, error) {
	row := markRow{
		GroupID:   m.GroupID,
		StudentID: m.StudentID,
		Date:      m.Date,
		Present:   m.Present,
		Comment:   m.Comment,
		MarkedBy:  null.NewString(m.MarkedBy, m.MarkedBy != ""),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
	q := `INSERT INTO attendance_mark (group_id, student_id, date, present, comment, marked_by, updated_at)
		VALUES (:group_id, :student_id, :date, :present, :comment, :marked_by, :updated_at)
		ON CONFLICT (group_id, student_id, date) DO UPDATE SET
			present = EXCLUDED.present, comment = EXCLUDED.comment,
			marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, row); err != nil {
		return attendance.Mark{}, errors.Wrap(err, "upserting attendance mark")
	}
	return m, nil
}

func (repo attendanceRepository) UpsertMarks(ctx context.Context, marks []attendance.Mark) error {
	return core.RunInTx(ctx, repo.exec, func(tx core.DBExecutor) error {
		for _, m := range marks {
			if _, err := repo.UpsertMark(ctx, m, tx); err != nil {
				return err
			}
		}
		return nil
	})
}

func (repo attendanceRepository) QueryMarks(ctx context.Context, groupID, from, to string, exec ...core.DBExecutor) ([]attendance.Mark, error) {
	exe := repo.getExec(exec)
	q := `SELECT group_id, student_id, to_char(date, 'YYYY-MM-DD') AS date, present, comment, marked_by, updated_at
		FROM attendance_mark
		WHERE group_id = ? AND date BETWEEN ?::date AND ?::date
		ORDER BY date, student_id`
	var rows []markRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(q), groupID, from, to); err != nil {
		return nil, errors.Wrap(err, "querying attendance marks")
	}

	marks := make([]attendance.Mark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, attendance.Mark{
			GroupID:   row.GroupID,
			StudentID: row.StudentID,
			Date:      row.Date,
			Present:   row.Present,
			Comment:   row.Comment,
			MarkedBy:  row.MarkedBy.String,
			UpdatedAt: row.UpdatedAt.UTC(),
		})
	}
	return marks, nil
}
