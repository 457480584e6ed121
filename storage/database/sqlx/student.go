package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
)

const studentColumns = `id, name, parent_name, phone, birth_date, group_id, is_active, created_at, updated_at`

var studentSortable = map[string]bool{
	"id": true, "name": true, "parent_name": true, "birth_date": true, "is_active": true,
	"created_at": true, "updated_at": true,
}

type (
	studentRepository struct {
		repository
	}

	studentRow struct {
		ID         string    `db:"id"`
		Name       string    `db:"name"`
		ParentName string    `db:"parent_name"`
		Phone      string    `db:"phone"`
		BirthDate  null.Time `db:"birth_date"`
		GroupID    string    `db:"group_id"`
		IsActive   bool      `db:"is_active"`
		CreatedAt  null.Time `db:"created_at"`
		UpdatedAt  null.Time `db:"updated_at"`
	}
)

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) student.Repository {
	return &studentRepository{repository{exec: exec}}
}

func (repo studentRepository) toRow(s student.Student) studentRow {
	return studentRow{
		ID:         s.ID,
		Name:       s.Name,
		ParentName: s.ParentName,
		Phone:      s.Phone,
		BirthDate:  s.BirthDate,
		GroupID:    s.GroupID,
		IsActive:   s.IsActive,
		CreatedAt:  nullTime(s.CreatedAt),
		UpdatedAt:  nullTime(s.UpdatedAt),
	}
}

func (repo studentRepository) fromRow(row studentRow) student.Student {
	return student.Student{
		ID:         row.ID,
		Name:       row.Name,
		ParentName: row.ParentName,
		Phone:      row.Phone,
		BirthDate:  row.BirthDate,
		GroupID:    row.GroupID,
		IsActive:   row.IsActive,
		CreatedAt:  row.CreatedAt.Time,
		UpdatedAt:  row.UpdatedAt.Time,
	}
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	s.ID = uuid.New().String()
	q := `INSERT INTO student (` + studentColumns + `)
		VALUES (:id, :name, :parent_name, :phone, :birth_date, :group_id, :is_active, :created_at, :updated_at)`
	if _, err := repo.getExec(exec).NamedExecContext(ctx, q, repo.toRow(s)); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return s, nil
}

func (repo studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("name ILIKE ? OR parent_name ILIKE ? OR phone ILIKE ?", val, val, val)
		}
		if filter.GroupID != "" {
			w.add("group_id::text = ?", filter.GroupID)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
	}

	exe := repo.getExec(exec)
	q := `SELECT ` + studentColumns + ` FROM student` + w.String() + orderBy(ordering, studentSortable, "name ASC, id ASC")
	var rows []studentRow
	if err := exe.SelectContext(ctx, &rows, exe.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}

	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, repo.fromRow(row))
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}
	exe := repo.getExec(exec)
	var row studentRow
	q := `SELECT ` + studentColumns + ` FROM student WHERE id = ?`
	if err := exe.GetContext(ctx, &row, exe.Rebind(q), id); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.ErrNotFound, "finding student")
	}
	return repo.fromRow(row), nil
}

func (repo studentRepository) CountActiveStudents(ctx context.Context, groupID string, exec ...core.DBExecutor) (int, error) {
	exe := repo.getExec(exec)
	var n int
	q := `SELECT COUNT(*) FROM student WHERE group_id = ? AND is_active`
	if err := exe.GetContext(ctx, &n, exe.Rebind(q), groupID); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return n, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := `UPDATE student SET name = :name, parent_name = :parent_name, phone = :phone, birth_date = :birth_date,
		group_id = :group_id, is_active = :is_active, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.getExec(exec).NamedExecContext(ctx, q, repo.toRow(s))
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if err = checkAffected(res, student.ErrNotFound); err != nil {
		return student.Student{}, err
	}
	return s, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if _, err := uuid.Parse(id); err != nil {
		return student.ErrNotFound
	}
	exe := repo.getExec(exec)
	res, err := exe.ExecContext(ctx, exe.Rebind(`DELETE FROM student WHERE id = ?`), id)
	if err != nil {
		if isFKViolation(err) {
			return student.ErrInUse
		}
		return errors.Wrap(err, "deleting student")
	}
	return checkAffected(res, student.ErrNotFound)
}
