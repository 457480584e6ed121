package inmemdb

import (
	"context"
	"sort"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) UpsertMark(ctx context.Context, m attendance.Mark, exec ...core.DBExecutor) (attendance.Mark, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.marks[markKey{groupID: m.GroupID, studentID: m.StudentID, date: m.Date}] = &m
	return m, nil
}

func (repo *attendanceRepository) UpsertMarks(ctx context.Context, marks []attendance.Mark) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for i := range marks {
		m := marks[i]
		repo.db.marks[markKey{groupID: m.GroupID, studentID: m.StudentID, date: m.Date}] = &m
	}
	return nil
}

func (repo *attendanceRepository) QueryMarks(ctx context.Context, groupID, from, to string, exec ...core.DBExecutor) ([]attendance.Mark, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	marks := make([]attendance.Mark, 0)
	for k, m := range repo.db.marks {
		// YYYY-MM-DD strings sort chronologically
		if k.groupID == groupID && k.date >= from && k.date <= to {
			marks = append(marks, *m)
		}
	}
	sort.Slice(marks, func(i, j int) bool {
		if marks[i].Date != marks[j].Date {
			return marks[i].Date < marks[j].Date
		}
		return marks[i].StudentID < marks[j].StudentID
	})
	return marks, nil
}
