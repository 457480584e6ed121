package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = newID()
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if filter != nil {
			if filter.Search != "" && !(containsFold(s.Name, filter.Search) ||
				containsFold(s.ParentName, filter.Search) ||
				containsFold(s.Phone, filter.Search)) {
				continue
			}
			if filter.GroupID != "" && s.GroupID != filter.GroupID {
				continue
			}
			if filter.IsActive != nil && s.IsActive != *filter.IsActive {
				continue
			}
		}
		students = append(students, *s)
	}

	if ordering == nil {
		ordering = []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "id", Ascending: true}}
	}
	sort.SliceStable(students, lessFunc(ordering, func(i, j int, field string) int {
		a, b := students[i], students[j]
		switch field {
		case "id":
			return strings.Compare(a.ID, b.ID)
		case "name":
			return strings.Compare(a.Name, b.Name)
		case "parent_name":
			return strings.Compare(a.ParentName, b.ParentName)
		case "birth_date":
			return compareTime(a.BirthDate.Time, b.BirthDate.Time)
		case "is_active":
			return compareBool(a.IsActive, b.IsActive)
		case "created_at":
			return compareTime(a.CreatedAt, b.CreatedAt)
		case "updated_at":
			return compareTime(a.UpdatedAt, b.UpdatedAt)
		}
		return 0
	}))
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.students[id]; ok {
		return *s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) CountActiveStudents(ctx context.Context, groupID string, exec ...core.DBExecutor) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, s := range repo.db.students {
		if s.GroupID == groupID && s.IsActive {
			n++
		}
	}
	return n, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[s.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.students[s.ID] = &s
	return s, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[id]; !ok {
		return student.ErrNotFound
	}
	for _, p := range repo.db.payments {
		if p.StudentID == id {
			return student.ErrInUse
		}
	}

	delete(repo.db.students, id)
	for k := range repo.db.marks {
		if k.studentID == id {
			delete(repo.db.marks, k)
		}
	}
	return nil
}
