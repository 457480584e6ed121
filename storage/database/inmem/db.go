package inmemdb

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/attendance"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/payment"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
)

type (
	// DB keeps every table in memory. Tables reference each other the way the SQL schema does,
	// so repositories lock the DB as a whole.
	DB struct {
		sync.RWMutex

		users    map[string]*user.User
		groups   map[string]*group.Group
		students map[string]*student.Student
		trials   map[string]*trial.Request
		marks    map[markKey]*attendance.Mark
		payments map[string]*payment.Payment
	}

	markKey struct {
		groupID, studentID, date string
	}
)

func Open() (*DB, error) {
	db := &DB{
		users:    make(map[string]*user.User),
		groups:   make(map[string]*group.Group),
		students: make(map[string]*student.Student),
		trials:   make(map[string]*trial.Request),
		marks:    make(map[markKey]*attendance.Mark),
		payments: make(map[string]*payment.Payment),
	}
	return db, nil
}

func newID() string {
	return uuid.New().String()
}

// lessFunc builds a sort.Slice less function from ordering; cmp compares items i and j on a field
// and returns 0 for fields it does not know.
func lessFunc(ordering []core.DBOrdering, cmp func(i, j int, field string) int) func(i, j int) bool {
	return func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(i, j, ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case b:
		return -1
	}
	return 1
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
