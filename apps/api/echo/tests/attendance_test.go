package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core/attendance"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
	testutil "github.com/Brainhard-droid/sports-school-crm-sub001/tests"
)

func Test_attendanceApi(t *testing.T) {
	env := setup(t)
	manager := testutil.CreateUser(t, env.repos.Users, "Marina", "marina", "marina@test.ru", "", []string{user.RoleManager}, true)
	trainer := testutil.CreateUser(t, env.repos.Users, "Oleg", "oleg", "oleg@test.ru", "", []string{user.RoleTrainer}, true)
	stranger := testutil.CreateUser(t, env.repos.Users, "Ivan", "ivan", "ivan@test.ru", "", []string{user.RoleTrainer}, true)

	g := testutil.CreateGroup(t, env.repos.Groups, "Футбол U10", weekSchedule, trainer.ID, 3000, 0)
	other := testutil.CreateGroup(t, env.repos.Groups, "Плавание", "Вторник: 09:00", "", 2000, 0)
	petya := testutil.CreateStudent(t, env.repos.Students, "Петя", g.ID, true)
	vasya := testutil.CreateStudent(t, env.repos.Students, "Вася", g.ID, true)
	kolya := testutil.CreateStudent(t, env.repos.Students, "Коля", other.ID, true)

	path := "/v1/groups/" + g.ID + "/attendance"
	trainerToken := getToken(t, trainer)

	marks := func(date string, ids ...string) []byte {
		sm := attendance.SaveMarks{Date: date}
		for i, id := range ids {
			sm.Marks = append(sm.Marks, attendance.MarkInput{StudentID: id, Present: i == 0})
		}
		return marchallObj(t, sm)
	}

	tests := []httpTest{
		{name: "Auth required", method: http.MethodPost, path: path, body: marks("2023-01-16", petya.ID), wantCode: http.StatusUnauthorized},
		{
			name: "not their group", method: http.MethodPost, path: path, body: marks("2023-01-16", petya.ID),
			token: getToken(t, stranger), wantCode: http.StatusNotFound,
		},
		{
			name: "no marks", method: http.MethodPost, path: path, body: []byte(`{"date": "2023-01-16", "marks": []}`),
			token: trainerToken, wantCode: http.StatusBadRequest,
		},
		{
			name: "student of another group", method: http.MethodPost, path: path, body: marks("2023-01-16", petya.ID, kolya.ID),
			token: trainerToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"marks[1].student_id": "student is not a member of this group"}),
		},
		{name: "monday", method: http.MethodPost, path: path, body: marks("2023-01-16", petya.ID, vasya.ID), token: trainerToken, wantCode: http.StatusOK},
		{name: "monday again", method: http.MethodPost, path: path, body: marks("2023-01-16", vasya.ID), token: trainerToken, wantCode: http.StatusOK},
		{name: "make-up tuesday", method: http.MethodPost, path: path, body: marks("2023-01-17", petya.ID), token: getToken(t, manager), wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, env.do(tt))
		})
	}

	t.Run("bad date", func(t *testing.T) {
		rec := env.do(httpTest{method: http.MethodPost, path: path, body: marks("16.01.2023", petya.ID), token: trainerToken})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fields map[string]string
		decode(t, rec, &fields)
		assert.Contains(t, fields, "date")
	})

	t.Run("sheet", func(t *testing.T) {
		rec := env.do(httpTest{path: path + "?from=2023-01-16&to=2023-01-22", token: trainerToken})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var sheet attendance.Sheet
		decode(t, rec, &sheet)
		assert.Equal(t, g.ID, sheet.GroupID)
		require.Len(t, sheet.Students, 2)
		assert.Equal(t, vasya.ID, sheet.Students[0].ID, "students are sorted by name")

		require.Len(t, sheet.Rows, 2)
		assert.Equal(t, "2023-01-16", sheet.Rows[0].Date)
		assert.Equal(t, []string{"10:00 - 11:00"}, sheet.Rows[0].Times)
		assert.Contains(t, sheet.Rows[0].Display, "16 января 2023")
		assert.Equal(t, "Понедельник", sheet.Rows[0].Weekday)
		assert.Equal(t, "Среда", sheet.Rows[1].Weekday)
		assert.Equal(t, "2023-01-18", sheet.Rows[1].Date)
		assert.Empty(t, sheet.Rows[1].Marks)

		// the second save turned vasya's absence into a presence
		require.Len(t, sheet.Rows[0].Marks, 2)
		for _, m := range sheet.Rows[0].Marks {
			assert.Equal(t, trainer.ID, m.MarkedBy)
			assert.True(t, m.Present, m.StudentID)
		}

		require.Len(t, sheet.Extra, 1)
		assert.Equal(t, "2023-01-17", sheet.Extra[0].Date)
		assert.Equal(t, manager.ID, sheet.Extra[0].MarkedBy)
	})

	t.Run("sheet range", func(t *testing.T) {
		tests := []httpTest{
			{name: "missing bounds", path: path, token: trainerToken, wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, map[string]string{"from": "this field is required", "to": "this field is required"})},
			{name: "reversed", path: path + "?from=2023-01-22&to=2023-01-16", token: trainerToken, wantCode: http.StatusBadRequest,
				wantData: marchallObj(t, map[string]string{"to": "to cannot be before from"})},
			{name: "not their group", path: path + "?from=2023-01-16&to=2023-01-22", token: getToken(t, stranger), wantCode: http.StatusNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				checkCodeAndData(t, tt, env.do(tt))
			})
		}
	})
}
