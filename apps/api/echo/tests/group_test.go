package tests

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/Brainhard-droid/sports-school-crm-sub001/apps/api/echo"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
	testutil "github.com/Brainhard-droid/sports-school-crm-sub001/tests"
)

const weekSchedule = "Понедельник: 10:00 - 11:00\nСреда: 18:00 - 19:00"

func Test_groupApi_create(t *testing.T) {
	env := setup(t)
	manager := testutil.CreateUser(t, env.repos.Users, "Marina", "marina", "marina@test.ru", "", []string{user.RoleManager}, true)
	trainer := testutil.CreateUser(t, env.repos.Users, "Oleg", "oleg", "oleg@test.ru", "", []string{user.RoleTrainer}, true)

	newGroup := func(name, sched string) []byte {
		return marchallObj(t, group.NewGroup{
			Name:       name,
			Branch:     "Центр",
			TrainerID:  trainer.ID,
			Schedule:   sched,
			MonthlyFee: decimal.NewFromInt(3000),
			Capacity:   12,
		})
	}

	tests := []httpTest{
		{name: "Auth required", body: newGroup("Футбол U10", weekSchedule), wantCode: http.StatusUnauthorized},
		{name: "trainer cannot create", body: newGroup("Футбол U10", weekSchedule), token: getToken(t, trainer), wantCode: http.StatusForbidden},
		{
			name: "unreadable schedule", body: newGroup("Футбол U10", "whenever"), token: getToken(t, manager),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"schedule": `schedule must list at least one weekday, e.g. "Понедельник: 10:00 - 11:00"`}),
		},
		{
			name: "negative fee", body: []byte(`{"name": "Футбол U10", "schedule": "Вторник: 17:00", "monthly_fee": "-1"}`),
			token: getToken(t, manager), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"monthly_fee": "cannot be negative"}),
		},
		{name: "text schedule", body: newGroup("Футбол U10", weekSchedule), token: getToken(t, manager), wantCode: http.StatusCreated},
		{
			name: "json schedule", body: newGroup("Плавание", `{"Вторник": ["09:00 - 10:00", "17:00 - 18:00"], "Суббота": "11:00"}`),
			token: getToken(t, manager), wantCode: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/groups"
			rec := env.do(tt)
			checkCodeAndData(t, tt, rec)
			if tt.wantCode == http.StatusCreated {
				var g group.Group
				decode(t, rec, &g)
				assert.NotEmpty(t, g.ID)
				assert.True(t, g.IsActive)
				assert.Equal(t, trainer.ID, g.TrainerID)
				assert.True(t, g.MonthlyFee.Equal(decimal.NewFromInt(3000)))
			}
		})
	}
}

func Test_groupApi_detail(t *testing.T) {
	env := setup(t)
	manager := testutil.CreateUser(t, env.repos.Users, "Marina", "marina", "marina@test.ru", "", []string{user.RoleManager}, true)
	trainer := testutil.CreateUser(t, env.repos.Users, "Oleg", "oleg", "oleg@test.ru", "", []string{user.RoleTrainer}, true)
	g := testutil.CreateGroup(t, env.repos.Groups, "Футбол U10", weekSchedule, trainer.ID, 3000, 0)
	empty := testutil.CreateGroup(t, env.repos.Groups, "Гимнастика", "Пятница: 16:00", "", 2500, 0)
	s := testutil.CreateStudent(t, env.repos.Students, "Петя", g.ID, true)

	managerToken, trainerToken := getToken(t, manager), getToken(t, trainer)

	tests := []httpTest{
		{name: "list", path: "/v1/groups", token: trainerToken, wantCode: http.StatusOK, wantData: marchallList(t, empty, g)},
		{name: "list search", path: "/v1/groups?search=" + url.QueryEscape("ФУТ"), token: trainerToken, wantCode: http.StatusOK, wantData: marchallList(t, g)},
		{name: "retrieve", path: "/v1/groups/" + g.ID, token: trainerToken, wantCode: http.StatusOK, wantData: marchallObj(t, g)},
		{name: "not a uuid", path: "/v1/groups/football", token: trainerToken, wantCode: http.StatusNotFound},
		{name: "unknown", path: "/v1/groups/6d2e1c4a-9b7f-4f3e-8a51-0c1d2e3f4a5b", token: trainerToken, wantCode: http.StatusNotFound},
		{name: "students", path: "/v1/groups/" + g.ID + "/students", token: trainerToken, wantCode: http.StatusOK, wantData: marchallList(t, s)},
		{name: "no students", path: "/v1/groups/" + empty.ID + "/students", token: trainerToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "trainer cannot update", method: http.MethodPut, path: "/v1/groups/" + g.ID, token: trainerToken,
			body: []byte(`{"capacity": 10}`), wantCode: http.StatusForbidden,
		},
		{
			name: "in use", method: http.MethodDelete, path: "/v1/groups/" + g.ID, token: managerToken,
			wantCode: http.StatusBadRequest,
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/groups/" + empty.ID, token: managerToken, wantCode: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, env.do(tt))
		})
	}
}

func Test_groupApi_update(t *testing.T) {
	env := setup(t)
	manager := testutil.CreateUser(t, env.repos.Users, "Marina", "marina", "marina@test.ru", "", []string{user.RoleManager}, true)
	g := testutil.CreateGroup(t, env.repos.Groups, "Футбол U10", weekSchedule, "", 3000, 0)

	tt := httpTest{
		method: http.MethodPut, path: "/v1/groups/" + g.ID, token: getToken(t, manager),
		body: []byte(`{"schedule": "Четверг: 17:30 - 19:00", "monthly_fee": "3500", "is_active": false}`),
	}
	rec := env.do(tt)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated group.Group
	decode(t, rec, &updated)
	assert.Equal(t, "Четверг: 17:30 - 19:00", updated.Schedule)
	assert.True(t, updated.MonthlyFee.Equal(decimal.NewFromInt(3500)))
	assert.False(t, updated.IsActive)
	assert.Equal(t, g.Name, updated.Name, "unset fields are kept")

	// inactive groups have no upcoming sessions
	tt = httpTest{path: "/v1/groups/" + g.ID + "/sessions", token: getToken(t, manager)}
	rec = env.do(tt)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func Test_groupApi_sessions(t *testing.T) {
	env := setup(t)
	trainer := testutil.CreateUser(t, env.repos.Users, "Oleg", "oleg", "oleg@test.ru", "", []string{user.RoleTrainer}, true)
	g := testutil.CreateGroup(t, env.repos.Groups, "Футбол U10", weekSchedule, trainer.ID, 3000, 0)
	token := getToken(t, trainer)

	rec := env.do(httpTest{path: "/v1/groups/" + g.ID + "/sessions?count=3", token: token})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var sessions []SessionView
	decode(t, rec, &sessions)
	require.Len(t, sessions, 3)

	want := []struct{ date, time string }{
		{"2023-01-16", "10:00 - 11:00"},
		{"2023-01-18", "18:00 - 19:00"},
		{"2023-01-23", "10:00 - 11:00"},
	}
	for i, w := range want {
		assert.Equal(t, w.date, sessions[i].Date)
		assert.Equal(t, w.time, sessions[i].Time)
		assert.Contains(t, sessions[i].Display, "января 2023")
	}
	assert.Equal(t, 10, sessions[0].Start.Hour())

	// default count comes from the config
	rec = env.do(httpTest{path: "/v1/groups/" + g.ID + "/sessions", token: token})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &sessions)
	assert.Len(t, sessions, env.conf.Schedule.UpcomingCount)

	for _, q := range []string{"?count=-1", "?count=many", "?count=51"} {
		rec = env.do(httpTest{path: "/v1/groups/" + g.ID + "/sessions" + q, token: token})
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func Test_groupApi_calendar(t *testing.T) {
	env := setup(t)
	g := testutil.CreateGroup(t, env.repos.Groups, "Футбол U10", weekSchedule, "", 3000, 0)

	req, rec := newRequest(http.MethodGet, "/v1/groups/"+g.ID+"/calendar.ics?count=2")
	env.app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/calendar"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), g.ID+".ics")

	body := rec.Body.String()
	assert.Contains(t, body, "BEGIN:VCALENDAR")
	assert.Contains(t, body, "SUMMARY:Футбол U10")
	assert.Contains(t, body, "LOCATION:Центр")
	assert.Equal(t, 2, strings.Count(body, "BEGIN:VEVENT"))
	assert.Contains(t, body, "20230116T100000Z")
	assert.Contains(t, body, "20230118T180000Z")

	req, rec = newRequest(http.MethodGet, "/v1/groups/6d2e1c4a-9b7f-4f3e-8a51-0c1d2e3f4a5b/calendar.ics")
	env.app.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func Test_studentApi(t *testing.T) {
	env := setup(t)
	manager := testutil.CreateUser(t, env.repos.Users, "Marina", "marina", "marina@test.ru", "", []string{user.RoleManager}, true)
	trainer := testutil.CreateUser(t, env.repos.Users, "Oleg", "oleg", "oleg@test.ru", "", []string{user.RoleTrainer}, true)
	g := testutil.CreateGroup(t, env.repos.Groups, "Футбол U10", weekSchedule, trainer.ID, 3000, 1)
	other := testutil.CreateGroup(t, env.repos.Groups, "Плавание", "Вторник: 09:00", "", 2000, 0)
	managerToken := getToken(t, manager)

	newStudent := func(name, groupID string) []byte {
		return marchallObj(t, student.NewStudent{Name: name, ParentName: "Анна", Phone: "+7 (900) 123-45-67", GroupID: groupID})
	}

	tests := []httpTest{
		{name: "trainer cannot enroll", body: newStudent("Петя", g.ID), token: getToken(t, trainer), wantCode: http.StatusForbidden},
		{
			name: "bad phone", body: []byte(`{"name": "Петя", "phone": "call me", "group_id": "` + g.ID + `"}`),
			token: managerToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"phone": "invalid phone number"}),
		},
		{
			name: "unknown group", body: newStudent("Петя", "6d2e1c4a-9b7f-4f3e-8a51-0c1d2e3f4a5b"), token: managerToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"group_id": "group not found"}),
		},
		{name: "enroll", body: newStudent("Петя", g.ID), token: managerToken, wantCode: http.StatusCreated},
		{
			name: "group full", body: newStudent("Вася", g.ID), token: managerToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"group_id": "group is full"}),
		},
		{name: "unlimited group", body: newStudent("Вася", other.ID), token: managerToken, wantCode: http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/students"
			checkCodeAndData(t, tt, env.do(tt))
		})
	}

	students, err := env.repos.Students.QueryStudents(context.Background(), &student.QueryFilter{GroupID: other.ID}, nil)
	require.NoError(t, err)
	require.Len(t, students, 1)
	vasya := students[0]

	// moving into a full group is refused
	rec := env.do(httpTest{
		method: http.MethodPut, path: "/v1/students/" + vasya.ID, token: managerToken,
		body: []byte(`{"group_id": "` + g.ID + `"}`),
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(httpTest{path: "/v1/students/" + vasya.ID, token: getToken(t, trainer)})
	require.Equal(t, http.StatusOK, rec.Code)
	var got student.Student
	decode(t, rec, &got)
	assert.Equal(t, other.ID, got.GroupID)

	testutil.CreatePayment(t, env.repos.Payments, vasya.ID, "2000", "2023-01")
	rec = env.do(httpTest{method: http.MethodDelete, path: "/v1/students/" + vasya.ID, token: managerToken})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "students with payments are kept")
}

func Test_scheduleApi_preview(t *testing.T) {
	env := setup(t)
	trainer := testutil.CreateUser(t, env.repos.Users, "Oleg", "oleg", "oleg@test.ru", "", []string{user.RoleTrainer}, true)
	token := getToken(t, trainer)

	tt := httpTest{
		method: http.MethodPost, path: "/v1/schedule/preview", token: token,
		body: marchallObj(t, PreviewRequest{Schedule: "Среда: 18:00 - 19:00\nпонедельник: 10:00 - 11:00", Count: 2}),
	}
	rec := env.do(tt)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res struct {
		Text     string        `json:"text"`
		Days     []string      `json:"days"`
		Horizon  int           `json:"horizon"`
		Sessions []SessionView `json:"sessions"`
	}
	decode(t, rec, &res)
	assert.Equal(t, []string{"понедельник", "Среда"}, res.Days)
	assert.Equal(t, "понедельник: 10:00 - 11:00\nСреда: 18:00 - 19:00", res.Text)
	assert.Equal(t, 14, res.Horizon)
	require.Len(t, res.Sessions, 2)
	assert.Equal(t, "2023-01-16", res.Sessions[0].Date)
	assert.Equal(t, "2023-01-18", res.Sessions[1].Date)

	tests := []httpTest{
		{name: "Auth required", body: []byte(`{"schedule": "Среда: 18:00"}`), wantCode: http.StatusUnauthorized},
		{
			name: "blank", body: []byte(`{"schedule": "   "}`), token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"schedule": "this field cannot be blank"}),
		},
		{
			name: "unreadable", body: []byte(`{"schedule": "[1, 2]"}`), token: token, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"schedule": "schedule could not be read"}),
		},
		{name: "too many", body: []byte(`{"schedule": "Среда: 18:00", "count": 51}`), token: token, wantCode: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.method, tt.path = http.MethodPost, "/v1/schedule/preview"
			checkCodeAndData(t, tt, env.do(tt))
		})
	}
}
