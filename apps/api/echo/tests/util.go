package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/Brainhard-droid/sports-school-crm-sub001/apps/api/echo"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/attendance"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/group"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/payment"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/student"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/trial"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/user"
	emailsvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/email"
	lockersvc "github.com/Brainhard-droid/sports-school-crm-sub001/services/locker"
	testutil "github.com/Brainhard-droid/sports-school-crm-sub001/tests"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app   Server
	repos testutil.Repos
	conf  *core.Config
}

// setup wires every service against fresh in-memory repositories, with the clock frozen at testutil.Now.
func setup(t *testing.T) testEnv {
	t.Helper()
	repos := testutil.NewRepos(t)

	conf := *core.Conf
	conf.Debug = false
	conf.TestMode = true
	conf.ManagerEmails = []string{"Office <office@test.ru>"}
	conf.Schedule.TrialSeats = 2
	conf.Schedule.UpcomingCount = 4

	emailsvc.ResetSent()
	mailSvc := emailsvc.NewConsoleServiceMock()
	locker := lockersvc.NewLocalLocker()
	projector := testutil.NewProjector(testutil.Now)

	usrSvc := user.NewService(repos.Users, mailSvc)
	groupSvc := group.NewService(repos.Groups, projector, &conf)
	studentSvc := student.NewService(repos.Students, repos.Groups, locker)
	trialSvc := trial.NewService(trial.Deps{
		Repo:     repos.Trials,
		GroupSvc: groupSvc,
		UserSvc:  usrSvc,
		MailSvc:  mailSvc,
		Locker:   locker,
		Conf:     &conf,
	})

	app := NewServer(&Options{
		DisableReqLogs: true,
		Conf:           &conf,
		Projector:      projector,
		UserSvc:        usrSvc,
		GroupSvc:       groupSvc,
		StudentSvc:     studentSvc,
		TrialSvc:       trialSvc,
		AttendanceSvc:  attendance.NewService(repos.Attendance, studentSvc, groupSvc, projector),
		PaymentSvc:     payment.NewService(repos.Payments, studentSvc),
	})
	return testEnv{app: app, repos: repos, conf: &conf}
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func (env testEnv) do(tt httpTest) *httptest.ResponseRecorder {
	method := tt.method
	if method == "" {
		method = http.MethodGet
	}
	req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
	env.app.ServeHTTP(rec, req)
	return rec
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	token, err := IssueToken(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dest); err != nil {
		t.Fatalf("decoding %q failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	assert.Equal(t, tt.wantCode, rec.Code, "status code")
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
