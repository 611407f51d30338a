package echoapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strconv"
	"testing"

	. "github.com/ssacademy/backoffice/apps/api/echo"
	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/attendance"
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
	"github.com/ssacademy/backoffice/core/user"
	inmemdb "github.com/ssacademy/backoffice/storage/database/inmem"
	"github.com/ssacademy/backoffice/tests"
)

type testApp struct {
	conf        *core.Config
	server      *Server
	db          *inmemdb.DB
	usrRepo     user.Repository
	studentRepo student.Repository
	feeRepo     fee.Repository
	batchRepo   batch.Repository
	admin       user.User
	teacher     user.User
}

func setup(t *testing.T) *testApp {
	conf := testutil.NewConfig()
	logger := testutil.NewLogger(conf)
	validate, translator := testutil.NewValidator()

	db := inmemdb.Open()
	app := &testApp{
		conf:        conf,
		db:          db,
		usrRepo:     inmemdb.NewUserRepository(db),
		studentRepo: inmemdb.NewStudentRepository(db),
		feeRepo:     inmemdb.NewFeeRepository(db),
		batchRepo:   inmemdb.NewBatchRepository(db),
	}
	batchSvc := batch.NewService(app.batchRepo)

	app.server = NewServer(ServerDeps{
		Conf:           conf,
		Logger:         logger,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        user.NewService(app.usrRepo),
		StudentSvc:     student.NewService(app.studentRepo),
		FeeSvc:         fee.NewService(app.feeRepo),
		BatchSvc:       batchSvc,
		AttendanceSvc:  attendance.NewService(attendance.Options{Repo: inmemdb.NewAttendanceRepository(db), Batches: batchSvc}),
		DisableReqLogs: true,
	})

	app.admin = testutil.CreateUser(t, app.usrRepo, "Admin", "admin", "Sup3rS3cret!", user.RoleAdmin, true)
	app.teacher = testutil.CreateUser(t, app.usrRepo, "Ms Rao", "teacher", "Sup3rS3cret!", user.RoleTeacher, true)
	return app
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	token, err := GenerateToken(app.conf, GetUserClaims(app.conf, usr))
	if err != nil {
		t.Fatalf("token(): %v", err)
	}
	return token
}

func (app *testApp) do(req *http.Request, rec *httptest.ResponseRecorder) {
	app.server.ServeHTTP(rec, req)
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

func (app *testApp) run(t *testing.T, tests []httpTest) {
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			method := tt.method
			if method == "" {
				method = http.MethodGet
			}
			req, rec := newAuthRequest(method, tt.path, tt.token, tt.body)
			app.do(req, rec)
			checkCodeAndData(t, tt, rec)
		})
	}
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

func marshallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

// success builds a success envelope.
func success(t *testing.T, fields map[string]interface{}) []byte {
	body := map[string]interface{}{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	return marshallObj(t, body)
}

// failure builds an error envelope; fields may be nil.
func failure(t *testing.T, msg string, fields map[string]string) []byte {
	body := map[string]interface{}{"success": false, "error": msg}
	if fields != nil {
		body["fields"] = fields
	}
	return marshallObj(t, body)
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
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
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

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decodeBody(): %v; body %s", err, rec.Body.String())
	}
	return body
}

func itoa(i int) string { return strconv.Itoa(i) }
