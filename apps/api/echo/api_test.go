package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/athlete"
	"github.com/athlos-club/athlos/core/attendance"
	"github.com/athlos-club/athlos/core/branch"
	"github.com/athlos-club/athlos/core/notification"
	"github.com/athlos-club/athlos/core/payment"
	"github.com/athlos-club/athlos/core/thread"
	"github.com/athlos-club/athlos/core/user"
	emailsvc "github.com/athlos-club/athlos/services/email"
	pushsvc "github.com/athlos-club/athlos/services/push"
	"github.com/athlos-club/athlos/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testEnv struct {
	app  *server
	conf *core.Config

	usrRepo    user.Repository
	athRepo    athlete.Repository
	branchRepo branch.Repository
	usrSvc     *user.Service
}

func testConfig() *core.Config {
	return &core.Config{
		TestMode:         true,
		Env:              "TEST",
		AppName:          "Athlos",
		SecretKey:        "sekrit",
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "Athlos", Address: "noreply@localhost"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PasswordResetTimeout:      30 * time.Minute,
			InviteLinkTimeout:         24 * time.Hour,
		},
	}
}

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := testConfig()
	db := inmem.NewDB()
	tx := inmem.NewTransactor()

	usrRepo := inmem.NewUserRepository(db)
	athRepo := inmem.NewAthleteRepository(db)
	branchRepo := inmem.NewBranchRepository(db)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	pushSvc := pushsvc.NewConsoleServiceMock()
	logger := core.StdLogger{Std: log.New(io.Discard, "", 0)}

	usrSvc := user.NewService(usrRepo, tx, mailSvc, conf)
	branchSvc := branch.NewService(branchRepo)
	athSvc := athlete.NewService(athRepo, tx)
	attSvc := attendance.NewService(inmem.NewAttendanceRepository(db), athRepo, branchSvc, tx)
	paySvc := payment.NewService(inmem.NewPaymentRepository(db), athRepo)
	notifSvc := notification.NewService(inmem.NewNotificationRepository(db), pushSvc, conf)
	threadSvc := thread.NewService(inmem.NewThreadRepository(db), branchSvc, notifSvc, logger, tx)

	app := NewServer(&Options{
		DisableReqLogs: true,
		Conf:           conf,
		Logger:         logger,

		UserSvc:         usrSvc,
		BranchSvc:       branchSvc,
		AthleteSvc:      athSvc,
		AttendanceSvc:   attSvc,
		PaymentSvc:      paySvc,
		ThreadSvc:       threadSvc,
		NotificationSvc: notifSvc,
	}).(*server)

	return &testEnv{
		app:        app,
		conf:       conf,
		usrRepo:    usrRepo,
		athRepo:    athRepo,
		branchRepo: branchRepo,
		usrSvc:     usrSvc,
	}
}

// Fixtures

func (env *testEnv) createBranch(t *testing.T, name, practiceDays string) branch.Branch {
	t.Helper()
	b, err := env.branchRepo.CreateBranch(context.Background(), branch.Branch{
		Name:         name,
		PracticeDays: practiceDays,
	})
	if err != nil {
		t.Fatalf("CreateBranch() failed: %v", err)
	}
	return b
}

func (env *testEnv) createUser(t *testing.T, name, email, role string, branchID int, approved bool) user.User {
	t.Helper()
	usr := user.User{
		Name:     name,
		Email:    email,
		Role:     role,
		BranchID: branchID,
		Approved: approved,
	}
	if err := usr.SetPassword("Str0ngPassw0rd!"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := env.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func (env *testEnv) createAthlete(t *testing.T, name, email string, branchID int, approved bool) (user.User, athlete.Athlete) {
	t.Helper()
	usr := env.createUser(t, name, email, user.RoleAthlete, branchID, approved)
	ath, err := env.athRepo.GetAthleteByUserID(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetAthleteByUserID() failed: %v", err)
	}
	return usr, ath
}

func (env *testEnv) getToken(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := env.app.auth.GenerateToken(env.app.auth.GetUserClaims(usr))
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// Request plumbing

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
	extra    interface{}
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

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
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
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func itoa(n int) string { return strconv.Itoa(n) }

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response body: %v; body = %s", err, rec.Body.String())
	}
}
