package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/catalog"
	"github.com/ryitech/institute/core/principal"
	emailsvc "github.com/ryitech/institute/services/email"
	uploadsvc "github.com/ryitech/institute/services/upload"
	inmemdb "github.com/ryitech/institute/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fakeGoogle struct {
	email    string
	googleID string
	err      error
}

func (g *fakeGoogle) Verify(context.Context, string) (string, string, error) {
	return g.email, g.googleID, g.err
}

type testApp struct {
	server   *Server
	conf     *core.Config
	admins   principal.AdminRepository
	students principal.StudentRepository
	dir      *principal.Directory
	seq      *principal.Sequencer
	tokens   *principal.TokenManager
	mail     interface {
		core.EmailService
		SentMessages() []core.EmailMessage
		FailSend(error)
		Reset()
	}
	google *fakeGoogle
}

func testConfig() *core.Config {
	return &core.Config{
		Env:             "TEST",
		TestMode:        true,
		AppName:         "institute-test",
		SecretKey:       []byte("test-secret"),
		ResetSecretKey:  []byte("test-reset-secret"),
		FrontendBaseURL: "http://localhost:3000",
		Server: core.ServerConfig{
			SessionTokenDelta: 30 * 24 * time.Hour,
			ResetTokenDelta:   5 * time.Minute,
		},
		OTP: core.OTPConfig{
			Length:        6,
			AdminTTL:      10 * time.Minute,
			StudentTTL:    5 * time.Minute,
			RequestWindow: time.Hour,
			MaxRequests:   5,
			BlockDelta:    time.Hour,
		},
	}
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := testConfig()
	db := inmemdb.Open()

	adminRepo := inmemdb.NewAdminRepository(db)
	studentRepo := inmemdb.NewStudentRepository(db)
	dir := principal.NewDirectory(adminRepo, studentRepo)
	seq := principal.NewSequencer(inmemdb.NewSequenceRepository(db), adminRepo, studentRepo)

	mailMock := emailsvc.NewConsoleServiceMock(conf)
	uploads := uploadsvc.NewInmemService()
	otp := principal.NewOTPEngine(dir, mailMock, conf)
	tokens := principal.NewTokenManager(conf)
	google := new(fakeGoogle)

	principalSvc := principal.NewService(adminRepo, studentRepo, dir, seq, otp, uploads, nopLogger{})
	auth := principal.NewAuthenticator(dir, tokens, mailMock, google, conf)
	catalogSvc := catalog.NewService(
		inmemdb.NewCourseRepository(db),
		inmemdb.NewBranchRepository(db),
		inmemdb.NewTeamRepository(db),
		inmemdb.NewActivityRepository(db),
		inmemdb.NewGalleryRepository(db),
		inmemdb.NewEnquiryRepository(db),
		uploads,
		nopLogger{},
	)

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	principal.InitValidators(validate, translator)

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         nopLogger{},
		PrincipalSvc:   principalSvc,
		CatalogSvc:     catalogSvc,
		Auth:           auth,
		Tokens:         tokens,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return &testApp{
		server:   server,
		conf:     conf,
		admins:   adminRepo,
		students: studentRepo,
		dir:      dir,
		seq:      seq,
		tokens:   tokens,
		mail:     mailMock,
		google:   google,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func createAdmin(t *testing.T, app *testApp, name, email, role, branchName, branchCode string, active bool) *principal.Admin {
	t.Helper()
	ctx := context.Background()
	humanID, err := app.seq.NextID(ctx, role, branchCode)
	if err != nil {
		t.Fatalf("createAdmin(): %v", err)
	}
	now := time.Now().UTC()
	adm := principal.Admin{
		ID:           uuid.NewString(),
		HumanID:      humanID,
		Name:         name,
		AdminRole:    role,
		BranchName:   branchName,
		BranchCode:   branchCode,
		ActiveStatus: active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	adm.Email = email
	adm.IsVerified = true
	adm.OTPRequestWindowStart = now
	_ = adm.SetPassword("Sup3rS3cret!")
	adm, err = app.admins.CreateAdmin(ctx, adm)
	if err != nil {
		t.Fatalf("createAdmin(): %v", err)
	}
	return &adm
}

func createStudent(t *testing.T, app *testApp, name, email, mobile, branchName, branchCode string, active bool) *principal.Student {
	t.Helper()
	ctx := context.Background()
	humanID, err := app.seq.NextID(ctx, principal.RoleStudent, branchCode)
	if err != nil {
		t.Fatalf("createStudent(): %v", err)
	}
	now := time.Now().UTC()
	st := principal.Student{
		ID:           uuid.NewString(),
		HumanID:      humanID,
		Name:         name,
		Mobile:       mobile,
		StudentRole:  principal.RoleStudent,
		BranchName:   branchName,
		BranchCode:   branchCode,
		ActiveStatus: active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	st.Email = email
	st.IsVerified = true
	st.OTPRequestWindowStart = now
	_ = st.SetPassword("Sup3rS3cret!")
	st, err = app.students.CreateStudent(ctx, st)
	if err != nil {
		t.Fatalf("createStudent(): %v", err)
	}
	return &st
}

func getToken(t *testing.T, app *testApp, p principal.Principal) string {
	t.Helper()
	token, err := app.tokens.MakeSessionToken(p)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
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
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
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
	if reflect.TypeOf(j1) != reflect.TypeOf(j2) {
		return false, nil
	}
	// lists are compared regardless of element order
	if l1, ok := j1.([]interface{}); ok {
		return assert.ElementsMatch(new(testing.T), l1, j2), nil
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
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
