package principal

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ryitech/institute/core"
	emailsvc "github.com/ryitech/institute/services/email"
)

func testConfig() *core.Config {
	return &core.Config{
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

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

type fakeUploads struct {
	mu    sync.Mutex
	count int
	fail  error
}

func (u *fakeUploads) Upload(_ context.Context, _ []byte, name, folder string) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fail != nil {
		return "", u.fail
	}
	u.count++
	return fmt.Sprintf("https://uploads.local/%s/%s", folder, name), nil
}

// fakeAdminRepo is a map-backed AdminRepository.
type fakeAdminRepo struct {
	mu     sync.RWMutex
	admins map[string]Admin
}

func newFakeAdminRepo() *fakeAdminRepo { return &fakeAdminRepo{admins: make(map[string]Admin)} }

func (r *fakeAdminRepo) CreateAdmin(_ context.Context, adm Admin) (Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.admins {
		if a.Email == adm.Email {
			return Admin{}, ErrEmailExists
		}
	}
	r.admins[adm.ID] = adm
	return adm, nil
}

func (r *fakeAdminRepo) GetAdminByID(_ context.Context, id string) (Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adm, ok := r.admins[id]
	if !ok {
		return Admin{}, ErrNotFound
	}
	return adm, nil
}

func (r *fakeAdminRepo) GetAdminByEmail(_ context.Context, email string) (Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adm := range r.admins {
		if adm.Email == email {
			return adm, nil
		}
	}
	return Admin{}, ErrNotFound
}

func (r *fakeAdminRepo) GetActiveSuperAdmin(_ context.Context) (Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, adm := range r.admins {
		if adm.AdminRole == RoleSuper && adm.ActiveStatus {
			return adm, nil
		}
	}
	return Admin{}, ErrNotFound
}

func (r *fakeAdminRepo) QueryAdminsByRole(_ context.Context, role string) ([]Admin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	admins := make([]Admin, 0)
	for _, adm := range r.admins {
		if adm.AdminRole == role {
			admins = append(admins, adm)
		}
	}
	return admins, nil
}

func (r *fakeAdminRepo) LatestAdminHumanID(_ context.Context, role, branchCode string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest Admin
	found := false
	for _, adm := range r.admins {
		if adm.AdminRole != role || adm.BranchCode != branchCode {
			continue
		}
		if !found || !adm.CreatedAt.Before(latest.CreatedAt) {
			latest = adm
			found = true
		}
	}
	if !found {
		return "", ErrNotFound
	}
	return latest.HumanID, nil
}

func (r *fakeAdminRepo) UpdateAdmin(_ context.Context, adm Admin) (Admin, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[adm.ID]; !ok {
		return Admin{}, ErrNotFound
	}
	r.admins[adm.ID] = adm
	return adm, nil
}

func (r *fakeAdminRepo) DeleteAdmin(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.admins[id]; !ok {
		return ErrNotFound
	}
	delete(r.admins, id)
	return nil
}

func (r *fakeAdminRepo) DeleteAdminByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, adm := range r.admins {
		if adm.Email == email {
			delete(r.admins, id)
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeAdminRepo) DeleteExpiredUnverifiedAdmins(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, adm := range r.admins {
		if !adm.IsVerified && !adm.OTPExpiresAt.IsZero() && adm.OTPExpiresAt.Before(cutoff) {
			delete(r.admins, id)
			n++
		}
	}
	return n, nil
}

// fakeStudentRepo is a map-backed StudentRepository.
type fakeStudentRepo struct {
	mu       sync.RWMutex
	students map[string]Student
}

func newFakeStudentRepo() *fakeStudentRepo {
	return &fakeStudentRepo{students: make(map[string]Student)}
}

func (r *fakeStudentRepo) CreateStudent(_ context.Context, st Student) (Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Email == st.Email {
			return Student{}, ErrEmailExists
		}
	}
	r.students[st.ID] = st
	return st, nil
}

func (r *fakeStudentRepo) GetStudentByID(_ context.Context, id string) (Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st, ok := r.students[id]
	if !ok {
		return Student{}, ErrNotFound
	}
	return st, nil
}

func (r *fakeStudentRepo) GetStudentByEmail(_ context.Context, email string) (Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, st := range r.students {
		if st.Email == email {
			return st, nil
		}
	}
	return Student{}, ErrNotFound
}

func (r *fakeStudentRepo) GetStudentByHumanID(_ context.Context, humanID string) (Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, st := range r.students {
		if st.HumanID == humanID {
			return st, nil
		}
	}
	return Student{}, ErrNotFound
}

func (r *fakeStudentRepo) GetStudentByMobile(_ context.Context, mobile string) (Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, st := range r.students {
		if st.Mobile == mobile {
			return st, nil
		}
	}
	return Student{}, ErrNotFound
}

func (r *fakeStudentRepo) QueryStudents(_ context.Context, branchName string) ([]Student, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	students := make([]Student, 0)
	for _, st := range r.students {
		if branchName == "" || st.BranchName == branchName {
			students = append(students, st)
		}
	}
	return students, nil
}

func (r *fakeStudentRepo) LatestStudentHumanID(_ context.Context, role, branchCode string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest Student
	found := false
	for _, st := range r.students {
		if st.StudentRole != role || st.BranchCode != branchCode {
			continue
		}
		if !found || !st.CreatedAt.Before(latest.CreatedAt) {
			latest = st
			found = true
		}
	}
	if !found {
		return "", ErrNotFound
	}
	return latest.HumanID, nil
}

func (r *fakeStudentRepo) UpdateStudent(_ context.Context, st Student) (Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[st.ID]; !ok {
		return Student{}, ErrNotFound
	}
	r.students[st.ID] = st
	return st, nil
}

func (r *fakeStudentRepo) DeleteStudent(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return ErrNotFound
	}
	delete(r.students, id)
	return nil
}

func (r *fakeStudentRepo) DeleteStudentByEmail(_ context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, st := range r.students {
		if st.Email == email {
			delete(r.students, id)
			return nil
		}
	}
	return ErrNotFound
}

func (r *fakeStudentRepo) DeleteExpiredUnverifiedStudents(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, st := range r.students {
		if !st.IsVerified && !st.OTPExpiresAt.IsZero() && st.OTPExpiresAt.Before(cutoff) {
			delete(r.students, id)
			n++
		}
	}
	return n, nil
}

// fakeSeqRepo is a map-backed SequenceRepository.
type fakeSeqRepo struct {
	mu   sync.Mutex
	seqs map[string]int
}

func newFakeSeqRepo() *fakeSeqRepo { return &fakeSeqRepo{seqs: make(map[string]int)} }

func (r *fakeSeqRepo) NextSeq(_ context.Context, role, branchCode string, seed int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := role + "/" + branchCode
	if _, ok := r.seqs[key]; !ok {
		r.seqs[key] = seed
	}
	r.seqs[key]++
	return r.seqs[key], nil
}

// testEnv bundles a fully wired service over fakes for a single test.
type testEnv struct {
	conf     *core.Config
	admins   *fakeAdminRepo
	students *fakeStudentRepo
	dir      *Directory
	seq      *Sequencer
	mail     interface {
		core.EmailService
		SentMessages() []core.EmailMessage
		FailSend(error)
		Reset()
	}
	uploads *fakeUploads
	otp     *OTPEngine
	svc     *Service
	tokens  *TokenManager
	auth    *Authenticator
}

type fakeGoogle struct {
	email    string
	googleID string
	err      error
}

func (g *fakeGoogle) Verify(context.Context, string) (string, string, error) {
	return g.email, g.googleID, g.err
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	conf := testConfig()
	admins := newFakeAdminRepo()
	students := newFakeStudentRepo()
	dir := NewDirectory(admins, students)
	seq := NewSequencer(newFakeSeqRepo(), admins, students)
	mailMock := emailsvc.NewConsoleServiceMock(conf)
	uploads := new(fakeUploads)
	otp := NewOTPEngine(dir, mailMock, conf)
	tokens := NewTokenManager(conf)
	return &testEnv{
		conf:     conf,
		admins:   admins,
		students: students,
		dir:      dir,
		seq:      seq,
		mail:     mailMock,
		uploads:  uploads,
		otp:      otp,
		svc:      NewService(admins, students, dir, seq, otp, uploads, nopLogger{}),
		tokens:   tokens,
		auth:     NewAuthenticator(dir, tokens, mailMock, &fakeGoogle{}, conf),
	}
}

func createTestAdmin(t *testing.T, env *testEnv, name, email, role, branchCode string, verified, active bool) *Admin {
	t.Helper()
	ctx := context.Background()
	humanID, err := env.seq.NextID(ctx, role, branchCode)
	if err != nil {
		t.Fatalf("createTestAdmin(): %v", err)
	}
	now := time.Now().UTC()
	adm := Admin{
		ID:           uuid.NewString(),
		HumanID:      humanID,
		Name:         name,
		AdminRole:    role,
		BranchName:   "Branch " + branchCode,
		BranchCode:   branchCode,
		ActiveStatus: active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	adm.Email = email
	adm.IsVerified = verified
	adm.OTPRequestWindowStart = now
	_ = adm.SetPassword("Sup3rS3cret!")
	adm, err = env.admins.CreateAdmin(ctx, adm)
	if err != nil {
		t.Fatalf("createTestAdmin(): %v", err)
	}
	return &adm
}

func createTestStudent(t *testing.T, env *testEnv, name, email, mobile, branchName, branchCode string, verified, active bool) *Student {
	t.Helper()
	ctx := context.Background()
	humanID, err := env.seq.NextID(ctx, RoleStudent, branchCode)
	if err != nil {
		t.Fatalf("createTestStudent(): %v", err)
	}
	now := time.Now().UTC()
	st := Student{
		ID:           uuid.NewString(),
		HumanID:      humanID,
		Name:         name,
		Mobile:       mobile,
		StudentRole:  RoleStudent,
		BranchName:   branchName,
		BranchCode:   branchCode,
		ActiveStatus: active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	st.Email = email
	st.IsVerified = verified
	st.OTPRequestWindowStart = now
	_ = st.SetPassword("Sup3rS3cret!")
	st, err = env.students.CreateStudent(ctx, st)
	if err != nil {
		t.Fatalf("createTestStudent(): %v", err)
	}
	return &st
}

var otpBodyRegex = regexp.MustCompile(`Your OTP is: (\d+)`)

// lastSentOTP extracts the plaintext code from the most recent captured email.
func lastSentOTP(t *testing.T, env *testEnv) string {
	t.Helper()
	msgs := env.mail.SentMessages()
	if len(msgs) == 0 {
		t.Fatal("lastSentOTP(): no messages sent")
	}
	m := otpBodyRegex.FindStringSubmatch(msgs[len(msgs)-1].TextContent)
	if m == nil {
		t.Fatalf("lastSentOTP(): no OTP in %q", msgs[len(msgs)-1].TextContent)
	}
	return m[1]
}
