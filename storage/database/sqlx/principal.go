package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/ryitech/institute/core/principal"
)

// pq unique_violation
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

type adminRow struct {
	ID                    string     `db:"id"`
	HumanID               string     `db:"human_id"`
	Name                  string     `db:"name"`
	Role                  string     `db:"role"`
	BranchName            string     `db:"branch_name"`
	BranchCode            string     `db:"branch_code"`
	ActiveStatus          bool       `db:"active_status"`
	Email                 string     `db:"email"`
	PasswordHash          []byte     `db:"password_hash"`
	OTPHash               null.Bytes `db:"otp_hash"`
	OTPExpiresAt          null.Time  `db:"otp_expires_at"`
	IsVerified            bool       `db:"is_verified"`
	OTPRequestCount       int        `db:"otp_request_count"`
	OTPRequestWindowStart time.Time  `db:"otp_request_window_start"`
	IsBlocked             bool       `db:"is_blocked"`
	BlockedUntil          null.Time  `db:"blocked_until"`
	CreatedAt             time.Time  `db:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at"`
}

func newAdminRow(adm principal.Admin) adminRow {
	return adminRow{
		ID:                    adm.ID,
		HumanID:               adm.HumanID,
		Name:                  adm.Name,
		Role:                  adm.AdminRole,
		BranchName:            adm.BranchName,
		BranchCode:            adm.BranchCode,
		ActiveStatus:          adm.ActiveStatus,
		Email:                 adm.Email,
		PasswordHash:          adm.PasswordHash,
		OTPHash:               null.BytesFrom(adm.OTPHash),
		OTPExpiresAt:          nullTime(adm.OTPExpiresAt),
		IsVerified:            adm.IsVerified,
		OTPRequestCount:       adm.OTPRequestCount,
		OTPRequestWindowStart: adm.OTPRequestWindowStart,
		IsBlocked:             adm.IsBlocked,
		BlockedUntil:          nullTime(adm.BlockedUntil),
		CreatedAt:             adm.CreatedAt,
		UpdatedAt:             adm.UpdatedAt,
	}
}

func (r adminRow) admin() principal.Admin {
	adm := principal.Admin{
		ID:           r.ID,
		HumanID:      r.HumanID,
		Name:         r.Name,
		AdminRole:    r.Role,
		BranchName:   r.BranchName,
		BranchCode:   r.BranchCode,
		ActiveStatus: r.ActiveStatus,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	adm.Email = r.Email
	adm.PasswordHash = r.PasswordHash
	adm.OTPHash = r.OTPHash.Bytes
	adm.OTPExpiresAt = r.OTPExpiresAt.Time
	adm.IsVerified = r.IsVerified
	adm.OTPRequestCount = r.OTPRequestCount
	adm.OTPRequestWindowStart = r.OTPRequestWindowStart
	adm.IsBlocked = r.IsBlocked
	adm.BlockedUntil = r.BlockedUntil.Time
	return adm
}

func nullTime(t time.Time) null.Time {
	if t.IsZero() {
		return null.Time{}
	}
	return null.TimeFrom(t)
}

type adminRepository struct {
	db *sqlx.DB
}

func NewAdminRepository(db *sqlx.DB) principal.AdminRepository {
	return &adminRepository{db: db}
}

const adminInsert = `
INSERT INTO admin (id, human_id, name, role, branch_name, branch_code, active_status, email, password_hash,
                   otp_hash, otp_expires_at, is_verified, otp_request_count, otp_request_window_start,
                   is_blocked, blocked_until, created_at, updated_at)
VALUES (:id, :human_id, :name, :role, :branch_name, :branch_code, :active_status, :email, :password_hash,
        :otp_hash, :otp_expires_at, :is_verified, :otp_request_count, :otp_request_window_start,
        :is_blocked, :blocked_until, :created_at, :updated_at)`

const adminUpdate = `
UPDATE admin
SET human_id                 = :human_id,
    name                     = :name,
    role                     = :role,
    branch_name              = :branch_name,
    branch_code              = :branch_code,
    active_status            = :active_status,
    email                    = :email,
    password_hash            = :password_hash,
    otp_hash                 = :otp_hash,
    otp_expires_at           = :otp_expires_at,
    is_verified              = :is_verified,
    otp_request_count        = :otp_request_count,
    otp_request_window_start = :otp_request_window_start,
    is_blocked               = :is_blocked,
    blocked_until            = :blocked_until,
    updated_at               = :updated_at
WHERE id = :id`

func (repo *adminRepository) CreateAdmin(ctx context.Context, adm principal.Admin) (principal.Admin, error) {
	if _, err := repo.db.NamedExecContext(ctx, adminInsert, newAdminRow(adm)); err != nil {
		if isUniqueViolation(err) {
			return principal.Admin{}, principal.ErrEmailExists
		}
		return principal.Admin{}, err
	}
	return adm, nil
}

func (repo *adminRepository) getAdmin(ctx context.Context, query string, args ...interface{}) (principal.Admin, error) {
	var row adminRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return principal.Admin{}, principal.ErrNotFound
		}
		return principal.Admin{}, err
	}
	return row.admin(), nil
}

func (repo *adminRepository) GetAdminByID(ctx context.Context, id string) (principal.Admin, error) {
	return repo.getAdmin(ctx, `SELECT * FROM admin WHERE id = $1`, id)
}

func (repo *adminRepository) GetAdminByEmail(ctx context.Context, email string) (principal.Admin, error) {
	return repo.getAdmin(ctx, `SELECT * FROM admin WHERE email = $1`, email)
}

func (repo *adminRepository) GetActiveSuperAdmin(ctx context.Context) (principal.Admin, error) {
	return repo.getAdmin(ctx, `SELECT * FROM admin WHERE role = $1 AND active_status LIMIT 1`, principal.RoleSuper)
}

func (repo *adminRepository) QueryAdminsByRole(ctx context.Context, role string) ([]principal.Admin, error) {
	var rows []adminRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM admin WHERE role = $1 ORDER BY created_at`, role); err != nil {
		return nil, err
	}
	admins := make([]principal.Admin, 0, len(rows))
	for _, row := range rows {
		admins = append(admins, row.admin())
	}
	return admins, nil
}

func (repo *adminRepository) LatestAdminHumanID(ctx context.Context, role, branchCode string) (string, error) {
	var humanID string
	err := repo.db.GetContext(ctx, &humanID,
		`SELECT human_id FROM admin WHERE role = $1 AND branch_code = $2 ORDER BY created_at DESC LIMIT 1`,
		role, branchCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", principal.ErrNotFound
		}
		return "", err
	}
	return humanID, nil
}

func (repo *adminRepository) UpdateAdmin(ctx context.Context, adm principal.Admin) (principal.Admin, error) {
	res, err := repo.db.NamedExecContext(ctx, adminUpdate, newAdminRow(adm))
	if err != nil {
		if isUniqueViolation(err) {
			return principal.Admin{}, principal.ErrEmailExists
		}
		return principal.Admin{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.Admin{}, principal.ErrNotFound
	}
	return adm, nil
}

func (repo *adminRepository) DeleteAdmin(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM admin WHERE id = $1`, id)
	return err
}

func (repo *adminRepository) DeleteAdminByEmail(ctx context.Context, email string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM admin WHERE email = $1`, email)
	return err
}

func (repo *adminRepository) DeleteExpiredUnverifiedAdmins(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM admin WHERE NOT is_verified AND otp_expires_at IS NOT NULL AND otp_expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type studentRow struct {
	ID                    string      `db:"id"`
	HumanID               string      `db:"human_id"`
	Name                  string      `db:"name"`
	FatherName            string      `db:"father_name"`
	MotherName            string      `db:"mother_name"`
	Address               string      `db:"address"`
	DOB                   string      `db:"dob"`
	DOR                   string      `db:"dor"`
	Gender                string      `db:"gender"`
	Mobile                string      `db:"mobile"`
	HighestQualification  string      `db:"highest_qualification"`
	Image                 string      `db:"image"`
	Role                  string      `db:"role"`
	BranchName            string      `db:"branch_name"`
	BranchCode            string      `db:"branch_code"`
	CourseName            string      `db:"course_name"`
	CourseDuration        string      `db:"course_duration"`
	Marks                 string      `db:"marks"`
	GoogleID              null.String `db:"google_id"`
	ActiveStatus          bool        `db:"active_status"`
	Email                 string      `db:"email"`
	PasswordHash          []byte      `db:"password_hash"`
	OTPHash               null.Bytes  `db:"otp_hash"`
	OTPExpiresAt          null.Time   `db:"otp_expires_at"`
	IsVerified            bool        `db:"is_verified"`
	OTPRequestCount       int         `db:"otp_request_count"`
	OTPRequestWindowStart time.Time   `db:"otp_request_window_start"`
	IsBlocked             bool        `db:"is_blocked"`
	BlockedUntil          null.Time   `db:"blocked_until"`
	CreatedAt             time.Time   `db:"created_at"`
	UpdatedAt             time.Time   `db:"updated_at"`
}

func newStudentRow(st principal.Student) studentRow {
	return studentRow{
		ID:                    st.ID,
		HumanID:               st.HumanID,
		Name:                  st.Name,
		FatherName:            st.FatherName,
		MotherName:            st.MotherName,
		Address:               st.Address,
		DOB:                   st.DOB,
		DOR:                   st.DOR,
		Gender:                st.Gender,
		Mobile:                st.Mobile,
		HighestQualification:  st.HighestQualification,
		Image:                 st.Image,
		Role:                  st.StudentRole,
		BranchName:            st.BranchName,
		BranchCode:            st.BranchCode,
		CourseName:            st.CourseName,
		CourseDuration:        st.CourseDuration,
		Marks:                 st.Marks,
		GoogleID:              null.NewString(st.GoogleID, st.GoogleID != ""),
		ActiveStatus:          st.ActiveStatus,
		Email:                 st.Email,
		PasswordHash:          st.PasswordHash,
		OTPHash:               null.BytesFrom(st.OTPHash),
		OTPExpiresAt:          nullTime(st.OTPExpiresAt),
		IsVerified:            st.IsVerified,
		OTPRequestCount:       st.OTPRequestCount,
		OTPRequestWindowStart: st.OTPRequestWindowStart,
		IsBlocked:             st.IsBlocked,
		BlockedUntil:          nullTime(st.BlockedUntil),
		CreatedAt:             st.CreatedAt,
		UpdatedAt:             st.UpdatedAt,
	}
}

func (r studentRow) student() principal.Student {
	st := principal.Student{
		ID:                   r.ID,
		HumanID:              r.HumanID,
		Name:                 r.Name,
		FatherName:           r.FatherName,
		MotherName:           r.MotherName,
		Address:              r.Address,
		DOB:                  r.DOB,
		DOR:                  r.DOR,
		Gender:               r.Gender,
		Mobile:               r.Mobile,
		HighestQualification: r.HighestQualification,
		Image:                r.Image,
		StudentRole:          r.Role,
		BranchName:           r.BranchName,
		BranchCode:           r.BranchCode,
		CourseName:           r.CourseName,
		CourseDuration:       r.CourseDuration,
		Marks:                r.Marks,
		GoogleID:             r.GoogleID.String,
		ActiveStatus:         r.ActiveStatus,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	st.Email = r.Email
	st.PasswordHash = r.PasswordHash
	st.OTPHash = r.OTPHash.Bytes
	st.OTPExpiresAt = r.OTPExpiresAt.Time
	st.IsVerified = r.IsVerified
	st.OTPRequestCount = r.OTPRequestCount
	st.OTPRequestWindowStart = r.OTPRequestWindowStart
	st.IsBlocked = r.IsBlocked
	st.BlockedUntil = r.BlockedUntil.Time
	return st
}

type studentRepository struct {
	db *sqlx.DB
}

func NewStudentRepository(db *sqlx.DB) principal.StudentRepository {
	return &studentRepository{db: db}
}

const studentInsert = `
INSERT INTO student (id, human_id, name, father_name, mother_name, address, dob, dor, gender, mobile,
                     highest_qualification, image, role, branch_name, branch_code, course_name, course_duration,
                     marks, google_id, active_status, email, password_hash, otp_hash, otp_expires_at, is_verified,
                     otp_request_count, otp_request_window_start, is_blocked, blocked_until, created_at, updated_at)
VALUES (:id, :human_id, :name, :father_name, :mother_name, :address, :dob, :dor, :gender, :mobile,
        :highest_qualification, :image, :role, :branch_name, :branch_code, :course_name, :course_duration,
        :marks, :google_id, :active_status, :email, :password_hash, :otp_hash, :otp_expires_at, :is_verified,
        :otp_request_count, :otp_request_window_start, :is_blocked, :blocked_until, :created_at, :updated_at)`

const studentUpdate = `
UPDATE student
SET human_id                 = :human_id,
    name                     = :name,
    father_name              = :father_name,
    mother_name              = :mother_name,
    address                  = :address,
    dob                      = :dob,
    dor                      = :dor,
    gender                   = :gender,
    mobile                   = :mobile,
    highest_qualification    = :highest_qualification,
    image                    = :image,
    role                     = :role,
    branch_name              = :branch_name,
    branch_code              = :branch_code,
    course_name              = :course_name,
    course_duration          = :course_duration,
    marks                    = :marks,
    google_id                = :google_id,
    active_status            = :active_status,
    email                    = :email,
    password_hash            = :password_hash,
    otp_hash                 = :otp_hash,
    otp_expires_at           = :otp_expires_at,
    is_verified              = :is_verified,
    otp_request_count        = :otp_request_count,
    otp_request_window_start = :otp_request_window_start,
    is_blocked               = :is_blocked,
    blocked_until            = :blocked_until,
    updated_at               = :updated_at
WHERE id = :id`

func (repo *studentRepository) CreateStudent(ctx context.Context, st principal.Student) (principal.Student, error) {
	if _, err := repo.db.NamedExecContext(ctx, studentInsert, newStudentRow(st)); err != nil {
		if isUniqueViolation(err) {
			return principal.Student{}, principal.ErrEmailExists
		}
		return principal.Student{}, err
	}
	return st, nil
}

func (repo *studentRepository) getStudent(ctx context.Context, query string, args ...interface{}) (principal.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return principal.Student{}, principal.ErrNotFound
		}
		return principal.Student{}, err
	}
	return row.student(), nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (principal.Student, error) {
	return repo.getStudent(ctx, `SELECT * FROM student WHERE id = $1`, id)
}

func (repo *studentRepository) GetStudentByEmail(ctx context.Context, email string) (principal.Student, error) {
	return repo.getStudent(ctx, `SELECT * FROM student WHERE email = $1`, email)
}

func (repo *studentRepository) GetStudentByHumanID(ctx context.Context, humanID string) (principal.Student, error) {
	return repo.getStudent(ctx, `SELECT * FROM student WHERE human_id = $1`, humanID)
}

func (repo *studentRepository) GetStudentByMobile(ctx context.Context, mobile string) (principal.Student, error) {
	return repo.getStudent(ctx, `SELECT * FROM student WHERE mobile = $1`, mobile)
}

func (repo *studentRepository) QueryStudents(ctx context.Context, branchName string) ([]principal.Student, error) {
	query := `SELECT * FROM student ORDER BY created_at`
	args := make([]interface{}, 0, 1)
	if branchName != "" {
		query = `SELECT * FROM student WHERE branch_name = $1 ORDER BY created_at`
		args = append(args, branchName)
	}
	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}
	students := make([]principal.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo *studentRepository) LatestStudentHumanID(ctx context.Context, role, branchCode string) (string, error) {
	var humanID string
	err := repo.db.GetContext(ctx, &humanID,
		`SELECT human_id FROM student WHERE role = $1 AND branch_code = $2 ORDER BY created_at DESC LIMIT 1`,
		role, branchCode)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", principal.ErrNotFound
		}
		return "", err
	}
	return humanID, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, st principal.Student) (principal.Student, error) {
	res, err := repo.db.NamedExecContext(ctx, studentUpdate, newStudentRow(st))
	if err != nil {
		if isUniqueViolation(err) {
			return principal.Student{}, principal.ErrEmailExists
		}
		return principal.Student{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return principal.Student{}, principal.ErrNotFound
	}
	return st, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	return err
}

func (repo *studentRepository) DeleteStudentByEmail(ctx context.Context, email string) error {
	_, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE email = $1`, email)
	return err
}

func (repo *studentRepository) DeleteExpiredUnverifiedStudents(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := repo.db.ExecContext(ctx,
		`DELETE FROM student WHERE NOT is_verified AND otp_expires_at IS NOT NULL AND otp_expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type sequenceRepository struct {
	db *sqlx.DB
}

func NewSequenceRepository(db *sqlx.DB) principal.SequenceRepository {
	return &sequenceRepository{db: db}
}

// NextSeq relies on the upsert being atomic: concurrent callers serialize on
// the (role, branch_code) row and each sees a distinct value.
func (repo *sequenceRepository) NextSeq(ctx context.Context, role, branchCode string, seed int) (int, error) {
	var seq int
	err := repo.db.GetContext(ctx, &seq, `
		INSERT INTO id_sequence (role, branch_code, seq)
		VALUES ($1, $2, $3 + 1)
		ON CONFLICT (role, branch_code) DO UPDATE SET seq = id_sequence.seq + 1
		RETURNING seq`,
		role, branchCode, seed)
	if err != nil {
		return 0, err
	}
	return seq, nil
}
