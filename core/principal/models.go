package principal

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/ryitech/institute/core"
)

// Roles
const (
	RoleSuper       = "super"
	RoleBranchAdmin = "branchAdmin"
	RoleStudent     = "student"
)

var (
	AdminRoles = []string{RoleSuper, RoleBranchAdmin}
	AllRoles   = []string{RoleSuper, RoleBranchAdmin, RoleStudent}
)

func IsAdminRole(role string) bool {
	return role == RoleSuper || role == RoleBranchAdmin
}

// Credential carries the state shared by both principal variants: login
// secret, email verification and OTP rate limiting. The OTP engine and the
// authenticator only ever touch principals through this struct, so the logic
// is never duplicated per variant.
type Credential struct {
	Email        string `json:"email"`
	PasswordHash []byte `json:"-"`

	// verification state
	OTPHash      []byte    `json:"-"`
	OTPExpiresAt time.Time `json:"-"`
	IsVerified   bool      `json:"is_verified"`

	// rate-limit state
	OTPRequestCount       int       `json:"-"`
	OTPRequestWindowStart time.Time `json:"-"`
	IsBlocked             bool      `json:"-"`
	BlockedUntil          time.Time `json:"-"`
}

func (c *Credential) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.PasswordHash = hash
	return nil
}

func (c *Credential) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(c.PasswordHash, []byte(pwd))
}

// Principal is any authenticated actor: an Admin or a Student.
type Principal interface {
	PrincipalID() string
	HumanIdentifier() string
	Role() string
	Branch() string
	BranchScope() string
	Active() bool
	Cred() *Credential
}

// Admin is a super admin or a branch admin.
type Admin struct {
	ID           string `json:"id"`
	HumanID      string `json:"admin_id"`
	Name         string `json:"name"`
	AdminRole    string `json:"role"`
	BranchName   string `json:"branch_name"`
	BranchCode   string `json:"branch_code"`
	ActiveStatus bool   `json:"active_status"`
	Credential

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

var _ Principal = (*Admin)(nil)

func (a *Admin) PrincipalID() string     { return a.ID }
func (a *Admin) HumanIdentifier() string { return a.HumanID }
func (a *Admin) Role() string            { return a.AdminRole }
func (a *Admin) Branch() string          { return a.BranchName }
func (a *Admin) BranchScope() string     { return a.BranchCode }
func (a *Admin) Active() bool            { return a.ActiveStatus }
func (a *Admin) Cred() *Credential       { return &a.Credential }

// Student carries academic metadata on top of the shared credential state.
type Student struct {
	ID         string `json:"id"`
	HumanID    string `json:"user_id"`
	Name       string `json:"name"`
	FatherName string `json:"fathername"`
	MotherName string `json:"mothername"`
	Address    string `json:"address"`
	DOB        string `json:"dob"`
	DOR        string `json:"dor"`
	Gender     string `json:"gender"`
	Mobile     string `json:"mobile"`

	HighestQualification string `json:"highest_qualification"`
	Image                string `json:"image"`

	StudentRole    string `json:"role"`
	BranchName     string `json:"branch_name"`
	BranchCode     string `json:"branch_code"`
	CourseName     string `json:"course_name"`
	CourseDuration string `json:"course_duration"`
	Marks          string `json:"marks"`
	GoogleID       string `json:"-"`
	ActiveStatus   bool   `json:"active_status"`
	Credential

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

var _ Principal = (*Student)(nil)

func (s *Student) PrincipalID() string     { return s.ID }
func (s *Student) HumanIdentifier() string { return s.HumanID }
func (s *Student) Role() string            { return s.StudentRole }
func (s *Student) Branch() string          { return s.BranchName }
func (s *Student) BranchScope() string     { return s.BranchCode }
func (s *Student) Active() bool            { return s.ActiveStatus }
func (s *Student) Cred() *Credential       { return &s.Credential }

// Summary is the public view of a principal returned by login and lookups.
type Summary struct {
	ID      string `json:"id"`
	HumanID string `json:"human_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Role    string `json:"role"`
}

func Summarize(p Principal) Summary {
	sum := Summary{
		ID:      p.PrincipalID(),
		HumanID: p.HumanIdentifier(),
		Email:   p.Cred().Email,
		Role:    p.Role(),
	}
	switch v := p.(type) {
	case *Admin:
		sum.Name = v.Name
	case *Student:
		sum.Name = v.Name
	}
	return sum
}

// NewAdmin contains information needed to register a new Admin.
type NewAdmin struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	Role       string `json:"role" validate:"required,oneof=super branchAdmin"`
	BranchName string `json:"branch_name" validate:"required"`
	BranchCode string `json:"branch_code" validate:"required,alphanum"`
}

func (na *NewAdmin) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.BranchName = core.CleanString(na.BranchName)
	na.BranchCode = core.CleanString(na.BranchCode, true /* lower */)
	return validate.Struct(na)
}

// UpdateAdmin defines what information may be provided to modify an existing Admin.
type UpdateAdmin struct {
	Name         string `json:"name"`
	Email        string `json:"email" validate:"omitempty,email"`
	Role         string `json:"role" validate:"omitempty,oneof=super branchAdmin"`
	BranchName   string `json:"branch_name"`
	BranchCode   string `json:"branch_code" validate:"omitempty,alphanum"`
	ActiveStatus *bool  `json:"active_status"`
}

// NewStudent contains information needed to register a new Student.
// It arrives as a multipart form (the photos ride along), hence the form tags.
type NewStudent struct {
	Name       string `json:"name" form:"name" validate:"required"`
	FatherName string `json:"fathername" form:"fathername" validate:"required"`
	MotherName string `json:"mothername" form:"mothername" validate:"required"`
	Address    string `json:"address" form:"address" validate:"required"`
	DOB        string `json:"dob" form:"dob" validate:"required"`
	DOR        string `json:"dor" form:"dor" validate:"required"`
	Gender     string `json:"gender" form:"gender" validate:"required"`
	Mobile     string `json:"mobile" form:"mobile" validate:"required,mobile"`
	Email      string `json:"email" form:"email" validate:"required,email"`
	Password   string `json:"password" form:"password" validate:"required"`

	HighestQualification string `json:"highest_qualification" form:"highest_qualification" validate:"required"`
	BranchName           string `json:"branch_name" form:"branch_name" validate:"required"`
	BranchCode           string `json:"branch_code" form:"branch_code" validate:"required,alphanum"`
	CourseName           string `json:"course_name" form:"course_name" validate:"required"`
	CourseDuration       string `json:"course_duration" form:"course_duration" validate:"required"`
	Marks                string `json:"marks" form:"marks"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Email = core.CleanString(ns.Email, true /* lower */)
	ns.Mobile = core.CleanString(ns.Mobile)
	ns.BranchName = core.CleanString(ns.BranchName)
	ns.BranchCode = core.CleanString(ns.BranchCode, true /* lower */)
	return validate.Struct(ns)
}

// UpdateStudent defines what information may be provided to modify an existing Student.
type UpdateStudent struct {
	Name       string `json:"name" form:"name"`
	FatherName string `json:"fathername" form:"fathername"`
	MotherName string `json:"mothername" form:"mothername"`
	Address    string `json:"address" form:"address"`
	DOB        string `json:"dob" form:"dob"`
	DOR        string `json:"dor" form:"dor"`
	Gender     string `json:"gender" form:"gender"`
	Mobile     string `json:"mobile" form:"mobile" validate:"omitempty,mobile"`
	Email      string `json:"email" form:"email" validate:"omitempty,email"`

	BranchName   string `json:"branch_name" form:"branch_name"`
	BranchCode   string `json:"branch_code" form:"branch_code" validate:"omitempty,alphanum"`
	Marks        string `json:"marks" form:"marks"`
	ActiveStatus *bool  `json:"active_status" form:"active_status"`
}
