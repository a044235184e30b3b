package principal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/ryitech/institute/core"
)

const studentUploadFolder = "students"

// Service drives registration and management of both principal variants.
type Service struct {
	admins   AdminRepository
	students StudentRepository
	dir      *Directory
	seq      *Sequencer
	otp      *OTPEngine
	uploads  core.UploadService
	logger   core.Logger
}

func NewService(
	admins AdminRepository,
	students StudentRepository,
	dir *Directory,
	seq *Sequencer,
	otp *OTPEngine,
	uploads core.UploadService,
	logger core.Logger,
) *Service {
	return &Service{
		admins:   admins,
		students: students,
		dir:      dir,
		seq:      seq,
		otp:      otp,
		uploads:  uploads,
		logger:   logger,
	}
}

// demoteActiveSuper keeps the single-active-super invariant: registering a new
// super admin deactivates the previously active one.
func (svc *Service) demoteActiveSuper(ctx context.Context) error {
	current, err := svc.admins.GetActiveSuperAdmin(ctx)
	if err != nil {
		if err == ErrNotFound {
			return nil
		}
		return err
	}
	current.ActiveStatus = false
	_, err = svc.admins.UpdateAdmin(ctx, current)
	return err
}

// RegisterAdmin handles the open admin registration endpoint: it creates an
// unverified admin and sends the verification OTP. Re-registering a
// still-unverified email updates the password and reissues the OTP.
func (svc *Service) RegisterAdmin(ctx context.Context, na NewAdmin) error {
	if len(na.Password) < minPasswordLen {
		return ErrWeakPassword
	}

	if existing, err := svc.admins.GetAdminByEmail(ctx, na.Email); err == nil {
		if existing.IsVerified {
			return core.NewConflictError("admin already exists")
		}
		if err = existing.SetPassword(na.Password); err != nil {
			return pkgerrors.Wrap(err, "hashing password")
		}
		return svc.otp.Issue(ctx, &existing, false)
	} else if err != ErrNotFound {
		return pkgerrors.Wrap(err, "finding admin by email")
	}

	// email must be free in the student collection as well
	if err := svc.dir.CheckEmailUnused(ctx, na.Email); err != nil {
		if err == ErrEmailExists {
			return core.NewConflictError(err.Error())
		}
		return pkgerrors.Wrap(err, "checking email uniqueness")
	}

	if na.Role == RoleSuper {
		if err := svc.demoteActiveSuper(ctx); err != nil {
			return pkgerrors.Wrap(err, "demoting active super admin")
		}
	}

	humanID, err := svc.seq.NextID(ctx, na.Role, na.BranchCode)
	if err != nil {
		return err
	}

	now := nowFunc().UTC()
	adm := Admin{
		ID:           uuid.NewString(),
		HumanID:      humanID,
		Name:         na.Name,
		AdminRole:    na.Role,
		BranchName:   na.BranchName,
		BranchCode:   na.BranchCode,
		ActiveStatus: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	adm.Email = na.Email
	adm.OTPRequestWindowStart = now
	if err = adm.SetPassword(na.Password); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}

	if adm, err = svc.admins.CreateAdmin(ctx, adm); err != nil {
		return pkgerrors.Wrap(err, "creating admin")
	}
	return svc.otp.Issue(ctx, &adm, true /* new: roll back on mail failure */)
}

// CreateBranchAdmin lets an active super admin provision a branch admin.
func (svc *Service) CreateBranchAdmin(ctx context.Context, actor Principal, na NewAdmin) error {
	if err := Authorize(actor, OpCreateBranchAdmin); err != nil {
		return err
	}
	na.Role = RoleBranchAdmin
	return svc.RegisterAdmin(ctx, na)
}

// QueryBranchAdmins lists all branch admins for the super admin console.
func (svc *Service) QueryBranchAdmins(ctx context.Context, actor Principal) ([]Admin, error) {
	if err := Authorize(actor, OpListBranchAdmins); err != nil {
		return nil, err
	}
	return svc.admins.QueryAdminsByRole(ctx, RoleBranchAdmin)
}

// UpdateAdmin applies partial updates; a role or branch change regenerates the
// humanId in the new scope.
func (svc *Service) UpdateAdmin(ctx context.Context, actor Principal, id string, ua UpdateAdmin) (Admin, error) {
	if err := Authorize(actor, OpUpdateBranchAdmin); err != nil {
		return Admin{}, err
	}
	adm, err := svc.admins.GetAdminByID(ctx, id)
	if err != nil {
		return Admin{}, err
	}

	role, branchName, branchCode := adm.AdminRole, adm.BranchName, adm.BranchCode
	if ua.Role != "" {
		role = ua.Role
	}
	if ua.BranchName != "" {
		branchName = ua.BranchName
	}
	if ua.BranchCode != "" {
		branchCode = core.CleanString(ua.BranchCode, true /* lower */)
	}
	if role != adm.AdminRole || branchCode != adm.BranchCode {
		if adm.HumanID, err = svc.seq.NextID(ctx, role, branchCode); err != nil {
			return Admin{}, err
		}
	}
	adm.AdminRole, adm.BranchName, adm.BranchCode = role, branchName, branchCode

	if ua.Name != "" {
		adm.Name = core.CleanString(ua.Name)
	}
	if email := core.CleanString(ua.Email, true /* lower */); email != "" && email != adm.Email {
		// email stays unique across both collections
		if err = svc.dir.CheckEmailUnused(ctx, email); err != nil {
			if err == ErrEmailExists {
				return Admin{}, core.NewConflictError(err.Error())
			}
			return Admin{}, pkgerrors.Wrap(err, "checking email uniqueness")
		}
		adm.Email = email
	}
	if ua.ActiveStatus != nil {
		adm.ActiveStatus = *ua.ActiveStatus
	}
	adm.UpdatedAt = nowFunc().UTC()

	return svc.admins.UpdateAdmin(ctx, adm)
}

// DeleteAdmin removes a branch admin; super admins cannot delete themselves.
func (svc *Service) DeleteAdmin(ctx context.Context, actor Principal, id string) error {
	if err := Authorize(actor, OpDeleteBranchAdmin); err != nil {
		return err
	}
	if actor.PrincipalID() == id {
		return core.NewForbiddenError("cannot delete your own account")
	}
	if _, err := svc.admins.GetAdminByID(ctx, id); err != nil {
		return err
	}
	return svc.admins.DeleteAdmin(ctx, id)
}

// CreateStudent provisions an unverified student: images are uploaded to
// object storage before the record is persisted (a failed DB write after a
// successful upload leaves an orphan object; accepted gap), then the
// verification OTP is sent. An existing unverified student gets a password
// update and an OTP reissue instead.
func (svc *Service) CreateStudent(ctx context.Context, actor Principal, ns NewStudent, photos []core.FileUpload) error {
	if err := AuthorizeBranch(actor, OpCreateStudent, ns.BranchName); err != nil {
		return err
	}
	if len(ns.Password) < minPasswordLen {
		return ErrWeakPassword
	}
	if len(photos) == 0 {
		return core.NewValidationError(nil, core.FieldError{Field: "images", Error: "at least one image must be provided"})
	}

	if existing, err := svc.students.GetStudentByEmail(ctx, ns.Email); err == nil {
		if existing.IsVerified {
			return core.NewConflictError("student with this email already exists and is verified")
		}
		if err = existing.SetPassword(ns.Password); err != nil {
			return pkgerrors.Wrap(err, "hashing password")
		}
		return svc.otp.Issue(ctx, &existing, false)
	} else if err != ErrNotFound {
		return pkgerrors.Wrap(err, "finding student by email")
	}

	if err := svc.dir.CheckEmailUnused(ctx, ns.Email); err != nil {
		if err == ErrEmailExists {
			return core.NewConflictError("email is already registered as an admin")
		}
		return pkgerrors.Wrap(err, "checking email uniqueness")
	}
	if _, err := svc.students.GetStudentByMobile(ctx, ns.Mobile); err == nil {
		return core.NewConflictError("a student with this mobile already exists")
	} else if err != ErrNotFound {
		return pkgerrors.Wrap(err, "checking mobile uniqueness")
	}

	image, err := svc.uploadPhotos(ctx, photos)
	if err != nil {
		return err
	}

	humanID, err := svc.seq.NextID(ctx, RoleStudent, ns.BranchCode)
	if err != nil {
		return err
	}

	now := nowFunc().UTC()
	st := Student{
		ID:                   uuid.NewString(),
		HumanID:              humanID,
		Name:                 ns.Name,
		FatherName:           ns.FatherName,
		MotherName:           ns.MotherName,
		Address:              ns.Address,
		DOB:                  ns.DOB,
		DOR:                  ns.DOR,
		Gender:               ns.Gender,
		Mobile:               ns.Mobile,
		HighestQualification: ns.HighestQualification,
		Image:                image,
		StudentRole:          RoleStudent,
		BranchName:           ns.BranchName,
		BranchCode:           ns.BranchCode,
		CourseName:           ns.CourseName,
		CourseDuration:       ns.CourseDuration,
		Marks:                ns.Marks,
		ActiveStatus:         true,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	st.Email = ns.Email
	st.OTPRequestWindowStart = now
	if err = st.SetPassword(ns.Password); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}

	if st, err = svc.students.CreateStudent(ctx, st); err != nil {
		return pkgerrors.Wrap(err, "creating student")
	}
	return svc.otp.Issue(ctx, &st, true /* new: roll back on mail failure */)
}

// uploadPhotos pushes every file to object storage and returns the first URL,
// which becomes the student's profile image.
func (svc *Service) uploadPhotos(ctx context.Context, photos []core.FileUpload) (string, error) {
	var first string
	for _, ph := range photos {
		base := strings.TrimSuffix(ph.Name, filepath.Ext(ph.Name))
		name := fmt.Sprintf("%s_%s", base, uuid.NewString())
		url, err := svc.uploads.Upload(ctx, ph.Content, name, studentUploadFolder)
		if err != nil {
			return "", core.NewUpstreamError(err, "uploading student image")
		}
		if first == "" {
			first = url
		}
	}
	return first, nil
}

// UpdateStudent applies partial updates within the caller's branch scope.
// A branch change (super admin only) regenerates the humanId in the new scope.
func (svc *Service) UpdateStudent(ctx context.Context, actor Principal, id string, us UpdateStudent, photos []core.FileUpload) (Student, error) {
	st, err := svc.students.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if err = AuthorizeBranch(actor, OpUpdateStudent, st.BranchName); err != nil {
		return Student{}, err
	}

	branchName, branchCode := st.BranchName, st.BranchCode
	if us.BranchName != "" {
		branchName = us.BranchName
	}
	if us.BranchCode != "" {
		branchCode = core.CleanString(us.BranchCode, true /* lower */)
	}
	if branchName != st.BranchName || branchCode != st.BranchCode {
		if actor.Role() != RoleSuper {
			return Student{}, core.NewForbiddenError("only a super admin can move students between branches")
		}
		st.BranchName, st.BranchCode = branchName, branchCode
		if st.HumanID, err = svc.seq.NextID(ctx, st.StudentRole, st.BranchCode); err != nil {
			return Student{}, err
		}
	}

	if len(photos) > 0 {
		image, upErr := svc.uploadPhotos(ctx, photos)
		if upErr != nil {
			return Student{}, upErr
		}
		st.Image = image
	}

	applyIfSet := func(dst *string, val string) {
		if val != "" {
			*dst = core.CleanString(val)
		}
	}
	applyIfSet(&st.Name, us.Name)
	applyIfSet(&st.FatherName, us.FatherName)
	applyIfSet(&st.MotherName, us.MotherName)
	applyIfSet(&st.Address, us.Address)
	applyIfSet(&st.DOB, us.DOB)
	applyIfSet(&st.DOR, us.DOR)
	applyIfSet(&st.Gender, us.Gender)
	applyIfSet(&st.Mobile, us.Mobile)
	applyIfSet(&st.Marks, us.Marks)
	if email := core.CleanString(us.Email, true /* lower */); email != "" && email != st.Email {
		// email stays unique across both collections
		if err = svc.dir.CheckEmailUnused(ctx, email); err != nil {
			if err == ErrEmailExists {
				return Student{}, core.NewConflictError(err.Error())
			}
			return Student{}, pkgerrors.Wrap(err, "checking email uniqueness")
		}
		st.Email = email
	}
	if us.ActiveStatus != nil {
		st.ActiveStatus = *us.ActiveStatus
	}
	st.UpdatedAt = nowFunc().UTC()

	return svc.students.UpdateStudent(ctx, st)
}

// DeleteStudent removes a student within the caller's branch scope.
func (svc *Service) DeleteStudent(ctx context.Context, actor Principal, id string) error {
	st, err := svc.students.GetStudentByID(ctx, id)
	if err != nil {
		return err
	}
	if err = AuthorizeBranch(actor, OpDeleteStudent, st.BranchName); err != nil {
		return err
	}
	return svc.students.DeleteStudent(ctx, st.ID)
}

// QueryStudents lists students; branch admins only see their own branch.
func (svc *Service) QueryStudents(ctx context.Context, actor Principal) ([]Student, error) {
	if err := Authorize(actor, OpListStudents); err != nil {
		return nil, err
	}
	branch := ""
	if actor.Role() == RoleBranchAdmin {
		branch = actor.Branch()
	}
	return svc.students.QueryStudents(ctx, branch)
}

// GetStudentByHumanID resolves a registration number within branch scope.
func (svc *Service) GetStudentByHumanID(ctx context.Context, actor Principal, humanID string) (Student, error) {
	if err := Authorize(actor, OpGetStudent); err != nil {
		return Student{}, err
	}
	st, err := svc.students.GetStudentByHumanID(ctx, humanID)
	if err != nil {
		return Student{}, err
	}
	if err = AuthorizeBranch(actor, OpGetStudent, st.BranchName); err != nil {
		return Student{}, err
	}
	return st, nil
}

// VerifyOTP resolves the email in either collection and verifies the code.
func (svc *Service) VerifyOTP(ctx context.Context, email, code string) error {
	p, err := svc.dir.FindByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	return svc.otp.Verify(ctx, p, code)
}

// ResendOTP resolves the email in either collection and reissues the code.
func (svc *Service) ResendOTP(ctx context.Context, email string) error {
	p, err := svc.dir.FindByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		return err
	}
	return svc.otp.Resend(ctx, p)
}

// GetByID re-resolves a principal; used by the authorization gate on every
// request so state changes take effect immediately.
func (svc *Service) GetByID(ctx context.Context, id string) (Principal, error) {
	return svc.dir.FindByID(ctx, id)
}

// ReapExpired deletes still-unverified principals whose OTP has expired,
// emulating the document store's TTL auto-expiry.
func (svc *Service) ReapExpired(ctx context.Context) error {
	cutoff := nowFunc().UTC()
	admins, err := svc.admins.DeleteExpiredUnverifiedAdmins(ctx, cutoff)
	if err != nil {
		return pkgerrors.Wrap(err, "reaping expired admins")
	}
	students, err := svc.students.DeleteExpiredUnverifiedStudents(ctx, cutoff)
	if err != nil {
		return pkgerrors.Wrap(err, "reaping expired students")
	}
	if admins+students > 0 {
		svc.logger.Info(fmt.Sprintf("reaped %d abandoned registrations", admins+students))
	}
	return nil
}

// StartReaper runs ReapExpired on a fixed interval until ctx is cancelled.
func (svc *Service) StartReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.ReapExpired(ctx); err != nil {
				svc.logger.Error(fmt.Sprintf("reaper: %v", err), err)
			}
		}
	}
}
