package principal

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound    = errors.New("principal not found")
	ErrEmailExists = errors.New("a principal with this email already exists")
)

type (
	AdminRepository interface {
		CreateAdmin(ctx context.Context, adm Admin) (Admin, error)
		GetAdminByID(ctx context.Context, id string) (Admin, error)
		GetAdminByEmail(ctx context.Context, email string) (Admin, error)
		// GetActiveSuperAdmin returns the single Admin with role=super and
		// activeStatus=true, or ErrNotFound.
		GetActiveSuperAdmin(ctx context.Context) (Admin, error)
		QueryAdminsByRole(ctx context.Context, role string) ([]Admin, error)
		// LatestAdminHumanID returns the humanId of the most recently created
		// Admin in (role, branchCode) scope, or ErrNotFound.
		LatestAdminHumanID(ctx context.Context, role, branchCode string) (string, error)
		UpdateAdmin(ctx context.Context, adm Admin) (Admin, error)
		DeleteAdmin(ctx context.Context, id string) error
		DeleteAdminByEmail(ctx context.Context, email string) error
		// DeleteExpiredUnverifiedAdmins removes still-unverified admins whose
		// OTP expired before cutoff; the document-store TTL equivalent.
		DeleteExpiredUnverifiedAdmins(ctx context.Context, cutoff time.Time) (int64, error)
	}

	StudentRepository interface {
		CreateStudent(ctx context.Context, st Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByEmail(ctx context.Context, email string) (Student, error)
		GetStudentByHumanID(ctx context.Context, humanID string) (Student, error)
		GetStudentByMobile(ctx context.Context, mobile string) (Student, error)
		// QueryStudents lists students, optionally restricted to a branch name
		// (empty branchName = all).
		QueryStudents(ctx context.Context, branchName string) ([]Student, error)
		LatestStudentHumanID(ctx context.Context, role, branchCode string) (string, error)
		UpdateStudent(ctx context.Context, st Student) (Student, error)
		DeleteStudent(ctx context.Context, id string) error
		DeleteStudentByEmail(ctx context.Context, email string) error
		DeleteExpiredUnverifiedStudents(ctx context.Context, cutoff time.Time) (int64, error)
	}

	// SequenceRepository backs the human-readable ID generator with an atomic
	// per-scope counter.
	SequenceRepository interface {
		// NextSeq atomically increments and returns the counter for
		// (role, branchCode). When the counter does not exist yet it is seeded
		// with seed first, so the returned value is seed+1.
		NextSeq(ctx context.Context, role, branchCode string, seed int) (int, error)
	}
)

// Directory fronts both principal collections: it centralizes cross-collection
// email uniqueness and the Admin-then-Student lookup order instead of
// duplicating those checks at each call site.
type Directory struct {
	admins   AdminRepository
	students StudentRepository
}

func NewDirectory(admins AdminRepository, students StudentRepository) *Directory {
	return &Directory{admins: admins, students: students}
}

// FindByEmail looks the email up first in the Admin collection, then Students.
func (d *Directory) FindByEmail(ctx context.Context, email string) (Principal, error) {
	if adm, err := d.admins.GetAdminByEmail(ctx, email); err == nil {
		return &adm, nil
	} else if err != ErrNotFound {
		return nil, err
	}
	st, err := d.students.GetStudentByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// FindByID resolves an opaque store ID in either collection.
func (d *Directory) FindByID(ctx context.Context, id string) (Principal, error) {
	if adm, err := d.admins.GetAdminByID(ctx, id); err == nil {
		return &adm, nil
	} else if err != ErrNotFound {
		return nil, err
	}
	st, err := d.students.GetStudentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// CheckEmailUnused enforces email uniqueness across both collections; the
// stores only index uniqueness per collection.
func (d *Directory) CheckEmailUnused(ctx context.Context, email string) error {
	if _, err := d.FindByEmail(ctx, email); err == nil {
		return ErrEmailExists
	} else if err != ErrNotFound {
		return err
	}
	return nil
}

// Save persists the current state of a principal to its own collection.
func (d *Directory) Save(ctx context.Context, p Principal) error {
	var err error
	switch v := p.(type) {
	case *Admin:
		*v, err = d.admins.UpdateAdmin(ctx, *v)
	case *Student:
		*v, err = d.students.UpdateStudent(ctx, *v)
	default:
		err = ErrNotFound
	}
	return err
}

// Delete removes a principal from its own collection.
func (d *Directory) Delete(ctx context.Context, p Principal) error {
	switch v := p.(type) {
	case *Admin:
		return d.admins.DeleteAdmin(ctx, v.ID)
	case *Student:
		return d.students.DeleteStudent(ctx, v.ID)
	}
	return ErrNotFound
}
