package inmemdb

import (
	"context"
	"time"

	"github.com/ryitech/institute/core/principal"
)

type adminRepository struct {
	db *DB
}

func NewAdminRepository(db *DB) principal.AdminRepository {
	return &adminRepository{db: db}
}

func (repo *adminRepository) query() []principal.Admin {
	admins := make([]principal.Admin, 0, len(repo.db.admins))
	for _, adm := range repo.db.admins {
		admins = append(admins, *adm)
	}
	return admins
}

func (repo *adminRepository) CreateAdmin(_ context.Context, adm principal.Admin) (principal.Admin, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.admins {
		if existing.Email == adm.Email {
			return principal.Admin{}, principal.ErrEmailExists
		}
	}
	repo.db.admins[adm.ID] = &adm
	return adm, nil
}

func (repo *adminRepository) GetAdminByID(_ context.Context, id string) (principal.Admin, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if adm, ok := repo.db.admins[id]; ok {
		return *adm, nil
	}
	return principal.Admin{}, principal.ErrNotFound
}

func (repo *adminRepository) GetAdminByEmail(_ context.Context, email string) (principal.Admin, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, adm := range repo.query() {
		if adm.Email == email {
			return adm, nil
		}
	}
	return principal.Admin{}, principal.ErrNotFound
}

func (repo *adminRepository) GetActiveSuperAdmin(_ context.Context) (principal.Admin, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, adm := range repo.query() {
		if adm.AdminRole == principal.RoleSuper && adm.ActiveStatus {
			return adm, nil
		}
	}
	return principal.Admin{}, principal.ErrNotFound
}

func (repo *adminRepository) QueryAdminsByRole(_ context.Context, role string) ([]principal.Admin, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	admins := make([]principal.Admin, 0)
	for _, adm := range repo.query() {
		if adm.AdminRole == role {
			admins = append(admins, adm)
		}
	}
	return admins, nil
}

func (repo *adminRepository) LatestAdminHumanID(_ context.Context, role, branchCode string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var (
		latest   principal.Admin
		found    bool
		latestAt time.Time
	)
	for _, adm := range repo.query() {
		if adm.AdminRole == role && adm.BranchCode == branchCode && !adm.CreatedAt.Before(latestAt) {
			latest, found, latestAt = adm, true, adm.CreatedAt
		}
	}
	if !found {
		return "", principal.ErrNotFound
	}
	return latest.HumanID, nil
}

func (repo *adminRepository) UpdateAdmin(_ context.Context, adm principal.Admin) (principal.Admin, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.admins[adm.ID]; !ok {
		return principal.Admin{}, principal.ErrNotFound
	}
	repo.db.admins[adm.ID] = &adm
	return adm, nil
}

func (repo *adminRepository) DeleteAdmin(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.admins, id)
	return nil
}

func (repo *adminRepository) DeleteAdminByEmail(_ context.Context, email string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, adm := range repo.db.admins {
		if adm.Email == email {
			delete(repo.db.admins, id)
			return nil
		}
	}
	return nil
}

func (repo *adminRepository) DeleteExpiredUnverifiedAdmins(_ context.Context, cutoff time.Time) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for id, adm := range repo.db.admins {
		if !adm.IsVerified && !adm.OTPExpiresAt.IsZero() && adm.OTPExpiresAt.Before(cutoff) {
			delete(repo.db.admins, id)
			n++
		}
	}
	return n, nil
}

type studentRepository struct {
	db *DB
}

func NewStudentRepository(db *DB) principal.StudentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) query() []principal.Student {
	students := make([]principal.Student, 0, len(repo.db.students))
	for _, st := range repo.db.students {
		students = append(students, *st)
	}
	return students
}

func (repo *studentRepository) CreateStudent(_ context.Context, st principal.Student) (principal.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, existing := range repo.db.students {
		if existing.Email == st.Email {
			return principal.Student{}, principal.ErrEmailExists
		}
	}
	repo.db.students[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) GetStudentByID(_ context.Context, id string) (principal.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if st, ok := repo.db.students[id]; ok {
		return *st, nil
	}
	return principal.Student{}, principal.ErrNotFound
}

func (repo *studentRepository) GetStudentByEmail(_ context.Context, email string) (principal.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.query() {
		if st.Email == email {
			return st, nil
		}
	}
	return principal.Student{}, principal.ErrNotFound
}

func (repo *studentRepository) GetStudentByHumanID(_ context.Context, humanID string) (principal.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.query() {
		if st.HumanID == humanID {
			return st, nil
		}
	}
	return principal.Student{}, principal.ErrNotFound
}

func (repo *studentRepository) GetStudentByMobile(_ context.Context, mobile string) (principal.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, st := range repo.query() {
		if st.Mobile == mobile {
			return st, nil
		}
	}
	return principal.Student{}, principal.ErrNotFound
}

func (repo *studentRepository) QueryStudents(_ context.Context, branchName string) ([]principal.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]principal.Student, 0)
	for _, st := range repo.query() {
		if branchName == "" || st.BranchName == branchName {
			students = append(students, st)
		}
	}
	return students, nil
}

func (repo *studentRepository) LatestStudentHumanID(_ context.Context, role, branchCode string) (string, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var (
		latest   principal.Student
		found    bool
		latestAt time.Time
	)
	for _, st := range repo.query() {
		if st.StudentRole == role && st.BranchCode == branchCode && !st.CreatedAt.Before(latestAt) {
			latest, found, latestAt = st, true, st.CreatedAt
		}
	}
	if !found {
		return "", principal.ErrNotFound
	}
	return latest.HumanID, nil
}

func (repo *studentRepository) UpdateStudent(_ context.Context, st principal.Student) (principal.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.students[st.ID]; !ok {
		return principal.Student{}, principal.ErrNotFound
	}
	repo.db.students[st.ID] = &st
	return st, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	delete(repo.db.students, id)
	return nil
}

func (repo *studentRepository) DeleteStudentByEmail(_ context.Context, email string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for id, st := range repo.db.students {
		if st.Email == email {
			delete(repo.db.students, id)
			return nil
		}
	}
	return nil
}

func (repo *studentRepository) DeleteExpiredUnverifiedStudents(_ context.Context, cutoff time.Time) (int64, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int64
	for id, st := range repo.db.students {
		if !st.IsVerified && !st.OTPExpiresAt.IsZero() && st.OTPExpiresAt.Before(cutoff) {
			delete(repo.db.students, id)
			n++
		}
	}
	return n, nil
}

type sequenceRepository struct {
	db *DB
}

func NewSequenceRepository(db *DB) principal.SequenceRepository {
	return &sequenceRepository{db: db}
}

func (repo *sequenceRepository) NextSeq(_ context.Context, role, branchCode string, seed int) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := role + "/" + branchCode
	if _, ok := repo.db.sequences[key]; !ok {
		repo.db.sequences[key] = seed
	}
	repo.db.sequences[key]++
	return repo.db.sequences[key], nil
}
