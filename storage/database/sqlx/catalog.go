package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ryitech/institute/core/catalog"
)

type courseRow struct {
	ID              string         `db:"id"`
	Name            string         `db:"name"`
	FullName        string         `db:"full_name"`
	Content         pq.StringArray `db:"content"`
	Duration        string         `db:"duration"`
	Images          pq.StringArray `db:"images"`
	ExtraFacilities pq.StringArray `db:"extra_facilities"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (r courseRow) course() catalog.Course {
	return catalog.Course{
		ID:              r.ID,
		Name:            r.Name,
		FullName:        r.FullName,
		Content:         r.Content,
		Duration:        r.Duration,
		Images:          r.Images,
		ExtraFacilities: r.ExtraFacilities,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type courseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) catalog.CourseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs catalog.Course) (catalog.Course, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO course (id, name, full_name, content, duration, images, extra_facilities, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		crs.ID, crs.Name, crs.FullName, pq.StringArray(crs.Content), crs.Duration,
		pq.StringArray(crs.Images), pq.StringArray(crs.ExtraFacilities), crs.CreatedAt, crs.UpdatedAt)
	if err != nil {
		return catalog.Course{}, err
	}
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context) ([]catalog.Course, error) {
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course ORDER BY created_at`); err != nil {
		return nil, err
	}
	courses := make([]catalog.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course())
	}
	return courses, nil
}

type branchRow struct {
	ID            string         `db:"id"`
	BranchID      string         `db:"branch_id"`
	Name          string         `db:"name"`
	Code          string         `db:"code"`
	Address       string         `db:"address"`
	GoogleMapLink string         `db:"google_map_link"`
	Images        pq.StringArray `db:"images"`
	Email         string         `db:"email"`
	Mobile        string         `db:"mobile"`
	CreatedAt     time.Time      `db:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at"`
}

func (r branchRow) branch() catalog.Branch {
	return catalog.Branch{
		ID:            r.ID,
		BranchID:      r.BranchID,
		Name:          r.Name,
		Code:          r.Code,
		Address:       r.Address,
		GoogleMapLink: r.GoogleMapLink,
		Images:        r.Images,
		Email:         r.Email,
		Mobile:        r.Mobile,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type branchRepository struct {
	db *sqlx.DB
}

func NewBranchRepository(db *sqlx.DB) catalog.BranchRepository {
	return &branchRepository{db: db}
}

func (repo *branchRepository) CreateBranch(ctx context.Context, br catalog.Branch) (catalog.Branch, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO branch (id, branch_id, name, code, address, google_map_link, images, email, mobile, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		br.ID, br.BranchID, br.Name, br.Code, br.Address, br.GoogleMapLink,
		pq.StringArray(br.Images), br.Email, br.Mobile, br.CreatedAt, br.UpdatedAt)
	if err != nil {
		return catalog.Branch{}, err
	}
	return br, nil
}

func (repo *branchRepository) FindDuplicateBranch(ctx context.Context, branchID, email, mobile string) (catalog.Branch, error) {
	var row branchRow
	err := repo.db.GetContext(ctx, &row,
		`SELECT * FROM branch WHERE branch_id = $1 OR email = $2 OR mobile = $3 LIMIT 1`,
		branchID, email, mobile)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.Branch{}, catalog.ErrNotFound
		}
		return catalog.Branch{}, err
	}
	return row.branch(), nil
}

func (repo *branchRepository) QueryBranches(ctx context.Context) ([]catalog.Branch, error) {
	var rows []branchRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM branch ORDER BY created_at`); err != nil {
		return nil, err
	}
	branches := make([]catalog.Branch, 0, len(rows))
	for _, row := range rows {
		branches = append(branches, row.branch())
	}
	return branches, nil
}

type teamRepository struct {
	db *sqlx.DB
}

func NewTeamRepository(db *sqlx.DB) catalog.TeamRepository {
	return &teamRepository{db: db}
}

type teamMemberRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Designation string    `db:"designation"`
	Description string    `db:"description"`
	Image       string    `db:"image"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (repo *teamRepository) CreateTeamMember(ctx context.Context, tm catalog.TeamMember) (catalog.TeamMember, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO team_member (id, name, designation, description, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tm.ID, tm.Name, tm.Designation, tm.Description, tm.Image, tm.CreatedAt, tm.UpdatedAt)
	if err != nil {
		return catalog.TeamMember{}, err
	}
	return tm, nil
}

func (repo *teamRepository) QueryTeamMembers(ctx context.Context) ([]catalog.TeamMember, error) {
	var rows []teamMemberRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM team_member ORDER BY created_at`); err != nil {
		return nil, err
	}
	members := make([]catalog.TeamMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, catalog.TeamMember(row))
	}
	return members, nil
}

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) catalog.ActivityRepository {
	return &activityRepository{db: db}
}

type activityRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	VideoURL  string    `db:"video_url"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (repo *activityRepository) CreateActivity(ctx context.Context, act catalog.Activity) (catalog.Activity, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO activity (id, title, video_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)`,
		act.ID, act.Title, act.VideoURL, act.CreatedAt, act.UpdatedAt)
	if err != nil {
		return catalog.Activity{}, err
	}
	return act, nil
}

func (repo *activityRepository) QueryActivities(ctx context.Context) ([]catalog.Activity, error) {
	var rows []activityRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM activity ORDER BY created_at DESC`); err != nil {
		return nil, err
	}
	activities := make([]catalog.Activity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, catalog.Activity(row))
	}
	return activities, nil
}

type galleryRepository struct {
	db *sqlx.DB
}

func NewGalleryRepository(db *sqlx.DB) catalog.GalleryRepository {
	return &galleryRepository{db: db}
}

type galleryImageRow struct {
	ID        string         `db:"id"`
	Images    pq.StringArray `db:"images"`
	CreatedAt time.Time      `db:"created_at"`
}

func (repo *galleryRepository) CreateImageSet(ctx context.Context, img catalog.GalleryImage) (catalog.GalleryImage, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO gallery_image (id, images, created_at) VALUES ($1, $2, $3)`,
		img.ID, pq.StringArray(img.Images), img.CreatedAt)
	if err != nil {
		return catalog.GalleryImage{}, err
	}
	return img, nil
}

func (repo *galleryRepository) QueryRecentImages(ctx context.Context, limit int) ([]catalog.GalleryImage, error) {
	var rows []galleryImageRow
	if err := repo.db.SelectContext(ctx, &rows,
		`SELECT * FROM gallery_image ORDER BY created_at DESC LIMIT $1`, limit); err != nil {
		return nil, err
	}
	images := make([]catalog.GalleryImage, 0, len(rows))
	for _, row := range rows {
		images = append(images, catalog.GalleryImage{ID: row.ID, Images: row.Images, CreatedAt: row.CreatedAt})
	}
	return images, nil
}

type enquiryRepository struct {
	db *sqlx.DB
}

func NewEnquiryRepository(db *sqlx.DB) catalog.EnquiryRepository {
	return &enquiryRepository{db: db}
}

type applicationRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Mobile    string    `db:"mobile"`
	Email     string    `db:"email"`
	Center    string    `db:"center"`
	Course    string    `db:"course"`
	CreatedAt time.Time `db:"created_at"`
}

func (repo *enquiryRepository) CreateApplication(ctx context.Context, app catalog.CourseApplication) (catalog.CourseApplication, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO course_application (id, name, mobile, email, center, course, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		app.ID, app.Name, app.Mobile, app.Email, app.Center, app.Course, app.CreatedAt)
	if err != nil {
		return catalog.CourseApplication{}, err
	}
	return app, nil
}

func (repo *enquiryRepository) GetApplicationByMobile(ctx context.Context, mobile string) (catalog.CourseApplication, error) {
	var row applicationRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM course_application WHERE mobile = $1 LIMIT 1`, mobile)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.CourseApplication{}, catalog.ErrNotFound
		}
		return catalog.CourseApplication{}, err
	}
	return catalog.CourseApplication(row), nil
}

func (repo *enquiryRepository) QueryApplications(ctx context.Context) ([]catalog.CourseApplication, error) {
	var rows []applicationRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course_application ORDER BY created_at`); err != nil {
		return nil, err
	}
	apps := make([]catalog.CourseApplication, 0, len(rows))
	for _, row := range rows {
		apps = append(apps, catalog.CourseApplication(row))
	}
	return apps, nil
}

func (repo *enquiryRepository) DeleteApplication(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, `DELETE FROM course_application WHERE id = $1`, id)
}

type interestRow struct {
	ID         string    `db:"id"`
	CourseName string    `db:"course_name"`
	Name       string    `db:"name"`
	Phone      string    `db:"phone"`
	CreatedAt  time.Time `db:"created_at"`
}

func (repo *enquiryRepository) CreateInterest(ctx context.Context, in catalog.CourseInterest) (catalog.CourseInterest, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO course_interest (id, course_name, name, phone, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		in.ID, in.CourseName, in.Name, in.Phone, in.CreatedAt)
	if err != nil {
		return catalog.CourseInterest{}, err
	}
	return in, nil
}

func (repo *enquiryRepository) GetInterestByPhone(ctx context.Context, phone string) (catalog.CourseInterest, error) {
	var row interestRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM course_interest WHERE phone = $1 LIMIT 1`, phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.CourseInterest{}, catalog.ErrNotFound
		}
		return catalog.CourseInterest{}, err
	}
	return catalog.CourseInterest(row), nil
}

func (repo *enquiryRepository) QueryInterests(ctx context.Context) ([]catalog.CourseInterest, error) {
	var rows []interestRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM course_interest ORDER BY created_at`); err != nil {
		return nil, err
	}
	interests := make([]catalog.CourseInterest, 0, len(rows))
	for _, row := range rows {
		interests = append(interests, catalog.CourseInterest(row))
	}
	return interests, nil
}

func (repo *enquiryRepository) DeleteInterest(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, `DELETE FROM course_interest WHERE id = $1`, id)
}

type messageRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Phone     string    `db:"phone"`
	Email     string    `db:"email"`
	Message   string    `db:"message"`
	CreatedAt time.Time `db:"created_at"`
}

func (repo *enquiryRepository) CreateMessage(ctx context.Context, msg catalog.ContactMessage) (catalog.ContactMessage, error) {
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO contact_message (id, name, phone, email, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		msg.ID, msg.Name, msg.Phone, msg.Email, msg.Message, msg.CreatedAt)
	if err != nil {
		return catalog.ContactMessage{}, err
	}
	return msg, nil
}

func (repo *enquiryRepository) GetMessageByPhone(ctx context.Context, phone string) (catalog.ContactMessage, error) {
	var row messageRow
	err := repo.db.GetContext(ctx, &row, `SELECT * FROM contact_message WHERE phone = $1 LIMIT 1`, phone)
	if err != nil {
		if err == sql.ErrNoRows {
			return catalog.ContactMessage{}, catalog.ErrNotFound
		}
		return catalog.ContactMessage{}, err
	}
	return catalog.ContactMessage(row), nil
}

func (repo *enquiryRepository) QueryMessages(ctx context.Context) ([]catalog.ContactMessage, error) {
	var rows []messageRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM contact_message ORDER BY created_at`); err != nil {
		return nil, err
	}
	msgs := make([]catalog.ContactMessage, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, catalog.ContactMessage(row))
	}
	return msgs, nil
}

func (repo *enquiryRepository) DeleteMessage(ctx context.Context, id string) error {
	return repo.deleteByID(ctx, `DELETE FROM contact_message WHERE id = $1`, id)
}

func (repo *enquiryRepository) deleteByID(ctx context.Context, query, id string) error {
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
