package inmemdb

import (
	"context"
	"sort"

	"github.com/ryitech/institute/core/catalog"
)

type courseRepository struct {
	db *DB
}

func NewCourseRepository(db *DB) catalog.CourseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs catalog.Course) (catalog.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.courses[crs.ID] = &crs
	return crs, nil
}

func (repo *courseRepository) QueryCourses(_ context.Context) ([]catalog.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]catalog.Course, 0, len(repo.db.courses))
	for _, crs := range repo.db.courses {
		courses = append(courses, *crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.Before(courses[j].CreatedAt) })
	return courses, nil
}

type branchRepository struct {
	db *DB
}

func NewBranchRepository(db *DB) catalog.BranchRepository {
	return &branchRepository{db: db}
}

func (repo *branchRepository) CreateBranch(_ context.Context, br catalog.Branch) (catalog.Branch, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.branches[br.ID] = &br
	return br, nil
}

func (repo *branchRepository) FindDuplicateBranch(_ context.Context, branchID, email, mobile string) (catalog.Branch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, br := range repo.db.branches {
		if br.BranchID == branchID || br.Email == email || br.Mobile == mobile {
			return *br, nil
		}
	}
	return catalog.Branch{}, catalog.ErrNotFound
}

func (repo *branchRepository) QueryBranches(_ context.Context) ([]catalog.Branch, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	branches := make([]catalog.Branch, 0, len(repo.db.branches))
	for _, br := range repo.db.branches {
		branches = append(branches, *br)
	}
	sort.Slice(branches, func(i, j int) bool { return branches[i].CreatedAt.Before(branches[j].CreatedAt) })
	return branches, nil
}

type teamRepository struct {
	db *DB
}

func NewTeamRepository(db *DB) catalog.TeamRepository {
	return &teamRepository{db: db}
}

func (repo *teamRepository) CreateTeamMember(_ context.Context, tm catalog.TeamMember) (catalog.TeamMember, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.teamMembers[tm.ID] = &tm
	return tm, nil
}

func (repo *teamRepository) QueryTeamMembers(_ context.Context) ([]catalog.TeamMember, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	members := make([]catalog.TeamMember, 0, len(repo.db.teamMembers))
	for _, tm := range repo.db.teamMembers {
		members = append(members, *tm)
	}
	sort.Slice(members, func(i, j int) bool { return members[i].CreatedAt.Before(members[j].CreatedAt) })
	return members, nil
}

type activityRepository struct {
	db *DB
}

func NewActivityRepository(db *DB) catalog.ActivityRepository {
	return &activityRepository{db: db}
}

func (repo *activityRepository) CreateActivity(_ context.Context, act catalog.Activity) (catalog.Activity, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.activities[act.ID] = &act
	return act, nil
}

func (repo *activityRepository) QueryActivities(_ context.Context) ([]catalog.Activity, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	activities := make([]catalog.Activity, 0, len(repo.db.activities))
	for _, act := range repo.db.activities {
		activities = append(activities, *act)
	}
	// newest first
	sort.Slice(activities, func(i, j int) bool { return activities[i].CreatedAt.After(activities[j].CreatedAt) })
	return activities, nil
}

type galleryRepository struct {
	db *DB
}

func NewGalleryRepository(db *DB) catalog.GalleryRepository {
	return &galleryRepository{db: db}
}

func (repo *galleryRepository) CreateImageSet(_ context.Context, img catalog.GalleryImage) (catalog.GalleryImage, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.images[img.ID] = &img
	return img, nil
}

func (repo *galleryRepository) QueryRecentImages(_ context.Context, limit int) ([]catalog.GalleryImage, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	images := make([]catalog.GalleryImage, 0, len(repo.db.images))
	for _, img := range repo.db.images {
		images = append(images, *img)
	}
	sort.Slice(images, func(i, j int) bool { return images[i].CreatedAt.After(images[j].CreatedAt) })
	if len(images) > limit {
		images = images[:limit]
	}
	return images, nil
}

type enquiryRepository struct {
	db *DB
}

func NewEnquiryRepository(db *DB) catalog.EnquiryRepository {
	return &enquiryRepository{db: db}
}

func (repo *enquiryRepository) CreateApplication(_ context.Context, app catalog.CourseApplication) (catalog.CourseApplication, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.applications[app.ID] = &app
	return app, nil
}

func (repo *enquiryRepository) GetApplicationByMobile(_ context.Context, mobile string) (catalog.CourseApplication, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, app := range repo.db.applications {
		if app.Mobile == mobile {
			return *app, nil
		}
	}
	return catalog.CourseApplication{}, catalog.ErrNotFound
}

func (repo *enquiryRepository) QueryApplications(_ context.Context) ([]catalog.CourseApplication, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	apps := make([]catalog.CourseApplication, 0, len(repo.db.applications))
	for _, app := range repo.db.applications {
		apps = append(apps, *app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].CreatedAt.Before(apps[j].CreatedAt) })
	return apps, nil
}

func (repo *enquiryRepository) DeleteApplication(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.applications[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(repo.db.applications, id)
	return nil
}

func (repo *enquiryRepository) CreateInterest(_ context.Context, in catalog.CourseInterest) (catalog.CourseInterest, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.interests[in.ID] = &in
	return in, nil
}

func (repo *enquiryRepository) GetInterestByPhone(_ context.Context, phone string) (catalog.CourseInterest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, in := range repo.db.interests {
		if in.Phone == phone {
			return *in, nil
		}
	}
	return catalog.CourseInterest{}, catalog.ErrNotFound
}

func (repo *enquiryRepository) QueryInterests(_ context.Context) ([]catalog.CourseInterest, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	interests := make([]catalog.CourseInterest, 0, len(repo.db.interests))
	for _, in := range repo.db.interests {
		interests = append(interests, *in)
	}
	sort.Slice(interests, func(i, j int) bool { return interests[i].CreatedAt.Before(interests[j].CreatedAt) })
	return interests, nil
}

func (repo *enquiryRepository) DeleteInterest(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.interests[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(repo.db.interests, id)
	return nil
}

func (repo *enquiryRepository) CreateMessage(_ context.Context, msg catalog.ContactMessage) (catalog.ContactMessage, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.messages[msg.ID] = &msg
	return msg, nil
}

func (repo *enquiryRepository) GetMessageByPhone(_ context.Context, phone string) (catalog.ContactMessage, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, msg := range repo.db.messages {
		if msg.Phone == phone {
			return *msg, nil
		}
	}
	return catalog.ContactMessage{}, catalog.ErrNotFound
}

func (repo *enquiryRepository) QueryMessages(_ context.Context) ([]catalog.ContactMessage, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	msgs := make([]catalog.ContactMessage, 0, len(repo.db.messages))
	for _, msg := range repo.db.messages {
		msgs = append(msgs, *msg)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreatedAt.Before(msgs[j].CreatedAt) })
	return msgs, nil
}

func (repo *enquiryRepository) DeleteMessage(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.messages[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(repo.db.messages, id)
	return nil
}
