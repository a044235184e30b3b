package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/principal"
)

// upload folders
const (
	courseUploadFolder  = "courses"
	branchUploadFolder  = "branches"
	teamUploadFolder    = "team"
	galleryUploadFolder = "recent-images"
)

// notification enquiry types
const (
	NotificationTypeApplication = "applyData"
	NotificationTypeInterest    = "applyCourse"
	NotificationTypeMessage     = "sendMsg"
)

const recentImagesLimit = 4

var nowFunc = time.Now // mocked in tests

// Service manages the public catalog: courses, branches, team, activities,
// gallery and the enquiry inboxes.
type Service struct {
	courses    CourseRepository
	branches   BranchRepository
	team       TeamRepository
	activities ActivityRepository
	gallery    GalleryRepository
	enquiries  EnquiryRepository
	uploads    core.UploadService
	logger     core.Logger
}

func NewService(
	courses CourseRepository,
	branches BranchRepository,
	team TeamRepository,
	activities ActivityRepository,
	gallery GalleryRepository,
	enquiries EnquiryRepository,
	uploads core.UploadService,
	logger core.Logger,
) *Service {
	return &Service{
		courses:    courses,
		branches:   branches,
		team:       team,
		activities: activities,
		gallery:    gallery,
		enquiries:  enquiries,
		uploads:    uploads,
		logger:     logger,
	}
}

// uploadAll pushes every file to object storage under folder and returns the URLs.
func (svc *Service) uploadAll(ctx context.Context, files []core.FileUpload, folder string) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := svc.uploads.Upload(ctx, f.Content, uuid.NewString(), folder)
		if err != nil {
			return nil, core.NewUpstreamError(err, "uploading image")
		}
		urls = append(urls, url)
	}
	return urls, nil
}

// AddCourse publishes a new course; super admin only.
func (svc *Service) AddCourse(ctx context.Context, actor principal.Principal, nc NewCourse, images []core.FileUpload) (Course, error) {
	if err := principal.Authorize(actor, principal.OpCreateCourse); err != nil {
		return Course{}, err
	}
	if len(images) == 0 {
		return Course{}, core.NewValidationError(nil, core.FieldError{Field: "image", Error: "at least one image must be provided"})
	}

	urls, err := svc.uploadAll(ctx, images, courseUploadFolder)
	if err != nil {
		return Course{}, err
	}

	now := nowFunc().UTC()
	crs := Course{
		ID:              uuid.NewString(),
		Name:            nc.Name,
		FullName:        nc.FullName,
		Content:         nc.Content,
		Duration:        nc.Duration,
		Images:          urls,
		ExtraFacilities: nc.ExtraFacilities,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if crs, err = svc.courses.CreateCourse(ctx, crs); err != nil {
		return Course{}, pkgerrors.Wrap(err, "creating course")
	}
	return crs, nil
}

// ListCourses is public.
func (svc *Service) ListCourses(ctx context.Context) ([]Course, error) {
	return svc.courses.QueryCourses(ctx)
}

// CreateBranch opens a new branch; super admin only. Conflicts name the
// duplicated field.
func (svc *Service) CreateBranch(ctx context.Context, actor principal.Principal, nb NewBranch, images []core.FileUpload) (Branch, error) {
	if err := principal.Authorize(actor, principal.OpCreateBranch); err != nil {
		return Branch{}, err
	}
	if len(images) == 0 {
		return Branch{}, core.NewValidationError(nil, core.FieldError{Field: "image", Error: "at least one image must be provided"})
	}

	if dup, err := svc.branches.FindDuplicateBranch(ctx, nb.BranchID, nb.Email, nb.Mobile); err == nil {
		field := "Branch ID"
		switch {
		case dup.Email == nb.Email:
			field = "Email"
		case dup.Mobile == nb.Mobile:
			field = "Mobile Number"
		}
		if dup.BranchID == nb.BranchID {
			field = "Branch ID"
		}
		return Branch{}, core.NewConflictError(fmt.Sprintf("%s already exists", field))
	} else if err != ErrNotFound {
		return Branch{}, pkgerrors.Wrap(err, "checking branch uniqueness")
	}

	urls, err := svc.uploadAll(ctx, images, branchUploadFolder)
	if err != nil {
		return Branch{}, err
	}

	now := nowFunc().UTC()
	br := Branch{
		ID:            uuid.NewString(),
		BranchID:      nb.BranchID,
		Name:          nb.Name,
		Code:          nb.Code,
		Address:       nb.Address,
		GoogleMapLink: nb.GoogleMapLink,
		Images:        urls,
		Email:         nb.Email,
		Mobile:        nb.Mobile,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if br, err = svc.branches.CreateBranch(ctx, br); err != nil {
		return Branch{}, pkgerrors.Wrap(err, "creating branch")
	}
	return br, nil
}

// ListBranches is public.
func (svc *Service) ListBranches(ctx context.Context) ([]Branch, error) {
	return svc.branches.QueryBranches(ctx)
}

// CreateTeamMember adds a staff profile; super admin only. The photo is stored
// under its original base name.
func (svc *Service) CreateTeamMember(ctx context.Context, actor principal.Principal, nt NewTeamMember, photo core.FileUpload) (TeamMember, error) {
	if err := principal.Authorize(actor, principal.OpCreateTeam); err != nil {
		return TeamMember{}, err
	}
	if len(photo.Content) == 0 {
		return TeamMember{}, core.NewValidationError(nil, core.FieldError{Field: "image", Error: "an image must be provided"})
	}

	name := strings.TrimSuffix(photo.Name, filepath.Ext(photo.Name))
	url, err := svc.uploads.Upload(ctx, photo.Content, name, teamUploadFolder)
	if err != nil {
		return TeamMember{}, core.NewUpstreamError(err, "uploading team photo")
	}

	now := nowFunc().UTC()
	tm := TeamMember{
		ID:          uuid.NewString(),
		Name:        nt.Name,
		Designation: nt.Designation,
		Description: nt.Description,
		Image:       url,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if tm, err = svc.team.CreateTeamMember(ctx, tm); err != nil {
		return TeamMember{}, pkgerrors.Wrap(err, "creating team member")
	}
	return tm, nil
}

// ListTeamMembers is public.
func (svc *Service) ListTeamMembers(ctx context.Context) ([]TeamMember, error) {
	return svc.team.QueryTeamMembers(ctx)
}

// CreateActivity publishes an activity; super admin only.
func (svc *Service) CreateActivity(ctx context.Context, actor principal.Principal, na NewActivity) (Activity, error) {
	if err := principal.Authorize(actor, principal.OpCreateActivity); err != nil {
		return Activity{}, err
	}
	now := nowFunc().UTC()
	act := Activity{
		ID:        uuid.NewString(),
		Title:     na.Title,
		VideoURL:  na.VideoURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	act, err := svc.activities.CreateActivity(ctx, act)
	if err != nil {
		return Activity{}, pkgerrors.Wrap(err, "creating activity")
	}
	return act, nil
}

// ListActivities is public, newest first.
func (svc *Service) ListActivities(ctx context.Context) ([]Activity, error) {
	return svc.activities.QueryActivities(ctx)
}

// UploadGalleryImages stores a batch of gallery images; super admin only.
func (svc *Service) UploadGalleryImages(ctx context.Context, actor principal.Principal, files []core.FileUpload) (GalleryImage, error) {
	if err := principal.Authorize(actor, principal.OpUploadImages); err != nil {
		return GalleryImage{}, err
	}
	if len(files) == 0 {
		return GalleryImage{}, core.NewValidationError(nil, core.FieldError{Field: "images", Error: "no files uploaded"})
	}

	urls, err := svc.uploadAll(ctx, files, galleryUploadFolder)
	if err != nil {
		return GalleryImage{}, err
	}

	img := GalleryImage{
		ID:        uuid.NewString(),
		Images:    urls,
		CreatedAt: nowFunc().UTC(),
	}
	if img, err = svc.gallery.CreateImageSet(ctx, img); err != nil {
		return GalleryImage{}, pkgerrors.Wrap(err, "saving gallery images")
	}
	return img, nil
}

// RecentImages is public and capped at the four latest sets.
func (svc *Service) RecentImages(ctx context.Context) ([]GalleryImage, error) {
	return svc.gallery.QueryRecentImages(ctx, recentImagesLimit)
}

// ApplyCourse records a public course application, deduplicated by mobile.
func (svc *Service) ApplyCourse(ctx context.Context, na NewCourseApplication) error {
	if _, err := svc.enquiries.GetApplicationByMobile(ctx, na.Mobile); err == nil {
		return core.NewConflictError("already applied with this number")
	} else if err != ErrNotFound {
		return pkgerrors.Wrap(err, "checking application")
	}
	app := CourseApplication{
		ID:        uuid.NewString(),
		Name:      na.Name,
		Mobile:    na.Mobile,
		Email:     na.Email,
		Center:    na.Center,
		Course:    na.Course,
		CreatedAt: nowFunc().UTC(),
	}
	_, err := svc.enquiries.CreateApplication(ctx, app)
	return pkgerrors.Wrap(err, "creating application")
}

// ApplyInCourse records a public course interest, deduplicated by phone.
func (svc *Service) ApplyInCourse(ctx context.Context, ni NewCourseInterest) error {
	if _, err := svc.enquiries.GetInterestByPhone(ctx, ni.Phone); err == nil {
		return core.NewConflictError("already applied with this phone number, we will contact you soon")
	} else if err != ErrNotFound {
		return pkgerrors.Wrap(err, "checking interest")
	}
	in := CourseInterest{
		ID:         uuid.NewString(),
		CourseName: ni.CourseName,
		Name:       ni.Name,
		Phone:      ni.Phone,
		CreatedAt:  nowFunc().UTC(),
	}
	_, err := svc.enquiries.CreateInterest(ctx, in)
	return pkgerrors.Wrap(err, "creating interest")
}

// SendMessage records a public contact message, deduplicated by phone.
func (svc *Service) SendMessage(ctx context.Context, nm NewContactMessage) error {
	if _, err := svc.enquiries.GetMessageByPhone(ctx, nm.Phone); err == nil {
		return core.NewConflictError("already contacted with this phone number")
	} else if err != ErrNotFound {
		return pkgerrors.Wrap(err, "checking message")
	}
	msg := ContactMessage{
		ID:        uuid.NewString(),
		Name:      nm.Name,
		Phone:     nm.Phone,
		Email:     nm.Email,
		Message:   nm.Message,
		CreatedAt: nowFunc().UTC(),
	}
	_, err := svc.enquiries.CreateMessage(ctx, msg)
	return pkgerrors.Wrap(err, "creating message")
}

// Notifications aggregates all enquiry inboxes for the admin console.
func (svc *Service) Notifications(ctx context.Context, actor principal.Principal) (NotificationDigest, error) {
	if err := principal.Authorize(actor, principal.OpViewEnquiries); err != nil {
		return NotificationDigest{}, err
	}
	apps, err := svc.enquiries.QueryApplications(ctx)
	if err != nil {
		return NotificationDigest{}, pkgerrors.Wrap(err, "listing applications")
	}
	interests, err := svc.enquiries.QueryInterests(ctx)
	if err != nil {
		return NotificationDigest{}, pkgerrors.Wrap(err, "listing interests")
	}
	msgs, err := svc.enquiries.QueryMessages(ctx)
	if err != nil {
		return NotificationDigest{}, pkgerrors.Wrap(err, "listing messages")
	}
	return NotificationDigest{
		BranchCourseCount: len(apps),
		TotalCount:        len(apps) + len(interests) + len(msgs),
		Applications:      apps,
		Interests:         interests,
		Messages:          msgs,
	}, nil
}

// DeleteNotification removes a single enquiry of the given type.
func (svc *Service) DeleteNotification(ctx context.Context, actor principal.Principal, id, enquiryType string) error {
	if err := principal.Authorize(actor, principal.OpViewEnquiries); err != nil {
		return err
	}
	switch enquiryType {
	case NotificationTypeApplication:
		return svc.enquiries.DeleteApplication(ctx, id)
	case NotificationTypeInterest:
		return svc.enquiries.DeleteInterest(ctx, id)
	case NotificationTypeMessage:
		return svc.enquiries.DeleteMessage(ctx, id)
	}
	return core.NewValidationError(nil, core.FieldError{Field: "type", Error: "invalid type"})
}
