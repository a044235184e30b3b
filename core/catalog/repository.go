package catalog

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("record not found")

type (
	CourseRepository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryCourses(ctx context.Context) ([]Course, error)
	}

	BranchRepository interface {
		CreateBranch(ctx context.Context, br Branch) (Branch, error)
		// FindDuplicateBranch looks for an existing branch sharing the branchId,
		// email or mobile, or returns ErrNotFound.
		FindDuplicateBranch(ctx context.Context, branchID, email, mobile string) (Branch, error)
		QueryBranches(ctx context.Context) ([]Branch, error)
	}

	TeamRepository interface {
		CreateTeamMember(ctx context.Context, tm TeamMember) (TeamMember, error)
		QueryTeamMembers(ctx context.Context) ([]TeamMember, error)
	}

	ActivityRepository interface {
		CreateActivity(ctx context.Context, act Activity) (Activity, error)
		// QueryActivities lists activities, newest first.
		QueryActivities(ctx context.Context) ([]Activity, error)
	}

	GalleryRepository interface {
		CreateImageSet(ctx context.Context, img GalleryImage) (GalleryImage, error)
		// QueryRecentImages returns at most limit image sets.
		QueryRecentImages(ctx context.Context, limit int) ([]GalleryImage, error)
	}

	// EnquiryRepository stores the three public enquiry types feeding the
	// admin notification digest. Delete methods return ErrNotFound for an
	// unknown id.
	EnquiryRepository interface {
		CreateApplication(ctx context.Context, app CourseApplication) (CourseApplication, error)
		GetApplicationByMobile(ctx context.Context, mobile string) (CourseApplication, error)
		QueryApplications(ctx context.Context) ([]CourseApplication, error)
		DeleteApplication(ctx context.Context, id string) error

		CreateInterest(ctx context.Context, in CourseInterest) (CourseInterest, error)
		GetInterestByPhone(ctx context.Context, phone string) (CourseInterest, error)
		QueryInterests(ctx context.Context) ([]CourseInterest, error)
		DeleteInterest(ctx context.Context, id string) error

		CreateMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error)
		GetMessageByPhone(ctx context.Context, phone string) (ContactMessage, error)
		QueryMessages(ctx context.Context) ([]ContactMessage, error)
		DeleteMessage(ctx context.Context, id string) error
	}
)
