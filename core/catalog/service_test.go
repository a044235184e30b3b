package catalog_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/catalog"
	"github.com/ryitech/institute/core/principal"
	uploadsvc "github.com/ryitech/institute/services/upload"
	inmemdb "github.com/ryitech/institute/storage/database/inmem"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newTestService() *catalog.Service {
	db := inmemdb.Open()
	return catalog.NewService(
		inmemdb.NewCourseRepository(db),
		inmemdb.NewBranchRepository(db),
		inmemdb.NewTeamRepository(db),
		inmemdb.NewActivityRepository(db),
		inmemdb.NewGalleryRepository(db),
		inmemdb.NewEnquiryRepository(db),
		uploadsvc.NewInmemService(),
		nopLogger{},
	)
}

func testActor(role string, active bool) principal.Principal {
	now := time.Now().UTC()
	adm := &principal.Admin{
		ID:           uuid.NewString(),
		HumanID:      principal.FormatHumanID(role, "ktm", 1),
		Name:         "Actor",
		AdminRole:    role,
		BranchName:   "Kathmandu",
		BranchCode:   "ktm",
		ActiveStatus: active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	adm.Email = fmt.Sprintf("%s@test.cd", uuid.NewString()[:8])
	adm.IsVerified = true
	return adm
}

func imageFixture(name string) []core.FileUpload {
	return []core.FileUpload{{Name: name, Content: []byte("jpegbytes")}}
}

func isForbidden(err error) bool {
	var authErr *core.AuthError
	return errors.As(err, &authErr) && authErr.Forbidden
}

func isConflict(err error) bool {
	var confErr *core.ConflictError
	return errors.As(err, &confErr)
}

func newBranchFixture(branchID, email, mobile string) catalog.NewBranch {
	return catalog.NewBranch{
		BranchID:      branchID,
		Name:          "Kathmandu",
		Code:          "ktm",
		Address:       "New Road, Kathmandu",
		GoogleMapLink: "https://maps.google.com/?q=kathmandu",
		Email:         email,
		Mobile:        mobile,
	}
}

func TestService_AddCourse(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	super := testActor(principal.RoleSuper, true)
	branchAdm := testActor(principal.RoleBranchAdmin, true)

	nc := catalog.NewCourse{
		Name:     "Computer Basics",
		FullName: "Fundamentals of Computing",
		Content:  []string{"MS Office", "Internet"},
		Duration: "3 months",
	}

	if _, err := svc.AddCourse(ctx, branchAdm, nc, imageFixture("c.jpg")); !isForbidden(err) {
		t.Errorf("AddCourse() by branch admin error = %v; want forbidden", err)
	}

	if _, err := svc.AddCourse(ctx, super, nc, nil); err == nil {
		t.Error("AddCourse() without images should fail")
	}

	crs, err := svc.AddCourse(ctx, super, nc, imageFixture("c.jpg"))
	if err != nil {
		t.Fatalf("AddCourse() error = %v", err)
	}
	if len(crs.Images) != 1 || !strings.Contains(crs.Images[0], "courses/") {
		t.Errorf("Images = %v; want one courses/ URL", crs.Images)
	}

	courses, err := svc.ListCourses(ctx)
	if err != nil {
		t.Fatalf("ListCourses() error = %v", err)
	}
	if len(courses) != 1 || courses[0].Name != "Computer Basics" {
		t.Errorf("ListCourses() = %v; want the created course", courses)
	}
}

func TestService_CreateBranch_duplicates(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	super := testActor(principal.RoleSuper, true)

	if _, err := svc.CreateBranch(ctx, super, newBranchFixture("KTM-01", "ktm@test.cd", "9800000001"), imageFixture("b.jpg")); err != nil {
		t.Fatalf("CreateBranch() error = %v", err)
	}

	tests := []struct {
		name      string
		nb        catalog.NewBranch
		wantField string
	}{
		{name: "duplicate branchId", nb: newBranchFixture("KTM-01", "other@test.cd", "9800000002"), wantField: "Branch ID"},
		{name: "duplicate email", nb: newBranchFixture("KTM-02", "ktm@test.cd", "9800000003"), wantField: "Email"},
		{name: "duplicate mobile", nb: newBranchFixture("KTM-03", "other2@test.cd", "9800000001"), wantField: "Mobile Number"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateBranch(ctx, super, tt.nb, imageFixture("b.jpg"))
			if !isConflict(err) {
				t.Fatalf("CreateBranch() error = %v; want ConflictError", err)
			}
			want := fmt.Sprintf("%s already exists", tt.wantField)
			if err.Error() != want {
				t.Errorf("CreateBranch() error = %q; want %q", err.Error(), want)
			}
		})
	}
}

func TestService_CreateTeamMember(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	super := testActor(principal.RoleSuper, true)

	nt := catalog.NewTeamMember{Name: "Jane", Designation: "Director", Description: "Runs the institute"}

	if _, err := svc.CreateTeamMember(ctx, super, nt, core.FileUpload{}); err == nil {
		t.Error("CreateTeamMember() without a photo should fail")
	}

	tm, err := svc.CreateTeamMember(ctx, super, nt, core.FileUpload{Name: "jane.png", Content: []byte("png")})
	if err != nil {
		t.Fatalf("CreateTeamMember() error = %v", err)
	}
	// the photo keeps its original base name
	if !strings.HasSuffix(tm.Image, "team/jane") {
		t.Errorf("Image = %q; want a team/jane URL", tm.Image)
	}
}

func TestService_Gallery(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	super := testActor(principal.RoleSuper, true)

	if _, err := svc.UploadGalleryImages(ctx, super, nil); err == nil {
		t.Error("UploadGalleryImages() without files should fail")
	}

	for i := 0; i < 5; i++ {
		if _, err := svc.UploadGalleryImages(ctx, super, imageFixture(fmt.Sprintf("g%d.jpg", i))); err != nil {
			t.Fatalf("UploadGalleryImages() #%d error = %v", i, err)
		}
	}

	recent, err := svc.RecentImages(ctx)
	if err != nil {
		t.Fatalf("RecentImages() error = %v", err)
	}
	if len(recent) != 4 {
		t.Errorf("RecentImages() returned %d sets; want 4", len(recent))
	}
}

func TestService_Enquiries(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	super := testActor(principal.RoleSuper, true)
	student := &principal.Student{StudentRole: principal.RoleStudent, ActiveStatus: true}

	apply := catalog.NewCourseApplication{Name: "A", Mobile: "9800000001", Center: "Kathmandu", Course: "Computer Basics"}
	if err := svc.ApplyCourse(ctx, apply); err != nil {
		t.Fatalf("ApplyCourse() error = %v", err)
	}
	if err := svc.ApplyCourse(ctx, apply); !isConflict(err) {
		t.Errorf("ApplyCourse() duplicate error = %v; want ConflictError", err)
	}

	interest := catalog.NewCourseInterest{CourseName: "Computer Basics", Name: "B", Phone: "9800000002"}
	if err := svc.ApplyInCourse(ctx, interest); err != nil {
		t.Fatalf("ApplyInCourse() error = %v", err)
	}
	if err := svc.ApplyInCourse(ctx, interest); !isConflict(err) {
		t.Errorf("ApplyInCourse() duplicate error = %v; want ConflictError", err)
	}

	msg := catalog.NewContactMessage{Name: "C", Phone: "9800000003", Message: "hello"}
	if err := svc.SendMessage(ctx, msg); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if err := svc.SendMessage(ctx, msg); !isConflict(err) {
		t.Errorf("SendMessage() duplicate error = %v; want ConflictError", err)
	}

	if _, err := svc.Notifications(ctx, student); !isForbidden(err) {
		t.Errorf("Notifications() by student error = %v; want forbidden", err)
	}

	digest, err := svc.Notifications(ctx, super)
	if err != nil {
		t.Fatalf("Notifications() error = %v", err)
	}
	if digest.BranchCourseCount != 1 {
		t.Errorf("BranchCourseCount = %d; want 1", digest.BranchCourseCount)
	}
	if digest.TotalCount != 3 {
		t.Errorf("TotalCount = %d; want 3", digest.TotalCount)
	}

	t.Run("delete notification", func(t *testing.T) {
		if err := svc.DeleteNotification(ctx, super, digest.Applications[0].ID, "lol"); err == nil {
			t.Error("DeleteNotification() with invalid type should fail")
		}
		if err := svc.DeleteNotification(ctx, super, digest.Applications[0].ID, catalog.NotificationTypeApplication); err != nil {
			t.Fatalf("DeleteNotification() error = %v", err)
		}
		if err := svc.DeleteNotification(ctx, super, digest.Applications[0].ID, catalog.NotificationTypeApplication); err != catalog.ErrNotFound {
			t.Errorf("DeleteNotification() repeat error = %v; want ErrNotFound", err)
		}

		// the other two inboxes delete through their own type
		if err := svc.DeleteNotification(ctx, super, digest.Interests[0].ID, catalog.NotificationTypeInterest); err != nil {
			t.Fatalf("DeleteNotification(interest) error = %v", err)
		}
		if err := svc.DeleteNotification(ctx, super, digest.Messages[0].ID, catalog.NotificationTypeMessage); err != nil {
			t.Fatalf("DeleteNotification(message) error = %v", err)
		}
		if err := svc.DeleteNotification(ctx, super, digest.Messages[0].ID, catalog.NotificationTypeMessage); err != catalog.ErrNotFound {
			t.Errorf("DeleteNotification(message) repeat error = %v; want ErrNotFound", err)
		}

		refreshed, err := svc.Notifications(ctx, super)
		if err != nil {
			t.Fatalf("Notifications() error = %v", err)
		}
		if refreshed.TotalCount != 0 {
			t.Errorf("TotalCount = %d; want 0", refreshed.TotalCount)
		}
	})
}
