package catalog

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ryitech/institute/core"
)

// Course is a published course offering.
type Course struct {
	ID              string   `json:"id"`
	Name            string   `json:"course_name"`
	FullName        string   `json:"course_full_name"`
	Content         []string `json:"course_content"`
	Duration        string   `json:"course_duration"`
	Images          []string `json:"image"`
	ExtraFacilities []string `json:"extra_facilities"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Branch is a physical institute location.
type Branch struct {
	ID            string   `json:"id"`
	BranchID      string   `json:"branchId"`
	Name          string   `json:"branch_name"`
	Code          string   `json:"branch_code"`
	Address       string   `json:"branch_address"`
	GoogleMapLink string   `json:"google_map_link"`
	Images        []string `json:"image"`
	Email         string   `json:"email"`
	Mobile        string   `json:"mobile"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// TeamMember is a staff profile shown on the public site.
type TeamMember struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Designation string `json:"designation"`
	Description string `json:"description"`
	Image       string `json:"image"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// Activity is a highlighted event with a video link.
type Activity struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	VideoURL string `json:"videoUrl"`

	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// GalleryImage is a batch of uploaded gallery image URLs.
type GalleryImage struct {
	ID     string   `json:"id"`
	Images []string `json:"images"`

	CreatedAt time.Time `json:"created_at"` // UTC
}

// CourseApplication is a public application enquiry for a course at a center.
type CourseApplication struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
	Center string `json:"center"`
	Course string `json:"course"`

	CreatedAt time.Time `json:"created_at"` // UTC
}

// CourseInterest is a lighter public enquiry about a single course.
type CourseInterest struct {
	ID         string `json:"id"`
	CourseName string `json:"courseName"`
	Name       string `json:"name"`
	Phone      string `json:"ph"`

	CreatedAt time.Time `json:"created_at"` // UTC
}

// ContactMessage is a public contact-form message.
type ContactMessage struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"ph"`
	Email   string `json:"email"`
	Message string `json:"msg"`

	CreatedAt time.Time `json:"created_at"` // UTC
}

// NotificationDigest aggregates all pending enquiries for the admin console.
type NotificationDigest struct {
	BranchCourseCount int                 `json:"branchCourseCount"`
	TotalCount        int                 `json:"totalCount"`
	Applications      []CourseApplication `json:"applyData"`
	Interests         []CourseInterest    `json:"applyCourse"`
	Messages          []ContactMessage    `json:"sendMsg"`
}

// NewCourse contains information needed to publish a new Course.
type NewCourse struct {
	Name            string   `json:"course_name" form:"course_name" validate:"required"`
	FullName        string   `json:"course_full_name" form:"course_full_name" validate:"required"`
	Content         []string `json:"course_content" form:"course_content" validate:"required,min=1"`
	Duration        string   `json:"course_duration" form:"course_duration" validate:"required"`
	ExtraFacilities []string `json:"extra_facilities" form:"extra_facilities"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.FullName = core.CleanString(nc.FullName)
	return validate.Struct(nc)
}

// NewBranch contains information needed to open a new Branch.
type NewBranch struct {
	BranchID      string `json:"branchId" form:"branchId" validate:"required"`
	Name          string `json:"branch_name" form:"branch_name" validate:"required"`
	Code          string `json:"branch_code" form:"branch_code" validate:"required,alphanum"`
	Address       string `json:"branch_address" form:"branch_address" validate:"required"`
	GoogleMapLink string `json:"google_map_link" form:"google_map_link" validate:"required,url"`
	Email         string `json:"email" form:"email" validate:"required,email"`
	Mobile        string `json:"mobile" form:"mobile" validate:"required"`
}

func (nb *NewBranch) Validate(validate *validator.Validate) error {
	nb.Name = core.CleanString(nb.Name)
	nb.Code = core.CleanString(nb.Code, true /* lower */)
	nb.Email = core.CleanString(nb.Email, true /* lower */)
	return validate.Struct(nb)
}

// NewTeamMember contains information needed to add a TeamMember.
type NewTeamMember struct {
	Name        string `json:"name" form:"name" validate:"required"`
	Designation string `json:"designation" form:"designation" validate:"required"`
	Description string `json:"description" form:"description" validate:"required"`
}

func (nt *NewTeamMember) Validate(validate *validator.Validate) error {
	nt.Name = core.CleanString(nt.Name)
	nt.Designation = core.CleanString(nt.Designation)
	return validate.Struct(nt)
}

// NewActivity contains information needed to publish an Activity.
type NewActivity struct {
	Title    string `json:"title" validate:"required"`
	VideoURL string `json:"videoUrl" validate:"required,url"`
}

func (na *NewActivity) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

// NewCourseApplication is the public applyCourse payload.
type NewCourseApplication struct {
	Name   string `json:"name" validate:"required"`
	Mobile string `json:"mobile" validate:"required,mobile"`
	Email  string `json:"email" validate:"omitempty,email"`
	Center string `json:"center" validate:"required"`
	Course string `json:"course" validate:"required"`
}

func (na *NewCourseApplication) Validate(validate *validator.Validate) error {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Mobile = core.CleanString(na.Mobile)
	return validate.Struct(na)
}

// NewCourseInterest is the public apply-in-a-course payload.
type NewCourseInterest struct {
	CourseName string `json:"courseName" validate:"required"`
	Name       string `json:"name" validate:"required"`
	Phone      string `json:"ph" validate:"required,mobile"`
}

func (ni *NewCourseInterest) Validate(validate *validator.Validate) error {
	ni.CourseName = core.CleanString(ni.CourseName)
	ni.Name = core.CleanString(ni.Name)
	ni.Phone = core.CleanString(ni.Phone)
	return validate.Struct(ni)
}

// NewContactMessage is the public send-msg payload.
type NewContactMessage struct {
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"ph" validate:"required,mobile"`
	Email   string `json:"email" validate:"omitempty,email"`
	Message string `json:"msg" validate:"required"`
}

func (nm *NewContactMessage) Validate(validate *validator.Validate) error {
	nm.Name = core.CleanString(nm.Name)
	nm.Email = core.CleanString(nm.Email, true /* lower */)
	nm.Phone = core.CleanString(nm.Phone)
	return validate.Struct(nm)
}
