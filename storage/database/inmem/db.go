package inmemdb

import (
	"sync"

	"github.com/ryitech/institute/core/catalog"
	"github.com/ryitech/institute/core/principal"
)

// DB is an in-memory store used by tests and local development.
type DB struct {
	mutex sync.RWMutex

	admins    map[string]*principal.Admin
	students  map[string]*principal.Student
	sequences map[string]int

	courses      map[string]*catalog.Course
	branches     map[string]*catalog.Branch
	teamMembers  map[string]*catalog.TeamMember
	activities   map[string]*catalog.Activity
	images       map[string]*catalog.GalleryImage
	applications map[string]*catalog.CourseApplication
	interests    map[string]*catalog.CourseInterest
	messages     map[string]*catalog.ContactMessage
}

func Open() *DB {
	return &DB{
		admins:       make(map[string]*principal.Admin),
		students:     make(map[string]*principal.Student),
		sequences:    make(map[string]int),
		courses:      make(map[string]*catalog.Course),
		branches:     make(map[string]*catalog.Branch),
		teamMembers:  make(map[string]*catalog.TeamMember),
		activities:   make(map[string]*catalog.Activity),
		images:       make(map[string]*catalog.GalleryImage),
		applications: make(map[string]*catalog.CourseApplication),
		interests:    make(map[string]*catalog.CourseInterest),
		messages:     make(map[string]*catalog.ContactMessage),
	}
}
