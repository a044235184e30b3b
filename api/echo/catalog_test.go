package echoapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ryitech/institute/core/catalog"
	"github.com/ryitech/institute/core/principal"
)

func newMultipartRequest(t *testing.T, path, token string, fields map[string]string, files map[string][]byte) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("writing form field %q: %v", k, err)
		}
	}
	for name, content := range files {
		part, err := w.CreateFormFile("image", name)
		if err != nil {
			t.Fatalf("creating form file %q: %v", name, err)
		}
		if _, err = part.Write(content); err != nil {
			t.Fatalf("writing form file %q: %v", name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, httptest.NewRecorder()
}

func TestPublicEnquiries(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{
			name: "apply bad mobile", method: http.MethodPost, path: "/api/v1/applyCourse",
			body:     []byte(`{"name":"Asha","mobile":"nope","center":"Kathmandu","course":"CS50"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "apply ok", method: http.MethodPost, path: "/api/v1/applyCourse",
			body:     []byte(`{"name":"Asha","mobile":"9800000001","email":"asha@test.cd","center":"Kathmandu","course":"CS50"}`),
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, success("Application submitted successfully")),
		},
		{
			name: "apply duplicate mobile", method: http.MethodPost, path: "/api/v1/applyCourse",
			body:     []byte(`{"name":"Asha Again","mobile":"9800000001","center":"Pokhara","course":"CS50"}`),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "already applied with this number"}),
		},
		{
			name: "interest ok", method: http.MethodPost, path: "/api/v1/apply-in-a-course",
			body:     []byte(`{"courseName":"CS50","name":"Bimal","ph":"9800000002"}`),
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, success("Interest submitted successfully")),
		},
		{
			name: "interest duplicate phone", method: http.MethodPost, path: "/api/v1/apply-in-a-course",
			body:     []byte(`{"courseName":"CS50","name":"Bimal","ph":"9800000002"}`),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "already applied with this phone number, we will contact you soon"}),
		},
		{
			name: "message ok", method: http.MethodPost, path: "/api/v1/send-msg",
			body:     []byte(`{"name":"Chandra","ph":"9800000003","msg":"when does the next batch start?"}`),
			wantCode: http.StatusCreated,
			wantData: marchallObj(t, success("Message sent successfully")),
		},
		{
			name: "message duplicate phone", method: http.MethodPost, path: "/api/v1/send-msg",
			body:     []byte(`{"name":"Chandra","ph":"9800000003","msg":"hello again"}`),
			wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: "already contacted with this phone number"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestActivities(t *testing.T) {
	app := setup(t)

	super := createAdmin(t, app, "Super", "super@test.cd", principal.RoleSuper, "Kathmandu", "ktm", true)
	branchAdm := createAdmin(t, app, "Branch", "branch@test.cd", principal.RoleBranchAdmin, "Kathmandu", "ktm", true)

	payload := []byte(`{"title":"Robotics Week","videoUrl":"https://youtu.be/abc123"}`)

	tests := []httpTest{
		{
			name: "forbidden for branch admin", method: http.MethodPost, path: "/api/v1/add-activity",
			token: getToken(t, app, branchAdm), body: payload, wantCode: http.StatusForbidden,
		},
		{
			name: "missing video url", method: http.MethodPost, path: "/api/v1/add-activity",
			token: getToken(t, app, super), body: []byte(`{"title":"Robotics Week"}`),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "created by super", method: http.MethodPost, path: "/api/v1/add-activity",
			token: getToken(t, app, super), body: payload, wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	req, rec := newRequest(http.MethodGet, "/api/v1/get-activities")
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get-activities code = %v; want %v", rec.Code, http.StatusOK)
	}
	var activities []catalog.Activity
	if err := json.Unmarshal(rec.Body.Bytes(), &activities); err != nil {
		t.Fatalf("unmarshalling activities: %v", err)
	}
	if len(activities) != 1 || activities[0].Title != "Robotics Week" {
		t.Errorf("activities = %+v; want the one added", activities)
	}
}

func TestUploadGalleryImages(t *testing.T) {
	app := setup(t)

	super := createAdmin(t, app, "Super", "super@test.cd", principal.RoleSuper, "Kathmandu", "ktm", true)

	req, rec := newMultipartRequest(t, "/api/v1/upload-image", getToken(t, app, super), nil, map[string][]byte{
		"one.jpg": []byte("fake-jpeg-1"),
		"two.jpg": []byte("fake-jpeg-2"),
	})
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload-image code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	// no files at all is rejected
	req, rec = newMultipartRequest(t, "/api/v1/upload-image", getToken(t, app, super), nil, nil)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty upload-image code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	req, rec2 := newRequest(http.MethodGet, "/api/v1/recent")
	app.server.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("recent code = %v; want %v", rec2.Code, http.StatusOK)
	}
	var sets []catalog.GalleryImage
	if err := json.Unmarshal(rec2.Body.Bytes(), &sets); err != nil {
		t.Fatalf("unmarshalling gallery sets: %v", err)
	}
	if len(sets) != 1 || len(sets[0].Images) != 2 {
		t.Errorf("gallery sets = %+v; want one set of two images", sets)
	}
}

func TestAddCourseMultipart(t *testing.T) {
	app := setup(t)

	super := createAdmin(t, app, "Super", "super@test.cd", principal.RoleSuper, "Kathmandu", "ktm", true)

	fields := map[string]string{
		"course_name":      "CS50",
		"course_full_name": "Introduction to Computer Science",
		"course_content":   "algorithms",
		"course_duration":  "12 weeks",
	}

	// images are mandatory
	req, rec := newMultipartRequest(t, "/api/v1/addCourse", getToken(t, app, super), fields, nil)
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("addCourse without image code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	req, rec = newMultipartRequest(t, "/api/v1/addCourse", getToken(t, app, super), fields, map[string][]byte{
		"banner.png": []byte("fake-png"),
	})
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("addCourse code = %v; want %v: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	req, rec2 := newRequest(http.MethodGet, "/api/v1/getCourse")
	app.server.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusOK {
		t.Fatalf("getCourse code = %v; want %v", rec2.Code, http.StatusOK)
	}
	var courses []catalog.Course
	if err := json.Unmarshal(rec2.Body.Bytes(), &courses); err != nil {
		t.Fatalf("unmarshalling courses: %v", err)
	}
	if len(courses) != 1 || courses[0].Name != "CS50" || len(courses[0].Images) != 1 {
		t.Errorf("courses = %+v; want the one added with its image", courses)
	}
}

func TestNotifications(t *testing.T) {
	app := setup(t)

	super := createAdmin(t, app, "Super", "super@test.cd", principal.RoleSuper, "Kathmandu", "ktm", true)
	student := createStudent(t, app, "Student", "student@test.cd", "9800000009", "Kathmandu", "ktm", true)

	seed := []httpTest{
		{method: http.MethodPost, path: "/api/v1/applyCourse", body: []byte(`{"name":"Asha","mobile":"9800000001","center":"Kathmandu","course":"CS50"}`)},
		{method: http.MethodPost, path: "/api/v1/apply-in-a-course", body: []byte(`{"courseName":"CS50","name":"Bimal","ph":"9800000002"}`)},
		{method: http.MethodPost, path: "/api/v1/send-msg", body: []byte(`{"name":"Chandra","ph":"9800000003","msg":"hi"}`)},
	}
	for _, tt := range seed {
		req, rec := newRequest(tt.method, tt.path, tt.body)
		app.server.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("seeding %s code = %v: %s", tt.path, rec.Code, rec.Body.String())
		}
	}

	req, rec := newAuthRequest(http.MethodGet, "/api/v1/get-notification", getToken(t, app, student))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("student get-notification code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodGet, "/api/v1/get-notification", getToken(t, app, super))
	app.server.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get-notification code = %v; want %v: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var digest catalog.NotificationDigest
	if err := json.Unmarshal(rec.Body.Bytes(), &digest); err != nil {
		t.Fatalf("unmarshalling digest: %v", err)
	}
	if digest.TotalCount != 3 || digest.BranchCourseCount != 1 {
		t.Errorf("digest counts = %d/%d; want 3/1", digest.TotalCount, digest.BranchCourseCount)
	}

	appID := digest.Applications[0].ID
	tests := []httpTest{
		{
			name: "invalid type", method: http.MethodDelete,
			path:  "/api/v1/delete-notification/" + appID + "/lol",
			token: getToken(t, app, super), wantCode: http.StatusBadRequest,
		},
		{
			name: "delete application", method: http.MethodDelete,
			path:  "/api/v1/delete-notification/" + appID + "/" + catalog.NotificationTypeApplication,
			token: getToken(t, app, super), wantCode: http.StatusOK,
			wantData: marchallObj(t, success("Notification deleted successfully")),
		},
		{
			name: "already deleted", method: http.MethodDelete,
			path:  "/api/v1/delete-notification/" + appID + "/" + catalog.NotificationTypeApplication,
			token: getToken(t, app, super), wantCode: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.server.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
