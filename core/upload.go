package core

import "context"

// FileUpload is an in-memory uploaded file on its way to object storage.
type FileUpload struct {
	Name    string
	Content []byte
}

// UploadService is the object-storage capability: it stores content under a
// unique name inside folder and returns the public URL. Failures are
// non-fatal-but-reported for the caller.
type UploadService interface {
	Upload(ctx context.Context, content []byte, name, folder string) (string, error)
}
