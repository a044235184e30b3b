package uploadsvc

import (
	"context"
	"fmt"
	"sync"

	"github.com/ryitech/institute/core"
)

// inmemService records uploads and returns fake URLs; used in tests and
// local development without Cloudinary credentials.
type inmemService struct {
	mu      sync.Mutex
	uploads map[string][]byte
	failErr error
}

var _ core.UploadService = (*inmemService)(nil)

func NewInmemService() *inmemService {
	return &inmemService{uploads: make(map[string][]byte)}
}

func (svc *inmemService) Upload(_ context.Context, content []byte, name, folder string) (string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	if svc.failErr != nil {
		return "", svc.failErr
	}
	key := folder + "/" + name
	svc.uploads[key] = content
	return fmt.Sprintf("https://uploads.local/%s", key), nil
}

// Count returns the number of stored uploads.
func (svc *inmemService) Count() int {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return len(svc.uploads)
}

// FailUploads makes subsequent uploads return err (nil restores uploads).
func (svc *inmemService) FailUploads(err error) {
	svc.mu.Lock()
	svc.failErr = err
	svc.mu.Unlock()
}
