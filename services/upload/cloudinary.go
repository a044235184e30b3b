package uploadsvc

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/ryitech/institute/core"
)

var nowFunc = time.Now // mocked in tests

// cloudinaryService uploads images through the Cloudinary REST API using a
// signed upload request.
type cloudinaryService struct {
	cloudName string
	apiKey    string
	apiSecret string
	baseURL   string
	client    *http.Client
}

var _ core.UploadService = (*cloudinaryService)(nil)

func NewCloudinaryService(conf *core.Config) core.UploadService {
	return &cloudinaryService{
		cloudName: conf.Upload.CloudName,
		apiKey:    conf.Upload.APIKey,
		apiSecret: conf.Upload.APISecret,
		baseURL:   conf.Upload.BaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (svc *cloudinaryService) Upload(ctx context.Context, content []byte, name, folder string) (string, error) {
	publicID := fmt.Sprintf("%s_%d", name, nowFunc().UnixMilli())
	timestamp := strconv.FormatInt(nowFunc().Unix(), 10)

	params := map[string]string{
		"public_id": publicID,
		"folder":    folder,
		"timestamp": timestamp,
	}

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for k, v := range params {
		if err := w.WriteField(k, v); err != nil {
			return "", errors.Wrap(err, "writing form field")
		}
	}
	if err := w.WriteField("api_key", svc.apiKey); err != nil {
		return "", errors.Wrap(err, "writing form field")
	}
	if err := w.WriteField("signature", svc.sign(params)); err != nil {
		return "", errors.Wrap(err, "writing form field")
	}
	fw, err := w.CreateFormFile("file", name)
	if err != nil {
		return "", errors.Wrap(err, "creating form file")
	}
	if _, err = fw.Write(content); err != nil {
		return "", errors.Wrap(err, "writing file content")
	}
	if err = w.Close(); err != nil {
		return "", errors.Wrap(err, "closing form")
	}

	url := fmt.Sprintf("%s/%s/image/upload", svc.baseURL, svc.cloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", errors.Wrap(err, "creating request")
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	res, err := svc.client.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "uploading")
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return "", errors.Wrap(err, "reading response")
	}
	var upRes uploadResponse
	if err = json.Unmarshal(data, &upRes); err != nil {
		return "", errors.Wrap(err, "decoding response")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", errors.Errorf("cloudinary: status %d: %s", res.StatusCode, upRes.Error.Message)
	}
	return upRes.SecureURL, nil
}

// sign computes the Cloudinary request signature: the SHA1 of the sorted
// params joined as a query string, with the API secret appended.
func (svc *cloudinaryService) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := new(bytes.Buffer)
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(params[k])
	}
	buf.WriteString(svc.apiSecret)

	sum := sha1.Sum(buf.Bytes())
	return hex.EncodeToString(sum[:])
}
