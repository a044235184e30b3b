package googlesvc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/principal"
)

// tokeninfoVerifier validates Google ID tokens against the public tokeninfo
// endpoint.
type tokeninfoVerifier struct {
	endpoint string
	client   *http.Client
}

var _ principal.GoogleVerifier = (*tokeninfoVerifier)(nil)

func NewTokeninfoVerifier(conf *core.Config) principal.GoogleVerifier {
	return &tokeninfoVerifier{
		endpoint: conf.GoogleTokenInfoURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type tokenInfo struct {
	Email string `json:"email"`
	Sub   string `json:"sub"`
}

func (v *tokeninfoVerifier) Verify(ctx context.Context, idToken string) (email, googleID string, err error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet,
		v.endpoint+"?id_token="+url.QueryEscape(idToken),
		nil,
	)
	if err != nil {
		return "", "", errors.Wrap(err, "creating request")
	}

	res, err := v.client.Do(req)
	if err != nil {
		return "", "", errors.Wrap(err, "calling tokeninfo")
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", "", errors.Errorf("tokeninfo: status %d", res.StatusCode)
	}

	var info tokenInfo
	if err = json.NewDecoder(res.Body).Decode(&info); err != nil {
		return "", "", errors.Wrap(err, "decoding tokeninfo")
	}
	if info.Email == "" || info.Sub == "" {
		return "", "", errors.New("tokeninfo: missing email or subject")
	}
	return info.Email, info.Sub, nil
}
