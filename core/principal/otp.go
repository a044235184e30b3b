package principal

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"net/mail"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/ryitech/institute/core"
)

var (
	// errors
	ErrOTPExpired      = errors.New("OTP expired, please register again")
	ErrOTPMismatch     = errors.New("invalid OTP")
	ErrOTPStillValid   = errors.New("OTP is still valid, please wait")
	ErrAlreadyVerified = errors.New("already verified")

	nowFunc = time.Now // mockable
)

// GenerateOTP returns a uniformly random numeric code of n digits; leading
// zeros allowed.
func GenerateOTP(n int) (string, error) {
	upper := big.NewInt(int64(math.Pow10(n)))
	v, err := rand.Int(rand.Reader, upper)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", n, v), nil
}

// OTPEngine issues and validates one-time verification codes, enforcing
// expiry and request rate limiting with temporary blocking.
//
// Per-principal states: Unverified-NoOtp, Unverified-OtpPending, Verified,
// Blocked. The counter increment is a read-modify-write over the store; two
// near-simultaneous requests for the same principal can lose an update, which
// is accepted at this load.
type OTPEngine struct {
	dir     *Directory
	mailSvc core.EmailService
	conf    *core.Config
}

func NewOTPEngine(dir *Directory, mailSvc core.EmailService, conf *core.Config) *OTPEngine {
	return &OTPEngine{dir: dir, mailSvc: mailSvc, conf: conf}
}

func (e *OTPEngine) ttl(p Principal) time.Duration {
	if IsAdminRole(p.Role()) {
		return e.conf.OTP.AdminTTL
	}
	return e.conf.OTP.StudentTTL
}

// checkBlocked refuses issuance while the principal's block window is open.
func (e *OTPEngine) checkBlocked(cred *Credential, now time.Time) error {
	if cred.IsBlocked && cred.BlockedUntil.After(now) {
		remaining := int(math.Ceil(cred.BlockedUntil.Sub(now).Minutes()))
		return core.NewRateLimitedError(remaining)
	}
	return nil
}

// Issue generates a fresh code, persists its hash and expiry and emails the
// plaintext to the principal. isNew marks a principal created for this
// issuance: if the mail fails the record is deleted (registration rollback);
// an existing principal's already-persisted state is left untouched.
func (e *OTPEngine) Issue(ctx context.Context, p Principal, isNew bool) error {
	cred := p.Cred()
	now := nowFunc().UTC()

	if err := e.checkBlocked(cred, now); err != nil {
		return err
	}

	// the window only resets lazily, on the first request after it elapsed
	if now.Sub(cred.OTPRequestWindowStart) > e.conf.OTP.RequestWindow {
		cred.OTPRequestCount = 0
		cred.OTPRequestWindowStart = now
	}
	cred.OTPRequestCount++
	if cred.OTPRequestCount > e.conf.OTP.MaxRequests {
		cred.IsBlocked = true
		cred.BlockedUntil = now.Add(e.conf.OTP.BlockDelta)
		if err := e.dir.Save(ctx, p); err != nil {
			return pkgerrors.Wrap(err, "persisting OTP block")
		}
		return core.NewRateLimitedError(int(e.conf.OTP.BlockDelta.Minutes()))
	}

	code, err := GenerateOTP(e.conf.OTP.Length)
	if err != nil {
		return pkgerrors.Wrap(err, "generating OTP")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return pkgerrors.Wrap(err, "hashing OTP")
	}
	cred.OTPHash = hash
	cred.OTPExpiresAt = now.Add(e.ttl(p))
	if cred.OTPRequestWindowStart.IsZero() {
		cred.OTPRequestWindowStart = now
	}

	if err = e.dir.Save(ctx, p); err != nil {
		return pkgerrors.Wrap(err, "persisting OTP state")
	}

	to := mail.Address{Address: cred.Email}
	body := fmt.Sprintf("Your OTP is: %s. It is valid for %d minutes.", code, int(e.ttl(p).Minutes()))
	if err = e.mailSvc.Send(to, "OTP VERIFICATION", body); err != nil {
		if isNew {
			// best-effort compensation; an existing principal keeps its state
			_ = e.dir.Delete(ctx, p)
		}
		return core.NewUpstreamError(err, "sending OTP email")
	}
	return nil
}

// Verify checks a candidate code. An expired code deletes the never-verified
// record (registration abandonment cleanup).
func (e *OTPEngine) Verify(ctx context.Context, p Principal, candidate string) error {
	cred := p.Cred()
	if cred.IsVerified {
		return ErrAlreadyVerified
	}
	if cred.OTPExpiresAt.IsZero() || nowFunc().UTC().After(cred.OTPExpiresAt) {
		_ = e.dir.Delete(ctx, p)
		return ErrOTPExpired
	}
	if bcrypt.CompareHashAndPassword(cred.OTPHash, []byte(candidate)) != nil {
		return ErrOTPMismatch
	}

	cred.IsVerified = true
	cred.OTPHash = nil
	cred.OTPExpiresAt = time.Time{}
	return pkgerrors.Wrap(e.dir.Save(ctx, p), "persisting verification")
}

// Resend refuses while a non-expired OTP is pending, otherwise issues afresh.
func (e *OTPEngine) Resend(ctx context.Context, p Principal) error {
	cred := p.Cred()
	if cred.IsVerified {
		return ErrAlreadyVerified
	}
	if cred.OTPExpiresAt.After(nowFunc().UTC()) {
		return ErrOTPStillValid
	}
	return e.Issue(ctx, p, false)
}
