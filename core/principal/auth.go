package principal

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	pkgerrors "github.com/pkg/errors"

	"github.com/ryitech/institute/core"
)

const minPasswordLen = 8

var (
	// errors
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("account is not active, please contact support")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrWeakPassword       = fmt.Errorf("password must be at least %d characters", minPasswordLen)
	ErrGoogleToken        = errors.New("invalid Google token")
	ErrStudentsOnly       = errors.New("only students can log in via Google")
	ErrNotRegistered      = errors.New("user not registered, contact admin to register first")
)

// GoogleVerifier validates an external identity token out-of-band and returns
// the asserted email and subject.
type GoogleVerifier interface {
	Verify(ctx context.Context, idToken string) (email, googleID string, err error)
}

// Authenticator is the unified authentication surface shared by both
// principal variants: login, password reset and federated login.
type Authenticator struct {
	dir     *Directory
	tokens  *TokenManager
	mailSvc core.EmailService
	google  GoogleVerifier
	conf    *core.Config
}

func NewAuthenticator(dir *Directory, tokens *TokenManager, mailSvc core.EmailService, google GoogleVerifier, conf *core.Config) *Authenticator {
	return &Authenticator{dir: dir, tokens: tokens, mailSvc: mailSvc, google: google, conf: conf}
}

// Login authenticates an email/password pair against the Admin collection
// first, then Students. An inactive account is reported as such before the
// password is checked.
func (a *Authenticator) Login(ctx context.Context, email, password string) (string, Principal, error) {
	p, err := a.dir.FindByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if err == ErrNotFound {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, pkgerrors.Wrap(err, "finding principal by email")
	}
	if !p.Active() {
		return "", nil, ErrAccountInactive
	}
	if err = p.Cred().CheckPassword(password); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := a.tokens.MakeSessionToken(p)
	if err != nil {
		return "", nil, pkgerrors.Wrap(err, "signing session token")
	}
	return token, p, nil
}

// RequestPasswordReset emails a short-lived reset link. An unknown email is
// reported back as invalid; no enumeration hardening is applied here.
func (a *Authenticator) RequestPasswordReset(ctx context.Context, email string) error {
	p, err := a.dir.FindByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if err == ErrNotFound {
			return ErrInvalidEmail
		}
		return pkgerrors.Wrap(err, "finding principal by email")
	}

	token, err := a.tokens.MakeResetToken(p)
	if err != nil {
		return pkgerrors.Wrap(err, "signing reset token")
	}

	resetURL := fmt.Sprintf("%s/resetPassword/%s", a.conf.FrontendBaseURL, token)
	to := mail.Address{Address: p.Cred().Email}
	body := fmt.Sprintf("Click the link to reset your password: %s", resetURL)
	if err = a.mailSvc.Send(to, "Password Reset", body); err != nil {
		return core.NewUpstreamError(err, "sending reset email")
	}
	return nil
}

// ConfirmPasswordReset overwrites the password hash of the principal embedded
// in a still-valid reset token. A completed reset does not invalidate live
// session tokens.
func (a *Authenticator) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return ErrWeakPassword
	}
	claims, err := a.tokens.VerifyResetToken(token)
	if err != nil {
		return err
	}

	p, err := a.dir.FindByID(ctx, claims.Subject)
	if err != nil {
		if err == ErrNotFound {
			return ErrNotFound
		}
		return pkgerrors.Wrap(err, "finding principal by ID")
	}
	if err = p.Cred().SetPassword(newPassword); err != nil {
		return pkgerrors.Wrap(err, "hashing new password")
	}
	return pkgerrors.Wrap(a.dir.Save(ctx, p), "persisting new password")
}

// GoogleLogin verifies an external identity token; the matched principal must
// already exist as a student. The federated identity reference is backfilled
// on first use, then a session token is issued exactly like normal login.
func (a *Authenticator) GoogleLogin(ctx context.Context, credential string) (string, *Student, error) {
	email, googleID, err := a.google.Verify(ctx, credential)
	if err != nil {
		return "", nil, ErrGoogleToken
	}

	p, err := a.dir.FindByEmail(ctx, core.CleanString(email, true /* lower */))
	if err != nil {
		if err == ErrNotFound {
			return "", nil, ErrNotRegistered
		}
		return "", nil, pkgerrors.Wrap(err, "finding principal by email")
	}
	st, ok := p.(*Student)
	if !ok || st.Role() != RoleStudent {
		return "", nil, ErrStudentsOnly
	}
	if !st.Active() {
		return "", nil, ErrAccountInactive
	}

	if st.GoogleID == "" {
		st.GoogleID = googleID
		if err = a.dir.Save(ctx, st); err != nil {
			return "", nil, pkgerrors.Wrap(err, "backfilling google ID")
		}
	}

	token, err := a.tokens.MakeSessionToken(st)
	if err != nil {
		return "", nil, pkgerrors.Wrap(err, "signing session token")
	}
	return token, st, nil
}
