package echoapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ryitech/institute/core/principal"
)

const (
	sessionCookieName = "authToken"

	claimsContextKey    = "claims"
	principalContextKey = "principal"
)

func setSessionCookie(ctx echo.Context, token string, delta time.Duration) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(delta.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func clearSessionCookie(ctx echo.Context) {
	ctx.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// tokenFromRequest looks for the session token in the auth cookie first,
// then in the Authorization header.
func tokenFromRequest(ctx echo.Context) string {
	if cookie, err := ctx.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := ctx.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// authnMiddleware authenticates the request and loads the acting principal
// into the context. The principal is re-fetched on every request so that
// deactivated or deleted accounts lose access immediately.
func authnMiddleware(tokens *principal.TokenManager, svc *principal.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := tokens.VerifySessionToken(tokenFromRequest(ctx))
			if err != nil {
				return err
			}
			p, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
			if err != nil {
				if err == principal.ErrNotFound {
					return principal.ErrInvalidToken
				}
				return err
			}
			if !p.Active() {
				return principal.ErrAccountInactive
			}
			ctx.Set(claimsContextKey, claims)
			ctx.Set(principalContextKey, p)
			return next(ctx)
		}
	}
}

func getContextClaims(ctx echo.Context) *principal.Claims {
	claims, _ := ctx.Get(claimsContextKey).(*principal.Claims)
	return claims
}

func getContextPrincipal(ctx echo.Context) principal.Principal {
	p, _ := ctx.Get(principalContextKey).(principal.Principal)
	return p
}
