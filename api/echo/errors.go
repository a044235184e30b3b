package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ryitech/institute/core"
	"github.com/ryitech/institute/core/catalog"
	"github.com/ryitech/institute/core/principal"
)

// sentinel errors from the principal package mapped to HTTP status codes.
var sentinelStatus = map[error]int{
	principal.ErrInvalidCredentials: http.StatusUnauthorized,
	principal.ErrInvalidEmail:       http.StatusUnauthorized,
	principal.ErrGoogleToken:        http.StatusUnauthorized,
	principal.ErrNotRegistered:      http.StatusUnauthorized,
	principal.ErrNoToken:            http.StatusUnauthorized,
	principal.ErrInvalidToken:       http.StatusUnauthorized,
	principal.ErrTokenExpired:       http.StatusUnauthorized,
	principal.ErrAccountInactive:    http.StatusForbidden,
	principal.ErrStudentsOnly:       http.StatusForbidden,
	principal.ErrWeakPassword:       http.StatusBadRequest,
	principal.ErrOTPExpired:         http.StatusBadRequest,
	principal.ErrOTPMismatch:        http.StatusBadRequest,
	principal.ErrOTPStillValid:      http.StatusBadRequest,
	principal.ErrAlreadyVerified:    http.StatusBadRequest,
}

func newAppHTTPErrorHandler(logger core.Logger, trans ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		if ctx.Response().Committed {
			return
		}

		var res error
		switch err := errors.Cause(err).(type) {
		case *echo.HTTPError:
			res = sendError(ctx, err.Code, err.Message)
		case validator.ValidationErrors:
			flds := make(echo.Map, len(err))
			for _, fe := range err {
				flds[fe.Field()] = fe.Translate(trans)
			}
			res = sendError(ctx, http.StatusBadRequest, flds)
		case *core.ValidationError:
			flds := make(echo.Map, len(err.Fields))
			for _, fe := range err.Fields {
				flds[fe.Field] = fe.Error
			}
			if len(flds) == 0 {
				res = sendError(ctx, http.StatusBadRequest, err.Error())
			} else {
				res = sendError(ctx, http.StatusBadRequest, flds)
			}
		case *core.ConflictError:
			res = sendError(ctx, http.StatusConflict, err.Error())
		case *core.AuthError:
			code := http.StatusUnauthorized
			if err.Forbidden {
				code = http.StatusForbidden
			}
			res = sendError(ctx, code, err.Error())
		case *core.RateLimitedError:
			res = sendError(ctx, http.StatusTooManyRequests, err.Error())
		case *core.NotFoundError:
			res = sendError(ctx, http.StatusNotFound, err.Error())
		default:
			if code, ok := sentinelStatus[errors.Cause(err)]; ok {
				res = sendError(ctx, code, err.Error())
				break
			}
			switch errors.Cause(err) {
			case principal.ErrNotFound, catalog.ErrNotFound:
				res = sendError(ctx, http.StatusNotFound, err.Error())
			default:
				args := make([]interface{}, 0, 1)
				if p := getContextPrincipal(ctx); p != nil {
					args = append(args, principal.Summarize(p))
				}
				logger.Error(err.Error(), args...)
				res = sendError(ctx, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if res != nil {
			ctx.Echo().Logger.Error(res)
		}
	}
}

func sendError(ctx echo.Context, code int, message interface{}) error {
	if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}
	if ctx.Request().Method == http.MethodHead {
		return ctx.NoContent(code)
	}
	return ctx.JSON(code, message)
}
