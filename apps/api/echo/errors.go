package echoapi

import (
	"net/http"
	"sort"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/batch"
	"github.com/ssacademy/backoffice/core/fee"
	"github.com/ssacademy/backoffice/core/student"
	"github.com/ssacademy/backoffice/core/user"
)

var (
	errUnauthorized       = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAccountDeactivated = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired     = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden      = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound       = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// domain error -> status
var errorCodes = map[error]int{
	user.ErrAuthenticationFailed: http.StatusUnauthorized,
	user.ErrAccountDeactivated:   http.StatusForbidden,
	user.ErrNotFound:             http.StatusNotFound,
	student.ErrNotFound:          http.StatusNotFound,
	fee.ErrStudentNotFound:       http.StatusNotFound,
	batch.ErrNotFound:            http.StatusNotFound,
	batch.ErrStudentNotFound:     http.StatusNotFound,
	batch.ErrNotMember:           http.StatusNotFound,
	batch.ErrAlreadyMember:       http.StatusConflict,
	batch.ErrNameExists:          http.StatusConflict,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that renders every error in the
// {"success": false, "error": ..., "fields": ...} envelope.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string
		var fields map[string]string

		cause := errors.Cause(err)
		switch origErr := cause.(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = "missing or malformed jwt"
				break
			}
			if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
				origErr = herr
			}
			code = origErr.Code
			message = httpErrorMessage(origErr)
		case validator.ValidationErrors:
			fields = make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fields[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = joinFields(fields)
		case *core.ValidationError:
			if len(origErr.Fields) > 0 {
				fields = make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fields[fErr.Field] = fErr.Error
				}
			}
			code = http.StatusBadRequest
			message = origErr.Error()
		default:
			if c, ok := errorCodes[cause]; ok {
				code = c
				message = cause.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			message = http.StatusText(http.StatusInternalServerError)

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.UserID
				usr.Username = claims.Username
				usr.Role = claims.Role
			}
			logger.Error(message, errors.Wrap(err, message), usr)

			if ctx.Echo().Debug {
				message = err.Error()
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead { // Issue #608
			err = ctx.NoContent(code)
		} else {
			body := echo.Map{"success": false, "error": message}
			if fields != nil {
				body["fields"] = fields
			}
			err = ctx.JSON(code, body)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func httpErrorMessage(herr *echo.HTTPError) string {
	if m, ok := herr.Message.(string); ok {
		return m
	}
	return http.StatusText(herr.Code)
}

// joinFields renders field errors in a stable order.
func joinFields(fields map[string]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	msgs := make([]string, 0, len(names))
	for _, name := range names {
		msgs = append(msgs, fields[name])
	}
	return strings.Join(msgs, "; ")
}
