package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/theater-booking/internal/model"
)

type errorResp struct {
	Error    string   `json:"error"`
	Message  string   `json:"message"`
	Field    string   `json:"field,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

var statusTable = []struct {
	err    error
	status int
	code   string
}{
	{model.ErrNotFound, http.StatusNotFound, "not_found"},
	{model.ErrForbidden, http.StatusForbidden, "forbidden"},
	{model.ErrValidation, http.StatusBadRequest, "validation_error"},
	{model.ErrDuplicateUsername, http.StatusConflict, "duplicate_username"},
	{model.ErrDuplicateRole, http.StatusConflict, "duplicate_role"},
	{model.ErrUnknownRole, http.StatusBadRequest, "unknown_role"},
	{model.ErrInvalidManager, http.StatusBadRequest, "invalid_manager"},
	{model.ErrInvalidCredentialFormat, http.StatusBadRequest, "invalid_credential_format"},
	{model.ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{model.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
}

// errorResponse translates err into a status code and body.  Unknown
// errors become a 500 without their text.
func errorResponse(err error) (int, errorResp) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg, ok := he.Message.(string)
		if !ok {
			msg = http.StatusText(he.Code)
		}
		return he.Code, errorResp{Error: codeFor(he.Code), Message: msg}
	}
	for _, row := range statusTable {
		if !errors.Is(err, row.err) {
			continue
		}
		resp := errorResp{Error: row.code, Message: err.Error()}
		var ve *model.ValidationError
		if errors.As(err, &ve) {
			resp.Field, resp.Message = ve.Field, ve.Message
		}
		var cf *model.CredentialFormatError
		if errors.As(err, &cf) {
			resp.Message, resp.Problems = "Invalid user name or password format.", cf.Problems
		}
		return row.status, resp
	}
	return http.StatusInternalServerError, errorResp{Error: "internal_error", Message: "internal server error"}
}

func codeFor(status int) string {
	switch status {
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusUnauthorized:
		return "unauthenticated"
	case http.StatusBadRequest:
		return "bad_request"
	}
	return "error"
}

// ErrorHandler is the echo.HTTPErrorHandler of the service: every error
// returned by handlers and middleware is written here.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("request failed")
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func badBody() error {
	return &model.ValidationError{Field: "body", Message: "Request body is not valid JSON."}
}
