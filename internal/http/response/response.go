package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/menttor/menttor-backend/internal/data/repos"
	"github.com/menttor/menttor-backend/internal/platform/apierr"
	"github.com/menttor/menttor-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// StatusFor maps the domain sentinels onto HTTP statuses; anything untagged
// is an internal error.
func StatusFor(err error) int {
	var ae *apierr.Error
	if errors.As(err, &ae) && ae.Status != 0 {
		return ae.Status
	}
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, repos.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repos.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, repos.ErrPrecondition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repos.ErrRetryable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondServiceError is RespondError with the status derived from the
// error's sentinel tag.
func RespondServiceError(c *gin.Context, code string, err error) {
	RespondError(c, StatusFor(err), code, err)
}
