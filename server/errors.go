package server

import (
	"net/http"

	errs "github.com/bookswapng/bookswap/errors"
	"github.com/bookswapng/bookswap/server/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	goerrors "errors"
)

// statusFromError maps the core error taxonomy to HTTP statuses. Validation
// and permission failures are surfaced immediately; stale-state and
// invalid-transition land on 409 so clients re-read before acting again.
func statusFromError(err error) int {
	var apiErr *errs.Error
	if goerrors.As(err, &apiErr) {
		return apiErr.Status
	}

	var (
		validationErr *errs.ValidationError
		tooLargeErr   *errs.AttachmentTooLargeError
		permErr       *errs.PermissionError
		transitionErr *errs.InvalidTransitionError
		staleErr      *errs.StaleStateError
		timeoutErr    *errs.TimeoutError
		transientErr  *errs.TransientStoreError
	)
	switch {
	case goerrors.As(err, &validationErr):
		return http.StatusBadRequest
	case goerrors.As(err, &tooLargeErr):
		return http.StatusRequestEntityTooLarge
	case goerrors.As(err, &permErr):
		return http.StatusForbidden
	case goerrors.As(err, &transitionErr):
		return http.StatusConflict
	case goerrors.As(err, &staleErr):
		return http.StatusConflict
	case goerrors.As(err, &timeoutErr):
		return http.StatusGatewayTimeout
	case goerrors.As(err, &transientErr):
		return http.StatusServiceUnavailable
	case goerrors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func respondErr(c *gin.Context, err error) {
	response.JSON(c, "", statusFromError(err), nil, err)
}

func respondAndAbort(c *gin.Context, message string, status int, data interface{}, err error) {
	response.JSON(c, message, status, data, err)
	c.Abort()
}
