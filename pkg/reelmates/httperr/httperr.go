// Package httperr translates service error kinds into HTTP responses at the
// transport edge. The services themselves never see status codes.
package httperr

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/reelmates/reelmates/pkg/reelmates/faults"
)

// Status returns the HTTP status code for a service error.
func Status(err error) int {
	switch faults.KindOf(err) {
	case faults.KindValidation:
		return http.StatusBadRequest
	case faults.KindNotFound:
		return http.StatusNotFound
	case faults.KindForbidden:
		return http.StatusForbidden
	case faults.KindConflict:
		return http.StatusConflict
	case faults.KindLimitExceeded:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// Respond writes the error as a JSON body with the mapped status code.
// Unclassified errors are masked to avoid leaking internals.
func Respond(c *gin.Context, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.JSON(status, gin.H{"error": msg})
}
