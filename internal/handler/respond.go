package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"student-dashboard/internal/identity"
	"student-dashboard/internal/middleware"
	"student-dashboard/internal/records"
	"student-dashboard/internal/session"
	"student-dashboard/internal/store"
	"student-dashboard/internal/workspace"
)

const msgStudentNotFound = "Student not found"

// statusFor maps a domain error onto an HTTP status.
func statusFor(err error) int {
	var verr *records.ValidationError
	var ierr *identity.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &ierr):
		if ierr.Code == identity.CodeInternal {
			return http.StatusInternalServerError
		}
		return http.StatusUnauthorized
	case errors.Is(err, workspace.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, store.ErrNotFound), errors.Is(err, records.ErrUnknownRecord):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// messageFor is the user-facing text for err; fallback covers store and
// transport failures.
func messageFor(err error, fallback string) string {
	var verr *records.ValidationError
	var ierr *identity.Error
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.As(err, &ierr):
		return session.LoginFailureMessage(err)
	case errors.Is(err, workspace.ErrNotAuthenticated):
		return "Not authenticated"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, records.ErrUnknownRecord):
		return msgStudentNotFound
	default:
		return fallback
	}
}

func respondError(c *gin.Context, err error, fallback string) {
	c.JSON(statusFor(err), gin.H{"error": messageFor(err, fallback)})
}

func mustWorkspace(c *gin.Context) (*workspace.Workspace, bool) {
	ws, ok := middleware.WorkspaceFromContext(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing workspace"})
		c.Abort()
	}
	return ws, ok
}
