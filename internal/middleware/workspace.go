package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"student-dashboard/internal/session"
	"student-dashboard/internal/workspace"
)

const (
	ClientCookie = "sd_client"
	TokenCookie  = "sd_token"
)

const workspaceContextKey = "workspace"

type CookieConfig struct {
	Secure bool
	// TokenMaxAge is the lifetime of the token cookie in seconds.
	TokenMaxAge int
}

func WorkspaceFromContext(c *gin.Context) (*workspace.Workspace, bool) {
	value, ok := c.Get(workspaceContextKey)
	if !ok {
		return nil, false
	}
	ws, ok := value.(*workspace.Workspace)
	return ws, ok && ws != nil
}

// LoadWorkspace attaches the caller's workspace to the request, opening a
// new one from the token cookie when the client cookie is missing or stale.
// A fresh workspace gets up to resolveWait to resolve its session.
func LoadWorkspace(reg *workspace.Registry, cookies CookieConfig, resolveWait time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID, _ := c.Cookie(ClientCookie)
		ws, ok := reg.Get(clientID)
		if !ok {
			token, _ := c.Cookie(TokenCookie)
			ws = reg.Open(token)
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ClientCookie, ws.ID, 0, "/", "", cookies.Secure, true)
		}

		if ws.Session.State() == session.StateResolving && resolveWait > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), resolveWait)
			_ = ws.Session.WaitResolved(ctx)
			cancel()
		}

		c.Set(workspaceContextKey, ws)
		c.Next()
	}
}

// SetTokenCookie persists token in the browser, or clears the cookie when
// token is empty.
func SetTokenCookie(c *gin.Context, cookies CookieConfig, token string) {
	c.SetSameSite(http.SameSiteLaxMode)
	if token == "" {
		c.SetCookie(TokenCookie, "", -1, "/", "", cookies.Secure, true)
		return
	}
	c.SetCookie(TokenCookie, token, cookies.TokenMaxAge, "/", "", cookies.Secure, true)
}

// RequireAuthenticated gates JSON endpoints on the workspace session.
func RequireAuthenticated() gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, ok := WorkspaceFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing workspace"})
			c.Abort()
			return
		}

		switch ws.Session.State() {
		case session.StateResolving:
			c.JSON(http.StatusServiceUnavailable, gin.H{"state": session.StateResolving.String()})
			c.Abort()
			return
		case session.StateUnauthenticated:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
			c.Abort()
			return
		}
		c.Next()
	}
}
