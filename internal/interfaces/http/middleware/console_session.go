package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/finsite/backend/internal/application/console"
	"github.com/finsite/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// Console session context keys
const (
	ConsoleKey        = "console"
	ConsoleSessionKey = "console_session"
	AuthHeaderKey     = "Authorization"
	BearerPrefix      = "Bearer "
)

// ConsoleSessions resolves bearer session IDs to running consoles
type ConsoleSessions interface {
	Console(sessionID string) (*console.Console, console.Session, error)
	Resume(ctx context.Context, sessionID string) (console.Session, error)
}

// BearerToken returns the bearer value of the Authorization header
func BearerToken(c *gin.Context) string {
	header := c.GetHeader(AuthHeaderKey)
	if !strings.HasPrefix(header, BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
}

// AdminSession requires an authenticated console session. A session
// unknown to this process is resumed from its persisted token first, so
// a browser reload or a restart keeps the admin signed in.
func AdminSession(sessions ConsoleSessions) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := BearerToken(c)
		if sessionID == "" {
			abortSession(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Please sign in to continue")
			return
		}

		cons, sess, err := sessions.Console(sessionID)
		if errors.Is(err, console.ErrSessionNotFound) {
			if _, err = sessions.Resume(c.Request.Context(), sessionID); err == nil {
				cons, sess, err = sessions.Console(sessionID)
			}
		}
		if err != nil {
			switch {
			case errors.Is(err, console.ErrSessionExpired):
				abortSession(c, http.StatusUnauthorized, dto.ErrCodeTokenExpired, console.ErrSessionExpired.Message)
			case errors.Is(err, console.ErrManagerClosed):
				abortSession(c, http.StatusServiceUnavailable, dto.ErrCodeUnavailable, console.ErrManagerClosed.Message)
			default:
				abortSession(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Please sign in to continue")
			}
			return
		}

		c.Set(ConsoleKey, cons)
		c.Set(ConsoleSessionKey, sess)
		c.Next()
	}
}

func abortSession(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// ConsoleFrom returns the console set by AdminSession
func ConsoleFrom(c *gin.Context) (*console.Console, bool) {
	v, ok := c.Get(ConsoleKey)
	if !ok {
		return nil, false
	}
	cons, ok := v.(*console.Console)
	return cons, ok && cons != nil
}

// ConsoleSessionFrom returns the session record set by AdminSession
func ConsoleSessionFrom(c *gin.Context) (console.Session, bool) {
	v, ok := c.Get(ConsoleSessionKey)
	if !ok {
		return console.Session{}, false
	}
	sess, ok := v.(console.Session)
	return sess, ok
}
