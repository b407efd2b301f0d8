// internal/middleware/session.go
package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

const (
	SessionHeader = "X-Session-ID"
	SessionCookie = "session_id"
)

// SessionIDFromRequest reads the session id from the header, falling back
// to the cookie.
func SessionIDFromRequest(c *gin.Context) string {
	if id := c.GetHeader(SessionHeader); id != "" {
		return id
	}
	if id, err := c.Cookie(SessionCookie); err == nil {
		return id
	}
	return ""
}

// Session resolves the caller's session and stores the user, session id
// and loading flag in the context. Anonymous requests pass through.
func Session(sessions *services.SessionService, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := SessionIDFromRequest(c)
		if id == "" {
			c.Next()
			return
		}

		state, err := sessions.Resolve(c.Request.Context(), id)
		if err != nil && !errors.Is(err, services.ErrSessionInvalid) {
			log.WithError(err).WithField("session_id", id).Error("Failed to resolve session")
		}

		c.Set("session_loading", state.Loading)
		if state.User != nil {
			c.Set("session_id", id)
			c.Set("user", state.User)
		}
		c.Next()
	}
}

// SessionStateFromContext rebuilds the gate input from the request context.
func SessionStateFromContext(c *gin.Context) services.SessionState {
	user, _ := utils.GetUserFromContext(c)
	return services.SessionState{Loading: c.GetBool("session_loading"), User: user}
}

// RequireSession rejects requests without an authenticated user.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)
		state := SessionStateFromContext(c)

		if state.Loading {
			utils.ErrorResponse(c, http.StatusAccepted, "PENDING", i18n.T(lang, i18n.KeyGatePending), nil)
			c.Abort()
			return
		}
		if state.User == nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}
		c.Next()
	}
}
