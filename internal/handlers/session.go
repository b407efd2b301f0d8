// internal/handlers/session.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/middleware"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

const sessionCookieMaxAge = 7 * 24 * 60 * 60

type SessionHandler struct {
	sessions     *services.SessionService
	authz        *services.AuthorizationService
	publish      *services.PublishService
	secureCookie bool
}

func NewSessionHandler(sessions *services.SessionService, authz *services.AuthorizationService, publish *services.PublishService, secureCookie bool) *SessionHandler {
	return &SessionHandler{
		sessions:     sessions,
		authz:        authz,
		publish:      publish,
		secureCookie: secureCookie,
	}
}

type LoginRequest struct {
	Token   string                  `json:"token" validate:"required"`
	Profile *services.CachedProfile `json:"user,omitempty"`
}

type SessionView struct {
	SessionID   string                `json:"sessionId,omitempty"`
	User        *models.User          `json:"user"`
	Permissions []services.Permission `json:"permissions"`
	AdminHome   string                `json:"adminHome,omitempty"`
}

func (h *SessionHandler) view(id string, user *models.User) SessionView {
	return SessionView{
		SessionID:   id,
		User:        user,
		Permissions: services.PermissionsFor(user),
		AdminHome:   h.authz.AdminHome(user),
	}
}

// POST /session/login
func (h *SessionHandler) Login(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := h.sessions.Login(c.Request.Context(), req.Token, req.Profile)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, session.ID, sessionCookieMaxAge, "/", "", h.secureCookie, true)

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthLoginSuccess),
		"session": h.view(session.ID, session.User),
	})
}

// POST /session/logout
func (h *SessionHandler) Logout(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	id := middleware.SessionIDFromRequest(c)
	if id != "" {
		h.sessions.Logout(c.Request.Context(), id)
		h.publish.Drop(id)
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAuthLogoutSuccess),
	})
}

// GET /session
func (h *SessionHandler) Me(c *gin.Context) {
	user, ok := utils.GetUserFromContext(c)
	if !ok {
		utils.UnauthorizedResponse(c, "")
		return
	}
	id, _ := utils.GetSessionIDFromContext(c)
	utils.SuccessResponse(c, h.view(id, user))
}
