// internal/middleware/gate.go
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

// WriteRouteDecision renders a non-allow gate decision.
func WriteRouteDecision(c *gin.Context, decision services.RouteDecision) {
	lang := utils.GetLangFromContext(c)

	switch decision.Outcome {
	case services.RoutePending:
		utils.ErrorResponse(c, http.StatusAccepted, "PENDING", i18n.T(lang, i18n.KeyGatePending), nil)
	case services.RouteRedirectLogin:
		utils.RedirectResponse(c, http.StatusUnauthorized, "LOGIN_REQUIRED", i18n.T(lang, i18n.KeyGateLoginRequired), decision.Target)
	case services.RouteRedirectAdminHome:
		utils.RedirectResponse(c, http.StatusForbidden, "FORBIDDEN", i18n.T(lang, i18n.KeyGateAdminHome), decision.Target)
	default:
		utils.RedirectResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(lang, i18n.KeyGateNotFound), decision.Target)
	}
}

// RouteGate protects a group of endpoints with the same rule the front end
// applies to its pages.
func RouteGate(authz *services.AuthorizationService, rule services.RouteRule) gin.HandlerFunc {
	return func(c *gin.Context) {
		decision := authz.Decide(SessionStateFromContext(c), rule)
		if decision.Outcome == services.RouteAllow {
			c.Next()
			return
		}
		WriteRouteDecision(c, decision)
		c.Abort()
	}
}

// RequirePermission rejects users lacking a single permission.
func RequirePermission(permission services.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := utils.GetUserFromContext(c)
		if !ok {
			utils.UnauthorizedResponse(c, "")
			c.Abort()
			return
		}
		if !services.HasPermission(user, permission) {
			utils.ForbiddenResponse(c, "")
			c.Abort()
			return
		}
		c.Next()
	}
}
