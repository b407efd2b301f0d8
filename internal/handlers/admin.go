// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

type AdminHandler struct {
	admin *services.AdminService
	api   APIProvider
}

func NewAdminHandler(admin *services.AdminService, api APIProvider) *AdminHandler {
	return &AdminHandler{admin: admin, api: api}
}

// PATCH /admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, _ := utils.GetUserFromContext(c)

	var req services.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.admin.UpdateUserStatus(c.Request.Context(), h.api(c), user, c.Param("id"), &req); err != nil {
		respondError(c, err, "user")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyUserStatusUpdated),
	})
}

// GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	user, _ := utils.GetUserFromContext(c)

	settings, err := h.admin.GetSettings(c.Request.Context(), h.api(c), user)
	if err != nil {
		respondError(c, err, "")
		return
	}
	utils.SuccessResponse(c, settings)
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	user, _ := utils.GetUserFromContext(c)
	params := utils.GetPaginationParams(c)

	filter := services.AuditFilter{
		UserID:       c.Query("user_id"),
		Action:       c.Query("action"),
		ResourceType: c.Query("resource_type"),
		Outcome:      c.Query("outcome"),
	}

	logs, total, err := h.admin.ListAuditLogs(c.Request.Context(), user, filter, params)
	if err != nil {
		respondError(c, err, "")
		return
	}

	result := utils.CreatePaginationResult(logs, total, params)
	utils.PaginatedResponse(c, result)
}
