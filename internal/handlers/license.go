// internal/handlers/license.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

type LicenseHandler struct {
	licenses *services.LicenseService
	api      APIProvider
}

func NewLicenseHandler(licenses *services.LicenseService, api APIProvider) *LicenseHandler {
	return &LicenseHandler{licenses: licenses, api: api}
}

// GET /tracks/:id/license-eligibility
func (h *LicenseHandler) GetEligibility(c *gin.Context) {
	user, _ := utils.GetUserFromContext(c)

	eligibility, err := h.licenses.Eligibility(c.Request.Context(), h.api(c), user, c.Param("id"))
	if err != nil {
		respondError(c, err, "track")
		return
	}
	utils.SuccessResponse(c, eligibility)
}

// POST /tracks/:id/licenses
func (h *LicenseHandler) SubmitRequest(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, _ := utils.GetUserFromContext(c)

	var req services.SubmitLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// Fields are trimmed and validated by the service.
	created, err := h.licenses.SubmitRequest(c.Request.Context(), h.api(c), user, c.Param("id"), &req)
	if err != nil {
		respondError(c, err, "track")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyLicenseRequested),
		"request": created,
	})
}
