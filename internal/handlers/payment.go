// internal/handlers/payment.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

type PaymentHandler struct {
	ledger   *services.PaymentLedger
	payments *services.PaymentService
	admin    *services.AdminService
	api      APIProvider
}

func NewPaymentHandler(ledger *services.PaymentLedger, payments *services.PaymentService, admin *services.AdminService, api APIProvider) *PaymentHandler {
	return &PaymentHandler{
		ledger:   ledger,
		payments: payments,
		admin:    admin,
		api:      api,
	}
}

type RegistrationPaymentRequest struct {
	TrackID string `json:"trackId" validate:"required"`
}

// GET /payments/verifications
func (h *PaymentHandler) ListVerifications(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	params := utils.GetPaginationParams(c)

	status := models.VerificationStatus(c.Query("status"))
	entityType := models.EntityType(c.Query("type"))
	if (status != "" && !status.Valid()) || (entityType != "" && !entityType.Valid()) {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "filter"), nil)
		return
	}

	records := h.ledger.List()
	filtered := make([]models.PaymentVerification, 0, len(records))
	for _, r := range records {
		if status != "" && r.Status != status {
			continue
		}
		if entityType != "" && r.EntityType != entityType {
			continue
		}
		filtered = append(filtered, r)
	}

	start, end := utils.PageBounds(len(filtered), params)
	result := utils.CreatePaginationResult(filtered[start:end], int64(len(filtered)), params)
	utils.PaginatedResponse(c, result)
}

// GET /payments/verifications/:type/:id
func (h *PaymentHandler) GetVerification(c *gin.Context) {
	entityType, ok := parseEntityType(c)
	if !ok {
		return
	}

	record, found := h.ledger.Get(c.Param("id"), entityType)
	if !found {
		utils.NotFoundResponse(c, "payment_verification")
		return
	}
	utils.SuccessResponse(c, record)
}

// PUT /payments/verifications
func (h *PaymentHandler) RecordPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, _ := utils.GetUserFromContext(c)

	var req services.RecordPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.admin.RecordPayment(c.Request.Context(), user, &req)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentRecorded),
		"record":  record,
	})
}

// PATCH /payments/verifications/:type/:id/status
func (h *PaymentHandler) ReviewPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, _ := utils.GetUserFromContext(c)

	entityType, ok := parseEntityType(c)
	if !ok {
		return
	}

	var req services.ReviewPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.admin.ReviewPayment(c.Request.Context(), user, c.Param("id"), entityType, &req)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentStatusUpdated),
		"record":  record,
	})
}

// POST /payments/registration
func (h *PaymentHandler) CreateRegistrationPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, _ := utils.GetUserFromContext(c)

	var req RegistrationPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.payments.CreateRegistrationPayment(c.Request.Context(), h.api(c), user, req.TrackID)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentIntentCreated),
		"payment": response,
	})
}

// POST /payments/license
func (h *PaymentHandler) CreateLicensePayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, _ := utils.GetUserFromContext(c)

	var req services.CreateLicensePaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	response, err := h.payments.CreateLicensePayment(c.Request.Context(), h.api(c), user, &req)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentIntentCreated),
		"payment": response,
	})
}

// POST /payments/confirm
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	user, _ := utils.GetUserFromContext(c)

	var req services.ConfirmPaymentRequest
	if !bindJSON(c, &req) {
		return
	}

	record, err := h.payments.ConfirmPayment(c.Request.Context(), user, req.PaymentIntentID)
	if err != nil {
		respondError(c, err, "")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyPaymentConfirmed),
		"record":  record,
	})
}
