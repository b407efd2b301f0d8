// internal/handlers/gate.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/middleware"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

type GateHandler struct {
	authz  *services.AuthorizationService
	logger logrus.FieldLogger
}

func NewGateHandler(authz *services.AuthorizationService, logger logrus.FieldLogger) *GateHandler {
	return &GateHandler{authz: authz, logger: logger}
}

type RouteCheckRequest struct {
	Path string `json:"path" validate:"required,max=2048"`
}

// POST /gate/route
func (h *GateHandler) CheckRoute(c *gin.Context) {
	var req RouteCheckRequest
	if !bindJSON(c, &req) {
		return
	}

	decision := h.authz.DecidePath(middleware.SessionStateFromContext(c), req.Path)
	utils.SuccessResponse(c, decision)
}

var paymentGateMessages = map[services.PaymentGateOutcome]string{
	services.PaymentGatePending:         i18n.KeyPaymentVerificationPending,
	services.PaymentGateFailed:          i18n.KeyPaymentVerificationFailed,
	services.PaymentGatePaymentRequired: i18n.KeyPaymentRequired,
}

// GET /gate/payment/:type/:id
func (h *GateHandler) CheckPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	entityType, ok := parseEntityType(c)
	if !ok {
		return
	}
	entityID := c.Param("id")

	result := h.authz.EvaluatePayment(entityID, entityType, func(record models.PaymentVerification) {
		h.logger.WithFields(logrus.Fields{
			"entity_id":   record.EntityID,
			"entity_type": record.EntityType,
		}).Debug("Payment verified, content unlocked")
	})

	body := gin.H{"result": result}
	if key, ok := paymentGateMessages[result.Outcome]; ok {
		body["message"] = i18n.T(lang, key)
	}
	utils.SuccessResponse(c, body)
}
