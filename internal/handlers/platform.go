// internal/handlers/platform.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/i18n"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/services"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

// PlatformAPI is everything the handlers call on the platform REST API.
type PlatformAPI interface {
	services.LicenseAPI
	services.AdminAPI
	services.PublishBackend
	services.SettingsSource
	services.LicenseSource
}

// APIProvider returns the platform API bound to the caller's credential.
type APIProvider func(c *gin.Context) PlatformAPI

// SessionAPI binds base to the credential of the request's session.
func SessionAPI(base *services.APIClient, sessions *services.SessionService) APIProvider {
	return func(c *gin.Context) PlatformAPI {
		id, _ := utils.GetSessionIDFromContext(c)
		token, _ := sessions.Token(id)
		return base.WithToken(token)
	}
}

type errorMapping struct {
	err    error
	status int
	code   string
	key    string
}

var serviceErrors = []errorMapping{
	{services.ErrLicenseNotPermitted, http.StatusForbidden, "FORBIDDEN", i18n.KeyLicenseNotPermitted},
	{services.ErrSelfLicense, http.StatusConflict, "SELF_LICENSE", i18n.KeyLicenseSelfRequest},
	{services.ErrLicenseActive, http.StatusConflict, "LICENSE_ACTIVE", i18n.KeyLicenseAlreadyActive},
	{services.ErrWalletUnavailable, http.StatusServiceUnavailable, "WALLET_UNAVAILABLE", i18n.KeyWalletUnavailable},
	{services.ErrWalletRejected, http.StatusConflict, "WALLET_REJECTED", i18n.KeyWalletRejected},
	{services.ErrWalletNotConnected, http.StatusConflict, "WALLET_NOT_CONNECTED", i18n.KeyWalletNotConnected},
	{services.ErrPublishInFlight, http.StatusConflict, "PUBLISH_IN_FLIGHT", i18n.KeyPublishInFlight},
	{services.ErrPublishForbidden, http.StatusForbidden, "FORBIDDEN", i18n.KeyPublishForbidden},
	{services.ErrTrackNotApproved, http.StatusConflict, "TRACK_NOT_APPROVED", i18n.KeyPublishTrackNotApproved},
	{services.ErrTransferNotApproved, http.StatusConflict, "TRANSFER_NOT_APPROVED", i18n.KeyPublishTransferNotReady},
	{services.ErrPaymentsDisabled, http.StatusServiceUnavailable, "PAYMENTS_DISABLED", i18n.KeyPaymentsDisabled},
	{services.ErrInvalidFee, http.StatusServiceUnavailable, "INVALID_FEE", i18n.KeyPaymentInvalidFee},
	{services.ErrPaymentNotSucceeded, http.StatusPaymentRequired, "PAYMENT_INCOMPLETE", i18n.KeyPaymentNotSucceeded},
	{services.ErrPaymentSettled, http.StatusConflict, "PAYMENT_SETTLED", i18n.KeyPaymentSettled},
	{services.ErrPaymentAwaitingReview, http.StatusConflict, "PAYMENT_IN_REVIEW", i18n.KeyPaymentVerificationPending},
	{services.ErrPaymentRejected, http.StatusConflict, "PAYMENT_REJECTED", i18n.KeyPaymentVerificationFailed},
	{services.ErrLicenseNotPayable, http.StatusConflict, "LICENSE_NOT_PAYABLE", i18n.KeyLicenseNotPayable},
	{services.ErrPaymentForbidden, http.StatusForbidden, "FORBIDDEN", i18n.KeyAdminAccessDenied},
	{services.ErrPaymentUnknown, http.StatusNotFound, "NOT_FOUND", i18n.KeyPaymentVerificationNotFound},
	{services.ErrPaymentNotFound, http.StatusNotFound, "NOT_FOUND", i18n.KeyPaymentVerificationNotFound},
	{services.ErrPaymentUnpaid, http.StatusConflict, "PAYMENT_UNPAID", i18n.KeyPaymentUnpaid},
	{services.ErrInvalidStatusTransition, http.StatusConflict, "INVALID_TRANSITION", i18n.KeyPaymentInvalidTransition},
	{services.ErrInvalidPaymentRecord, http.StatusBadRequest, "BAD_REQUEST", i18n.KeyValidationInvalid},
	{services.ErrAdminForbidden, http.StatusForbidden, "FORBIDDEN", i18n.KeyAdminAccessDenied},
	{services.ErrSelfStatusChange, http.StatusConflict, "SELF_STATUS", i18n.KeyAdminSelfStatus},
	{services.ErrInvalidUserStatus, http.StatusBadRequest, "BAD_REQUEST", i18n.KeyValidationInvalid},
}

// respondError maps a service error onto an API response. notFound names
// the resource reported when the platform API answers 404.
func respondError(c *gin.Context, err error, notFound string) {
	lang := utils.GetLangFromContext(c)

	for _, m := range serviceErrors {
		if errors.Is(err, m.err) {
			message := i18n.T(lang, m.key)
			if m.key == i18n.KeyValidationInvalid {
				message = i18n.T(lang, m.key, "request")
			}
			utils.ErrorResponse(c, m.status, m.code, message, nil)
			return
		}
	}

	if validationErrors := utils.GetValidationErrors(err); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	var apiErr *services.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusNotFound && notFound != "" {
			utils.NotFoundResponse(c, notFound)
			return
		}
		utils.BadGatewayResponse(c, i18n.T(lang, i18n.KeyUpstreamError))
		return
	}

	c.Error(err)
	utils.InternalErrorResponse(c, "")
}

// bindJSON binds and validates a request body, writing the error response
// itself when it fails.
func bindJSON(c *gin.Context, req interface{}) bool {
	lang := utils.GetLangFromContext(c)
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return false
	}
	return true
}

func parseEntityType(c *gin.Context) (models.EntityType, bool) {
	t := models.EntityType(c.Param("type"))
	if !t.Valid() {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "type"), nil)
		return "", false
	}
	return t, true
}
