// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Session
	KeyAuthRequired       = "auth.required"
	KeyAuthInvalidToken   = "auth.invalid_token"
	KeyAuthLoginSuccess   = "auth.login_success"
	KeyAuthLogoutSuccess  = "auth.logout_success"
	KeyAuthSessionExpired = "auth.session_expired"

	// Route gate
	KeyGateLoginRequired = "gate.login_required"
	KeyGateNotFound      = "gate.not_found"
	KeyGateAdminHome     = "gate.admin_home"
	KeyGatePending       = "gate.pending"
	KeyAdminAccessDenied = "admin.access_denied"

	// Payment gate
	KeyPaymentRequired             = "payment.required"
	KeyPaymentVerificationPending  = "payment.verification_pending"
	KeyPaymentVerificationFailed   = "payment.verification_failed"
	KeyPaymentRecorded             = "payment.recorded"
	KeyPaymentStatusUpdated        = "payment.status_updated"
	KeyPaymentInvalidTransition    = "payment.invalid_transition"
	KeyPaymentVerificationNotFound = "payment_verification.not_found"

	// Wallet
	KeyWalletUnavailable  = "wallet.unavailable"
	KeyWalletRejected     = "wallet.rejected"
	KeyWalletNotConnected = "wallet.not_connected"
	KeyWalletConnected    = "wallet.connected"

	// Publish
	KeyPublishInFlight          = "publish.in_flight"
	KeyPublishTrackNotApproved  = "publish.track_not_approved"
	KeyPublishTransferNotReady  = "publish.transfer_not_approved"
	KeyPublishForbidden         = "publish.forbidden"
	KeyPublishConfirmed         = "publish.confirmed"
	KeyPublishFailed            = "publish.failed"
	KeyPublishClosed            = "publish.closed"
	KeyPublishBackendSyncFailed = "publish.backend_sync_failed"

	// Licenses
	KeyLicenseSelfRequest   = "license.self_request"
	KeyLicenseAlreadyActive = "license.already_active"
	KeyLicenseRequested     = "license.requested"
	KeyLicenseNotPermitted  = "license.not_permitted"
	KeyLicenseNotPayable    = "license.not_payable"
	KeyTrackNotFound        = "track.not_found"
	KeyTransferNotFound     = "transfer.not_found"
	KeyChainRecordNotFound  = "chain_record.not_found"
	KeyUserNotFound         = "user.not_found"

	// Payments and admin
	KeyRateLimited          = "rate_limit.exceeded"
	KeyPaymentIntentCreated = "payment.intent_created"
	KeyPaymentConfirmed     = "payment.confirmed"
	KeyPaymentsDisabled     = "payment.disabled"
	KeyPaymentNotSucceeded  = "payment.not_succeeded"
	KeyPaymentSettled       = "payment.already_verified"
	KeyPaymentInvalidFee    = "payment.invalid_fee"
	KeyPaymentUnpaid        = "payment.unpaid"
	KeyUserStatusUpdated    = "admin.user_status_updated"
	KeyAdminSelfStatus      = "admin.self_status"
	KeyUpstreamError        = "upstream.error"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
