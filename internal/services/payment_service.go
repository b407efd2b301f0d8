// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/config"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

var (
	ErrPaymentsDisabled      = errors.New("payments are not configured")
	ErrInvalidFee            = errors.New("fee is not configured")
	ErrPaymentNotSucceeded   = errors.New("payment has not succeeded")
	ErrPaymentForbidden      = errors.New("payment belongs to another user")
	ErrPaymentUnknown        = errors.New("payment does not match a recorded entity")
	ErrPaymentSettled        = errors.New("payment is already verified")
	ErrPaymentAwaitingReview = errors.New("payment is awaiting verification")
	ErrPaymentRejected       = errors.New("payment was rejected")
	ErrLicenseNotPayable     = errors.New("license request is not awaiting payment")
)

// PaymentIntents is the Stripe payment intent API.
type PaymentIntents interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type stripeIntents struct{}

func (stripeIntents) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return paymentintent.New(params)
}

func (stripeIntents) Get(id string, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	return paymentintent.Get(id, params)
}

// SettingsSource provides the platform fee schedule.
type SettingsSource interface {
	GetSystemSettings(ctx context.Context) (*models.SystemSettings, error)
}

// LicenseSource loads a license request together with its agreed fee.
type LicenseSource interface {
	GetLicenseRequest(ctx context.Context, id string) (*models.LicenseRequest, error)
}

type PaymentIntentResponse struct {
	ClientSecret string                     `json:"clientSecret"`
	PaymentID    string                     `json:"paymentId"`
	Status       string                     `json:"status"`
	Amount       float64                    `json:"amount"`
	Currency     string                     `json:"currency"`
	Record       models.PaymentVerification `json:"record"`
}

type CreateLicensePaymentRequest struct {
	LicenseID string `json:"licenseId" validate:"required"`
}

type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

// PaymentService collects fees through Stripe and seeds the verification
// ledger. Paid records stay pending until a financial admin reviews them.
// mu serialises the read-check-write of ledger records done here.
type PaymentService struct {
	mu       sync.Mutex
	ledger   *PaymentLedger
	intents  PaymentIntents
	currency string
	audit    *AuditService
	logger   logrus.FieldLogger
}

func NewPaymentService(cfg config.PaymentConfig, ledger *PaymentLedger, audit *AuditService, logger logrus.FieldLogger) *PaymentService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	s := &PaymentService{
		ledger:   ledger,
		currency: cfg.Currency,
		audit:    audit,
		logger:   logger,
	}
	if s.currency == "" {
		s.currency = "usd"
	}
	if cfg.StripeSecretKey != "" {
		stripe.Key = cfg.StripeSecretKey
		s.intents = stripeIntents{}
	}
	return s
}

// WithIntents swaps the payment intent backend.
func (s *PaymentService) WithIntents(intents PaymentIntents) *PaymentService {
	s.intents = intents
	return s
}

func (s *PaymentService) CreateRegistrationPayment(ctx context.Context, settings SettingsSource, user *models.User, trackID string) (*PaymentIntentResponse, error) {
	if !HasPermission(user, PermUploadTracks) {
		return nil, ErrPaymentForbidden
	}
	fees, err := settings.GetSystemSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load system settings: %w", err)
	}
	if fees.CopyrightRegistrationFee <= 0 {
		return nil, ErrInvalidFee
	}
	return s.createIntent(ctx, user, models.EntityTypeTrack, trackID, fees.CopyrightRegistrationFee)
}

// CreateLicensePayment charges the fee recorded on an approved license
// request of the caller.
func (s *PaymentService) CreateLicensePayment(ctx context.Context, licenses LicenseSource, user *models.User, req *CreateLicensePaymentRequest) (*PaymentIntentResponse, error) {
	if !HasPermission(user, PermPayLicenses) {
		return nil, ErrPaymentForbidden
	}
	license, err := licenses.GetLicenseRequest(ctx, req.LicenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to load license request: %w", err)
	}
	if license.RequesterID != user.ID {
		return nil, ErrPaymentForbidden
	}
	if license.Status != models.LicenseStatusApproved {
		return nil, ErrLicenseNotPayable
	}
	if license.Fee <= 0 {
		return nil, ErrInvalidFee
	}
	return s.createIntent(ctx, user, models.EntityTypeLicense, req.LicenseID, license.Fee)
}

func (s *PaymentService) createIntent(ctx context.Context, user *models.User, entityType models.EntityType, entityID string, amount float64) (*PaymentIntentResponse, error) {
	if s.intents == nil {
		return nil, ErrPaymentsDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// only an absent or unpaid pending record may get a new intent
	if existing, ok := s.ledger.Get(entityID, entityType); ok {
		switch {
		case existing.Status == models.VerificationStatusVerified:
			return nil, ErrPaymentSettled
		case existing.Status == models.VerificationStatusRejected:
			return nil, ErrPaymentRejected
		case existing.Paid:
			return nil, ErrPaymentAwaitingReview
		}
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(math.Round(amount * 100))),
		Currency: stripe.String(s.currency),
	}
	params.AddMetadata("user_id", user.ID)
	params.AddMetadata("entity_id", entityID)
	params.AddMetadata("entity_type", string(entityType))

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	record := models.PaymentVerification{
		EntityID:      entityID,
		EntityType:    entityType,
		Paid:          false,
		Status:        models.VerificationStatusPending,
		Amount:        amount,
		TransactionID: pi.ID,
	}
	if err := s.ledger.Upsert(ctx, record); err != nil {
		return nil, err
	}
	record, _ = s.ledger.Get(entityID, entityType)

	return &PaymentIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
		Amount:       amount,
		Currency:     s.currency,
		Record:       record,
	}, nil
}

// ConfirmPayment marks the ledger record of a succeeded intent as paid.
func (s *PaymentService) ConfirmPayment(ctx context.Context, user *models.User, intentID string) (models.PaymentVerification, error) {
	if s.intents == nil {
		return models.PaymentVerification{}, ErrPaymentsDisabled
	}

	pi, err := s.intents.Get(intentID, nil)
	if err != nil {
		return models.PaymentVerification{}, fmt.Errorf("failed to get payment intent: %w", err)
	}
	if pi.Metadata["user_id"] != user.ID {
		return models.PaymentVerification{}, ErrPaymentForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entityType := models.EntityType(pi.Metadata["entity_type"])
	record, ok := s.ledger.Get(pi.Metadata["entity_id"], entityType)
	if !ok || record.TransactionID != pi.ID {
		return models.PaymentVerification{}, ErrPaymentUnknown
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return record, ErrPaymentNotSucceeded
	}

	if !record.Paid {
		record.Paid = true
		if err := s.ledger.Upsert(ctx, record); err != nil {
			return models.PaymentVerification{}, err
		}
		s.audit.Record(ctx, AuditEntry{
			User:         user,
			Action:       "payment.confirm",
			ResourceType: string(record.EntityType),
			ResourceID:   record.EntityID,
			Outcome:      "paid",
			Details:      models.JSONB{"payment_intent": pi.ID, "amount": record.Amount},
		})
		s.logger.WithFields(logrus.Fields{
			"entity_id":   record.EntityID,
			"entity_type": record.EntityType,
		}).Info("Payment confirmed, awaiting verification")
	}
	record, _ = s.ledger.Get(record.EntityID, record.EntityType)
	return record, nil
}
