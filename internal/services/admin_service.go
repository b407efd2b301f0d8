// internal/services/admin_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

var (
	ErrAdminForbidden    = errors.New("admin permission required")
	ErrInvalidUserStatus = errors.New("invalid user status")
	ErrSelfStatusChange  = errors.New("cannot change your own status")
	ErrPaymentNotFound   = errors.New("payment verification not found")
	ErrPaymentUnpaid     = errors.New("payment has not been received")
)

// AdminAPI is the part of the platform API the admin console needs.
type AdminAPI interface {
	UpdateUserStatus(ctx context.Context, userID string, status models.UserStatus) error
	GetSystemSettings(ctx context.Context) (*models.SystemSettings, error)
}

type UpdateUserStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=active suspended banned"`
	Reason string            `json:"reason" validate:"max=500"`
}

type ReviewPaymentRequest struct {
	Status models.VerificationStatus `json:"status" validate:"required,oneof=verified rejected"`
	Note   string                    `json:"note" validate:"max=500"`
}

type RecordPaymentRequest struct {
	EntityID      string                    `json:"entityId" validate:"required,max=128"`
	EntityType    models.EntityType         `json:"entityType" validate:"required,entity_type"`
	Paid          bool                      `json:"paid"`
	Status        models.VerificationStatus `json:"verificationStatus" validate:"omitempty,verification_status"`
	Amount        float64                   `json:"amount" validate:"gte=0"`
	TransactionID string                    `json:"transactionId" validate:"max=128"`
}

// AdminService runs the admin console actions. Each action checks the
// caller's permission and leaves an audit entry.
type AdminService struct {
	ledger *PaymentLedger
	audit  *AuditService
	logger logrus.FieldLogger
}

func NewAdminService(ledger *PaymentLedger, audit *AuditService, logger logrus.FieldLogger) *AdminService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AdminService{ledger: ledger, audit: audit, logger: logger}
}

func (s *AdminService) UpdateUserStatus(ctx context.Context, api AdminAPI, admin *models.User, userID string, req *UpdateUserStatusRequest) error {
	if !HasPermission(admin, PermManageUsers) {
		return ErrAdminForbidden
	}
	switch req.Status {
	case models.UserStatusActive, models.UserStatusSuspended, models.UserStatusBanned:
	default:
		return ErrInvalidUserStatus
	}
	if userID == admin.ID {
		return ErrSelfStatusChange
	}

	if err := api.UpdateUserStatus(ctx, userID, req.Status); err != nil {
		s.audit.Record(ctx, AuditEntry{
			User:         admin,
			Action:       "user.status",
			ResourceType: "user",
			ResourceID:   userID,
			Outcome:      "failed",
			Details:      models.JSONB{"status": req.Status, "error": err.Error()},
		})
		return err
	}

	s.audit.Record(ctx, AuditEntry{
		User:         admin,
		Action:       "user.status",
		ResourceType: "user",
		ResourceID:   userID,
		Outcome:      "updated",
		Details:      models.JSONB{"status": req.Status, "reason": req.Reason},
	})
	s.logger.WithFields(logrus.Fields{
		"admin_id": admin.ID,
		"user_id":  userID,
		"status":   req.Status,
	}).Info("User status updated")
	return nil
}

// RecordPayment writes a payment record by hand. It never changes the
// verification status: new records start pending and existing records keep
// theirs, so verification only happens through ReviewPayment. A verified
// record cannot be marked unpaid.
func (s *AdminService) RecordPayment(ctx context.Context, admin *models.User, req *RecordPaymentRequest) (models.PaymentVerification, error) {
	if !HasPermission(admin, PermVerifyPayments) {
		return models.PaymentVerification{}, ErrAdminForbidden
	}

	status := models.VerificationStatusPending
	if existing, ok := s.ledger.Get(req.EntityID, req.EntityType); ok {
		status = existing.Status
	}
	if req.Status != "" && req.Status != status {
		return models.PaymentVerification{}, ErrInvalidStatusTransition
	}
	if status == models.VerificationStatusVerified && !req.Paid {
		return models.PaymentVerification{}, ErrPaymentUnpaid
	}

	err := s.ledger.Upsert(ctx, models.PaymentVerification{
		EntityID:      req.EntityID,
		EntityType:    req.EntityType,
		Paid:          req.Paid,
		Status:        status,
		Amount:        req.Amount,
		TransactionID: req.TransactionID,
	})
	if err != nil {
		return models.PaymentVerification{}, err
	}
	record, _ := s.ledger.Get(req.EntityID, req.EntityType)

	s.audit.Record(ctx, AuditEntry{
		User:         admin,
		Action:       "payment.record",
		ResourceType: string(req.EntityType),
		ResourceID:   req.EntityID,
		Outcome:      string(record.Status),
		Details:      models.JSONB{"paid": record.Paid, "amount": record.Amount},
	})
	return record, nil
}

// ReviewPayment records a financial admin's decision on a paid entity.
func (s *AdminService) ReviewPayment(ctx context.Context, admin *models.User, entityID string, entityType models.EntityType, req *ReviewPaymentRequest) (models.PaymentVerification, error) {
	if !HasPermission(admin, PermVerifyPayments) {
		return models.PaymentVerification{}, ErrAdminForbidden
	}

	record, ok := s.ledger.Get(entityID, entityType)
	if !ok {
		return models.PaymentVerification{}, ErrPaymentNotFound
	}
	if req.Status == models.VerificationStatusVerified && !record.Paid {
		return record, ErrPaymentUnpaid
	}

	if _, err := s.ledger.SetStatus(ctx, entityID, entityType, req.Status); err != nil {
		return record, err
	}
	record, _ = s.ledger.Get(entityID, entityType)

	s.audit.Record(ctx, AuditEntry{
		User:         admin,
		Action:       "payment.review",
		ResourceType: string(entityType),
		ResourceID:   entityID,
		Outcome:      string(req.Status),
		Details:      models.JSONB{"note": req.Note, "amount": record.Amount},
	})
	return record, nil
}

func (s *AdminService) GetSettings(ctx context.Context, api AdminAPI, admin *models.User) (*models.SystemSettings, error) {
	if !HasPermission(admin, PermManageSystemSettings) && !HasPermission(admin, PermManageFees) {
		return nil, ErrAdminForbidden
	}
	settings, err := api.GetSystemSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load system settings: %w", err)
	}
	return settings, nil
}

func (s *AdminService) ListAuditLogs(ctx context.Context, admin *models.User, filter AuditFilter, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	if !HasPermission(admin, PermViewAuditLogs) {
		return nil, 0, ErrAdminForbidden
	}
	return s.audit.List(ctx, filter, params)
}
