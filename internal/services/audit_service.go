// internal/services/audit_service.go
package services

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

type AuditEntry struct {
	User         *models.User
	Action       string
	ResourceType string
	ResourceID   string
	Outcome      string
	Details      models.JSONB
	IPAddress    string
	UserAgent    string
}

type AuditFilter struct {
	UserID       string
	Action       string
	ResourceType string
	Outcome      string
}

// AuditService writes audit rows when a database is configured and logs
// them otherwise. A nil *AuditService drops entries.
type AuditService struct {
	db     *gorm.DB
	logger logrus.FieldLogger
}

func NewAuditService(db *gorm.DB, logger logrus.FieldLogger) *AuditService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &AuditService{db: db, logger: logger}
}

func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil {
		return
	}

	log := &models.AuditLog{
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Outcome:      entry.Outcome,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		UserAgent:    entry.UserAgent,
	}
	if entry.User != nil {
		log.UserID = entry.User.ID
		log.Roles = pq.StringArray{string(entry.User.Role)}
		if entry.User.AdminType != "" {
			log.Roles = append(log.Roles, string(entry.User.AdminType))
		}
	}

	fields := logrus.Fields{
		"user_id":       log.UserID,
		"action":        log.Action,
		"resource_type": log.ResourceType,
		"resource_id":   log.ResourceID,
		"outcome":       log.Outcome,
	}
	if s.db == nil {
		s.logger.WithFields(fields).Info("Audit")
		return
	}
	if err := s.db.WithContext(ctx).Create(log).Error; err != nil {
		s.logger.WithError(err).WithFields(fields).Error("Failed to write audit log")
	}
}

func (s *AuditService) List(ctx context.Context, filter AuditFilter, params utils.PaginationParams) ([]models.AuditLog, int64, error) {
	if s == nil || s.db == nil {
		return []models.AuditLog{}, 0, nil
	}

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.Outcome != "" {
		query = query.Where("outcome = ?", filter.Outcome)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	if params.Page < 1 {
		params.Page = 1
	}
	if params.Limit < 1 {
		params.Limit = 20
	}

	var logs []models.AuditLog
	offset := (params.Page - 1) * params.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(params.Limit).Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, total, nil
}
