// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

var (
	ErrSelfLicense         = errors.New("cannot request a license for your own track")
	ErrLicenseActive       = errors.New("an active license request already exists for this track")
	ErrLicenseNotPermitted = errors.New("user may not request licenses")
)

// LicenseAPI is the part of the platform API the license flow needs.
type LicenseAPI interface {
	GetTrack(ctx context.Context, id string) (*models.Track, error)
	ListLicenseRequests(ctx context.Context, trackID, requesterID string) ([]models.LicenseRequest, error)
	CreateLicenseRequest(ctx context.Context, req models.LicenseRequest) (*models.LicenseRequest, error)
}

type SubmitLicenseRequest struct {
	Purpose   string `json:"purpose" validate:"required,max=500"`
	Usage     string `json:"usage" validate:"required,max=2000"`
	Duration  string `json:"duration" validate:"required,max=100"`
	Territory string `json:"territory" validate:"required,max=100"`
}

type EligibilityReason string

const (
	EligibilityOK          EligibilityReason = ""
	EligibilitySelfRequest EligibilityReason = "self_request"
	EligibilityActive      EligibilityReason = "already_active"
)

type Eligibility struct {
	Eligible bool                   `json:"eligible"`
	Reason   EligibilityReason      `json:"reason,omitempty"`
	Active   *models.LicenseRequest `json:"activeRequest,omitempty"`
}

func liveLicenseStatus(status models.LicenseStatus) bool {
	switch status {
	case models.LicenseStatusPending, models.LicenseStatusApproved, models.LicenseStatusPaid, models.LicenseStatusPublished:
		return true
	}
	return false
}

// CheckEligibility explains the CanRequest verdict. Requests without a
// requester id are taken to belong to requesterID.
func CheckEligibility(track *models.Track, requesterID string, existing []models.LicenseRequest) Eligibility {
	if track == nil {
		return Eligibility{}
	}
	if track.ArtistID == requesterID {
		return Eligibility{Reason: EligibilitySelfRequest}
	}
	for i := range existing {
		r := existing[i]
		if r.TrackID != track.ID {
			continue
		}
		if r.RequesterID != "" && r.RequesterID != requesterID {
			continue
		}
		if liveLicenseStatus(r.Status) {
			return Eligibility{Reason: EligibilityActive, Active: &r}
		}
	}
	return Eligibility{Eligible: true}
}

// CanRequest is advisory; the platform API enforces the same rule.
func CanRequest(track *models.Track, requesterID string, existing []models.LicenseRequest) bool {
	return CheckEligibility(track, requesterID, existing).Eligible
}

type LicenseService struct {
	audit  *AuditService
	logger logrus.FieldLogger
}

func NewLicenseService(audit *AuditService, logger logrus.FieldLogger) *LicenseService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LicenseService{audit: audit, logger: logger}
}

func (s *LicenseService) Eligibility(ctx context.Context, api LicenseAPI, user *models.User, trackID string) (Eligibility, error) {
	if !HasPermission(user, PermRequestLicenses) {
		return Eligibility{}, ErrLicenseNotPermitted
	}

	track, err := api.GetTrack(ctx, trackID)
	if err != nil {
		return Eligibility{}, err
	}
	existing, err := api.ListLicenseRequests(ctx, trackID, user.ID)
	if err != nil {
		return Eligibility{}, fmt.Errorf("failed to load license requests: %w", err)
	}
	return CheckEligibility(track, user.ID, existing), nil
}

// SubmitRequest validates the form, re-checks eligibility and forwards the
// request to the platform API.
func (s *LicenseService) SubmitRequest(ctx context.Context, api LicenseAPI, user *models.User, trackID string, req *SubmitLicenseRequest) (*models.LicenseRequest, error) {
	req.Purpose = strings.TrimSpace(req.Purpose)
	req.Usage = strings.TrimSpace(req.Usage)
	req.Duration = strings.TrimSpace(req.Duration)
	req.Territory = strings.TrimSpace(req.Territory)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	eligibility, err := s.Eligibility(ctx, api, user, trackID)
	if err != nil {
		return nil, err
	}
	switch eligibility.Reason {
	case EligibilitySelfRequest:
		return nil, ErrSelfLicense
	case EligibilityActive:
		return nil, ErrLicenseActive
	}

	created, err := api.CreateLicenseRequest(ctx, models.LicenseRequest{
		TrackID:     trackID,
		RequesterID: user.ID,
		Purpose:     req.Purpose,
		Usage:       req.Usage,
		Duration:    req.Duration,
		Territory:   req.Territory,
		Status:      models.LicenseStatusPending,
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, AuditEntry{
		User:         user,
		Action:       "license.request",
		ResourceType: string(models.EntityTypeLicense),
		ResourceID:   created.ID,
		Outcome:      "created",
		Details:      models.JSONB{"track_id": trackID},
	})
	s.logger.WithFields(logrus.Fields{
		"track_id":     trackID,
		"requester_id": user.ID,
	}).Info("License request submitted")
	return created, nil
}
