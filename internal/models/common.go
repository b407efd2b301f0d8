// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type Role string

const (
	RoleArtist   Role = "artist"
	RoleLicensee Role = "licensee"
	RoleAdmin    Role = "admin"
)

type AdminType string

const (
	AdminTypeContent   AdminType = "content"
	AdminTypeFinancial AdminType = "financial"
	AdminTypeTechnical AdminType = "technical"
	AdminTypeSuper     AdminType = "super"
)

// AdminTypes lists the admin sub-types in lookup order.
var AdminTypes = []AdminType{AdminTypeContent, AdminTypeFinancial, AdminTypeTechnical, AdminTypeSuper}

// ParseAdminType returns the admin sub-type named by s. The literal "null"
// and unknown tags are reported as absent.
func ParseAdminType(s string) (AdminType, bool) {
	for _, t := range AdminTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type EntityType string

const (
	EntityTypeTrack     EntityType = "track"
	EntityTypeCopyright EntityType = "copyright"
	EntityTypeTransfer  EntityType = "transfer"
	EntityTypeLicense   EntityType = "license"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeTrack, EntityTypeCopyright, EntityTypeTransfer, EntityTypeLicense:
		return true
	}
	return false
}

type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusVerified VerificationStatus = "verified"
	VerificationStatusRejected VerificationStatus = "rejected"
)

func (s VerificationStatus) Valid() bool {
	switch s {
	case VerificationStatusPending, VerificationStatusVerified, VerificationStatusRejected:
		return true
	}
	return false
}

type TrackStatus string

const (
	TrackStatusPending   TrackStatus = "pending"
	TrackStatusApproved  TrackStatus = "approved"
	TrackStatusRejected  TrackStatus = "rejected"
	TrackStatusPublished TrackStatus = "published"
)

type TransferStatus string

const (
	TransferStatusRequested TransferStatus = "requested"
	TransferStatusApproved  TransferStatus = "approved"
	TransferStatusPublished TransferStatus = "published"
	TransferStatusRejected  TransferStatus = "rejected"
)

type LicenseStatus string

const (
	LicenseStatusPending   LicenseStatus = "pending"
	LicenseStatusApproved  LicenseStatus = "approved"
	LicenseStatusPaid      LicenseStatus = "paid"
	LicenseStatusPublished LicenseStatus = "published"
	LicenseStatusRejected  LicenseStatus = "rejected"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
)
