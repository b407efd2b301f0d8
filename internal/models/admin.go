// internal/models/admin.go
package models

import (
	"time"

	"github.com/lib/pq"
)

type AuditLog struct {
	BaseModel
	UserID       string         `json:"user_id" gorm:"size:64;index"`
	Roles        pq.StringArray `json:"roles" gorm:"type:text[]"`
	Action       string         `json:"action" gorm:"size:100;not null;index"`
	ResourceType string         `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   string         `json:"resource_id" gorm:"size:128;index"`
	Outcome      string         `json:"outcome" gorm:"size:50;index"`
	Details      JSONB          `json:"details" gorm:"type:jsonb"`
	IPAddress    string         `json:"ip_address" gorm:"size:45"`
	UserAgent    string         `json:"user_agent" gorm:"type:text"`
}

// StorageEntry backs the durable key/value store.
type StorageEntry struct {
	Key       string    `json:"key" gorm:"primaryKey;size:255"`
	Value     string    `json:"value" gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SystemSettings is the subset of platform settings this service reads.
type SystemSettings struct {
	CopyrightRegistrationFee float64           `json:"copyrightRegistrationFee"`
	ContractAddress          string            `json:"contractAddress"`
	Raw                      map[string]string `json:"raw,omitempty"`
}
