// internal/models/transaction.go
package models

import "time"

// PaymentVerification is keyed by (EntityID, EntityType).
type PaymentVerification struct {
	EntityID      string             `json:"entityId"`
	EntityType    EntityType         `json:"entityType"`
	Paid          bool               `json:"paid"`
	Status        VerificationStatus `json:"verificationStatus"`
	Amount        float64            `json:"amount"`
	TransactionID string             `json:"transactionId,omitempty"`
	UpdatedAt     time.Time          `json:"updatedAt"`
}

// BlockchainTransaction tracks one submitted contract call. Hash is set only
// after submission and Status moves from pending to confirmed or failed once.
type BlockchainTransaction struct {
	Hash        string            `json:"hash"`
	Status      TransactionStatus `json:"status"`
	SubmittedAt time.Time         `json:"timestamp"`
	GasUsed     *uint64           `json:"gasUsed,omitempty"`
	Fee         string            `json:"fee,omitempty"`
}

func (t *BlockchainTransaction) Terminal() bool {
	return t.Status == TransactionStatusConfirmed || t.Status == TransactionStatusFailed
}
