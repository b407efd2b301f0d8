// internal/services/payment_ledger.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

const (
	paymentLedgerKey     = "payment_verifications"
	paymentLedgerVersion = 1
)

var (
	ErrInvalidStatusTransition = errors.New("only pending payments can be verified or rejected")
	ErrInvalidPaymentRecord    = errors.New("invalid payment verification record")
)

// PaymentReader is the read-only view of the ledger used by gates.
type PaymentReader interface {
	Get(entityID string, entityType models.EntityType) (models.PaymentVerification, bool)
}

type ledgerEnvelope struct {
	Version int                          `json:"version"`
	Records []models.PaymentVerification `json:"records"`
}

// PaymentLedger holds at most one verification record per (entity id,
// entity type) in insertion order. Every mutation rewrites the whole set to
// the store; a failed write is logged and the in-memory state kept.
type PaymentLedger struct {
	store   KeyValueStore
	logger  logrus.FieldLogger
	metrics *Metrics
	now     func() time.Time

	mu      sync.RWMutex
	records []models.PaymentVerification
}

func NewPaymentLedger(store KeyValueStore, logger logrus.FieldLogger, metrics *Metrics) *PaymentLedger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &PaymentLedger{
		store:   store,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}
}

// Load replaces the in-memory records with the stored set. A malformed
// payload loads as an empty ledger.
func (l *PaymentLedger) Load(ctx context.Context) error {
	raw, ok, err := l.store.Get(ctx, paymentLedgerKey)
	if err != nil {
		return fmt.Errorf("failed to load payment ledger: %w", err)
	}

	var records []models.PaymentVerification
	if ok {
		records, err = decodeLedger([]byte(raw))
		if err != nil {
			l.logger.WithError(err).Warn("Stored payment ledger is malformed, starting empty")
			records = nil
		}
	}

	l.mu.Lock()
	l.records = dedupeRecords(records)
	l.mu.Unlock()
	return nil
}

func decodeLedger(raw []byte) ([]models.PaymentVerification, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var legacy []models.PaymentVerification
		if err := json.Unmarshal(trimmed, &legacy); err != nil {
			return nil, err
		}
		return legacy, nil
	}

	var env ledgerEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, err
	}
	if env.Version != paymentLedgerVersion {
		return nil, fmt.Errorf("unsupported ledger version %d", env.Version)
	}
	return env.Records, nil
}

// dedupeRecords keeps the last record for each key at the position of the
// first one.
func dedupeRecords(records []models.PaymentVerification) []models.PaymentVerification {
	out := make([]models.PaymentVerification, 0, len(records))
	index := make(map[string]int, len(records))
	for _, r := range records {
		k := ledgerKey(r.EntityID, r.EntityType)
		if i, ok := index[k]; ok {
			out[i] = r
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}

func ledgerKey(entityID string, entityType models.EntityType) string {
	return string(entityType) + "\x00" + entityID
}

func (l *PaymentLedger) indexOf(entityID string, entityType models.EntityType) int {
	for i, r := range l.records {
		if r.EntityID == entityID && r.EntityType == entityType {
			return i
		}
	}
	return -1
}

func (l *PaymentLedger) Get(entityID string, entityType models.EntityType) (models.PaymentVerification, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i := l.indexOf(entityID, entityType); i >= 0 {
		return l.records[i], true
	}
	return models.PaymentVerification{}, false
}

func (l *PaymentLedger) hasStatus(entityID string, entityType models.EntityType, status models.VerificationStatus) bool {
	r, ok := l.Get(entityID, entityType)
	return ok && r.Status == status
}

func (l *PaymentLedger) IsVerified(entityID string, entityType models.EntityType) bool {
	return l.hasStatus(entityID, entityType, models.VerificationStatusVerified)
}

func (l *PaymentLedger) IsPending(entityID string, entityType models.EntityType) bool {
	return l.hasStatus(entityID, entityType, models.VerificationStatusPending)
}

func (l *PaymentLedger) IsRejected(entityID string, entityType models.EntityType) bool {
	return l.hasStatus(entityID, entityType, models.VerificationStatusRejected)
}

// Upsert replaces the record with the same key in place, or appends it.
func (l *PaymentLedger) Upsert(ctx context.Context, record models.PaymentVerification) error {
	if record.EntityID == "" || !record.EntityType.Valid() {
		return ErrInvalidPaymentRecord
	}
	if record.Status == "" {
		record.Status = models.VerificationStatusPending
	}
	if !record.Status.Valid() {
		return ErrInvalidPaymentRecord
	}
	record.UpdatedAt = l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if i := l.indexOf(record.EntityID, record.EntityType); i >= 0 {
		l.records[i] = record
	} else {
		l.records = append(l.records, record)
	}
	l.persistLocked(ctx)
	l.metrics.ObserveLedger("upsert")
	return nil
}

// SetStatus moves a pending record to verified or rejected. It reports
// whether a record exists; an absent record is left absent.
func (l *PaymentLedger) SetStatus(ctx context.Context, entityID string, entityType models.EntityType, status models.VerificationStatus) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(entityID, entityType)
	if i < 0 {
		return false, nil
	}

	current := l.records[i].Status
	if current == status {
		return true, nil
	}
	if current != models.VerificationStatusPending ||
		(status != models.VerificationStatusVerified && status != models.VerificationStatusRejected) {
		return true, ErrInvalidStatusTransition
	}

	l.records[i].Status = status
	l.records[i].UpdatedAt = l.now()
	l.persistLocked(ctx)
	l.metrics.ObserveLedger("set_status")
	return true, nil
}

func (l *PaymentLedger) filter(keep func(models.PaymentVerification) bool) []models.PaymentVerification {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := []models.PaymentVerification{}
	for _, r := range l.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

func (l *PaymentLedger) List() []models.PaymentVerification {
	return l.filter(func(models.PaymentVerification) bool { return true })
}

func (l *PaymentLedger) ListByStatus(status models.VerificationStatus) []models.PaymentVerification {
	return l.filter(func(r models.PaymentVerification) bool { return r.Status == status })
}

func (l *PaymentLedger) ListByType(entityType models.EntityType) []models.PaymentVerification {
	return l.filter(func(r models.PaymentVerification) bool { return r.EntityType == entityType })
}

func (l *PaymentLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}

func (l *PaymentLedger) persistLocked(ctx context.Context) {
	payload, err := json.Marshal(ledgerEnvelope{Version: paymentLedgerVersion, Records: l.records})
	if err != nil {
		l.logger.WithError(err).Error("Failed to encode payment ledger")
		return
	}
	if err := l.store.Set(ctx, paymentLedgerKey, string(payload)); err != nil {
		l.logger.WithError(err).Error("Failed to persist payment ledger")
	}
}
