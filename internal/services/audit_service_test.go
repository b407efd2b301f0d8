package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

func TestAuditRecordWritesRow(t *testing.T) {
	db, mock := newMockGorm(t)
	svc := NewAuditService(db, testLogger())

	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New().String()))

	svc.Record(context.Background(), AuditEntry{
		User:         admin(models.AdminTypeFinancial),
		Action:       "payment.set_status",
		ResourceType: "track",
		ResourceID:   "t1",
		Outcome:      "verified",
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditListFilters(t *testing.T) {
	db, mock := newMockGorm(t)
	svc := NewAuditService(db, testLogger())

	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs" WHERE action = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs" WHERE action = \$1 ORDER BY created_at DESC`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "action", "resource_type", "outcome"}).
			AddRow(uuid.New().String(), "a-super", "publish.copyright", "copyright", "confirmed"))

	logs, total, err := svc.List(context.Background(), AuditFilter{Action: "publish.copyright"}, utils.PaginationParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, logs, 1)
	assert.Equal(t, "confirmed", logs[0].Outcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNilAuditServiceIsSafe(t *testing.T) {
	var svc *AuditService
	assert.NotPanics(t, func() {
		svc.Record(context.Background(), AuditEntry{Action: "noop"})
	})
	logs, total, err := svc.List(context.Background(), AuditFilter{}, utils.PaginationParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Zero(t, total)

	// without a database entries are only logged
	NewAuditService(nil, testLogger()).Record(context.Background(), AuditEntry{Action: "noop"})
}
