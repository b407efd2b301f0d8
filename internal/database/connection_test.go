package database

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestGormConfigLogLevel(t *testing.T) {
	assert.NotNil(t, gormConfig("silent").Logger)
	assert.NotNil(t, gormConfig("info").Logger)
}

func TestCreateIndexesToleratesFailures(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	for i, index := range indexes {
		expect := mock.ExpectExec(regexp.QuoteMeta(index))
		if i == 0 {
			expect.WillReturnError(assert.AnError)
		} else {
			expect.WillReturnResult(sqlmock.NewResult(0, 0))
		}
	}

	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.WarnLevel)
	createIndexes(db, log)

	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "Failed to create index", hook.LastEntry().Message)
}
