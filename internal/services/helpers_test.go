package services

import (
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/utils"
)

const testSecret = "test-secret"

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func mintToken(t *testing.T, claims utils.CredentialClaims) string {
	t.Helper()
	token, err := utils.GenerateCredential(claims, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}
