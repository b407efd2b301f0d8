package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialRoundTripWithSecret(t *testing.T) {
	token, err := GenerateCredential(CredentialClaims{
		UserID:    "u-1",
		Role:      "admin",
		AdminType: "financial",
		Email:     "fin@example.com",
	}, "secret", time.Hour)
	require.NoError(t, err)

	claims, err := DecodeCredential(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "financial", claims.AdminType)

	_, err = DecodeCredential(token, "other-secret")
	assert.Error(t, err)
}

func TestDecodeWithoutSecretSkipsSignature(t *testing.T) {
	token, err := GenerateCredential(CredentialClaims{UserID: "u-2", Role: "artist"}, "whatever", time.Hour)
	require.NoError(t, err)

	claims, err := DecodeCredential(token, "")
	require.NoError(t, err)
	assert.Equal(t, "artist", claims.Role)
}

func TestDecodeRejectsGarbageAndExpired(t *testing.T) {
	_, err := DecodeCredential("not-a-token", "")
	assert.Error(t, err)

	expired, err := GenerateCredential(CredentialClaims{UserID: "u-3", Role: "licensee"}, "k", -time.Minute)
	require.NoError(t, err)
	_, err = DecodeCredential(expired, "")
	assert.Error(t, err)
}
