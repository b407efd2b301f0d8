package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslations(t *testing.T) {
	require.NoError(t, Initialize("en"))

	assert.Equal(t, "Payment is required before this content is available", T("en", KeyPaymentRequired))
	assert.Equal(t, "付款正在等待審核", T("zh_TW", KeyPaymentVerificationPending))
	assert.Equal(t, "Publishing to the blockchain failed: reverted", T("en", KeyPublishFailed, "reverted"))

	// unknown language falls back to the default, unknown key returns the key
	assert.Equal(t, T("en", KeyGateNotFound), T("fr", KeyGateNotFound))
	assert.Equal(t, "missing.key", T("en", "missing.key"))
	assert.ElementsMatch(t, []string{"en", "zh_TW"}, GetSupportedLanguages())
}
