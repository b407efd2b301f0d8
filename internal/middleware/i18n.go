// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// normalizeLanguage maps an Accept-Language tag onto a bundled locale.
func normalizeLanguage(tag, fallback string) string {
	switch strings.ReplaceAll(tag, "-", "_") {
	case "zh_TW", "zh_Hant", "zh_HK", "zh":
		return "zh_TW"
	case "en", "en_US", "en_GB":
		return "en"
	}
	return fallback
}

func I18nMiddleware(defaultLang string) gin.HandlerFunc {
	if defaultLang == "" {
		defaultLang = "en"
	}
	return func(c *gin.Context) {
		lang := defaultLang

		// Handle cases like "zh-TW,zh;q=0.9,en;q=0.8"
		if header := c.GetHeader("Accept-Language"); header != "" {
			first := strings.TrimSpace(strings.Split(strings.Split(header, ",")[0], ";")[0])
			lang = normalizeLanguage(first, defaultLang)
		}

		c.Set("lang", lang)
		c.Next()
	}
}
