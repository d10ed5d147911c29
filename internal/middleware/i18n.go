// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/opencampus/admissions-backend/internal/i18n"
)

// I18nMiddleware resolves the response language from the Accept-Language
// header and stores it on the context for the handlers' message lookups.
func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", negotiateLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// negotiateLanguage picks the first supported language from a header like
// "zh-TW,zh;q=0.9,en;q=0.8". Quality weights are ignored; header order wins.
func negotiateLanguage(header string) string {
	supported := i18n.GetSupportedLanguages()

	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if tag == "" {
			continue
		}
		tag = strings.ReplaceAll(tag, "-", "_")

		for _, lang := range supported {
			if strings.EqualFold(tag, lang) || strings.EqualFold(strings.Split(tag, "_")[0], strings.Split(lang, "_")[0]) {
				return lang
			}
		}
	}

	return "en"
}
