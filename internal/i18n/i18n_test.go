// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCatalog(t *testing.T) *catalog {
	t.Helper()
	c := &catalog{messages: make(map[string]map[string]string)}
	require.NoError(t, c.load("locales"))
	return c
}

func TestLoadRequiresDefaultLocale(t *testing.T) {
	c := &catalog{messages: make(map[string]map[string]string)}
	assert.Error(t, c.load(t.TempDir()))
}

// Every not-found key the handlers can emit must resolve in every shipped
// locale, or the client sees the raw key instead of a message.
func TestNotFoundKeysDefinedInAllLocales(t *testing.T) {
	c := loadCatalog(t)

	keys := []string{
		KeyUserNotFound,
		KeyApplicationNotFound,
		KeyPaymentNotFound,
		KeyAdmissionNotFound,
	}
	for lang := range c.messages {
		for _, key := range keys {
			text, ok := c.messages[lang][key]
			assert.True(t, ok, "locale %s missing %s", lang, key)
			assert.NotEmpty(t, text, "locale %s has empty %s", lang, key)
		}
	}
}

func TestLookupFallsBackToDefaultLanguage(t *testing.T) {
	c := loadCatalog(t)

	text, ok := c.lookup("zh_TW", KeyUserNotFound)
	require.True(t, ok)
	assert.Equal(t, "找不到使用者", text)

	// An unknown locale still gets the English text.
	text, ok = c.lookup("fr", KeyUserNotFound)
	require.True(t, ok)
	assert.Equal(t, "User not found", text)

	_, ok = c.lookup("en", "no.such_key")
	assert.False(t, ok)
}
