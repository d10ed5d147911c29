// internal/i18n/i18n.go

// Package i18n holds the user-facing message catalog. Handlers look messages
// up by key; locale JSON files under the configured path supply the text.
package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const defaultLang = "en"

type catalog struct {
	mu       sync.RWMutex
	messages map[string]map[string]string // lang -> key -> text
}

var instance *catalog
var once sync.Once

// Initialize loads every *.json locale file under localesPath. Safe to call
// more than once; only the first call loads.
func Initialize(localesPath string) error {
	var err error
	once.Do(func() {
		c := &catalog{messages: make(map[string]map[string]string)}
		err = c.load(localesPath)
		if err == nil {
			instance = c
		}
	})
	return err
}

func (c *catalog) load(localesPath string) error {
	entries, err := os.ReadDir(localesPath)
	if err != nil {
		return fmt.Errorf("failed to read locales directory %s: %w", localesPath, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(localesPath, name))
		if err != nil {
			return fmt.Errorf("failed to read locale file %s: %w", name, err)
		}

		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return fmt.Errorf("failed to parse locale file %s: %w", name, err)
		}

		c.mu.Lock()
		c.messages[strings.TrimSuffix(name, ".json")] = messages
		c.mu.Unlock()
	}

	if _, ok := c.messages[defaultLang]; !ok {
		return fmt.Errorf("locales directory %s has no %s.json", localesPath, defaultLang)
	}

	return nil
}

func (c *catalog) lookup(lang, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if text, ok := c.messages[lang][key]; ok {
		return text, true
	}
	if lang != defaultLang {
		if text, ok := c.messages[defaultLang][key]; ok {
			return text, true
		}
	}
	return "", false
}

// T translates key for lang, falling back to the default language and then
// to the key itself. Extra args are applied as format verbs.
func T(lang, key string, args ...interface{}) string {
	if instance == nil {
		return key
	}

	text, ok := instance.lookup(lang, key)
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(text, args...)
	}
	return text
}

// GetSupportedLanguages lists the loaded locales, sorted for stable output.
func GetSupportedLanguages() []string {
	if instance == nil {
		return []string{defaultLang}
	}

	instance.mu.RLock()
	defer instance.mu.RUnlock()

	langs := make([]string, 0, len(instance.messages))
	for lang := range instance.messages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
