package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslations_In(t *testing.T) {
	translations := Translations{"en": "hello", "de": "hallo", "bg": ""}

	assert.Equal(t, "hello", translations.In("en"))
	assert.Equal(t, "hallo", translations.In("de"))

	// Missing or empty translations fall back to any non-empty value.
	assert.NotEmpty(t, translations.In("bg"))
	assert.NotEmpty(t, translations.In("fr"))

	assert.Empty(t, Translations{}.In("en"))
}

func TestPage_UrlStrategy(t *testing.T) {
	page := Page{ID: 1, Name: Translations{"en": "This is a Test", "de": "Über uns"}}

	assert.Equal(t, "en/pages/this-is-a-test", page.UrlStrategy("en", "en_US"))

	// Transliteration is language aware: German umlauts expand to ue/oe/ae.
	assert.Equal(t, "de/pages/ueber-uns", page.UrlStrategy("de", "de_DE"))
}

func TestPage_UrlHandler(t *testing.T) {
	page := Page{ID: 9}
	descriptor := page.UrlHandler()

	assert.Equal(t, "pages", descriptor.Controller)
	assert.Equal(t, "view", descriptor.Method)
	id, ok := descriptor.Arguments.Uint("page_id")
	require.True(t, ok)
	assert.Equal(t, uint(9), id)
}

func TestPage_AutoGenerateOptOut(t *testing.T) {
	page := Page{}
	assert.True(t, page.AutoGenerateUrls())

	page.DisableUrlGeneration()
	assert.False(t, page.AutoGenerateUrls())
}

func TestTranslations_RoundTrip(t *testing.T) {
	original := Translations{"en": "hello", "bg": "здравей"}

	value, err := original.Value()
	require.NoError(t, err)

	var restored Translations
	require.NoError(t, restored.Scan(value))
	assert.Equal(t, original, restored)
}
