package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	gosimpleslug "github.com/gosimple/slug"
)

// Page is the owning entity managed by this application. It carries a
// translated name and gets one generated URL per configured language.
// Any other record type can plug into URL generation the same way by
// implementing UrlEntity.
type Page struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Name holds one value per language code, stored as JSON.
	Name Translations `gorm:"type:json;not null" json:"name"`

	// noAutoUrls is a per-instance opt-out of URL generation on create and
	// update. Not persisted; the zero value keeps generation enabled.
	noAutoUrls bool
}

// DisableUrlGeneration turns off automatic URL generation for this instance.
// Useful when importing records in bulk and generating URLs afterwards.
func (p *Page) DisableUrlGeneration() {
	p.noAutoUrls = true
}

func (p *Page) AutoGenerateUrls() bool {
	return !p.noAutoUrls
}

func (p *Page) EntityType() string {
	return "pages"
}

func (p *Page) EntityID() uint {
	return p.ID
}

// UrlStrategy builds the slug base for one language: the language code, a
// fixed "pages" segment, and the slugified translated name. The slug library
// handles language-aware transliteration of the name.
func (p *Page) UrlStrategy(language, locale string) string {
	return language + "/pages/" + gosimpleslug.MakeLang(p.Name.In(language), language)
}

// UrlHandler points every generated record at the registered "pages" handler.
func (p *Page) UrlHandler() HandlerDescriptor {
	return HandlerDescriptor{
		Controller: "pages",
		Method:     "view",
		Arguments:  JSONMap{"page_id": p.ID},
	}
}

// Translations maps a language code to a translated value.
type Translations map[string]string

// In returns the translation for the given language, falling back to any
// available value so a missing translation never yields an empty slug base
// for entities that are only partially translated.
func (t Translations) In(language string) string {
	if v, ok := t[language]; ok && v != "" {
		return v
	}
	for _, v := range t {
		if v != "" {
			return v
		}
	}
	return ""
}

func (t Translations) Value() (driver.Value, error) {
	if t == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(t)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal translations: %w", err)
	}
	return string(raw), nil
}

func (t *Translations) Scan(value any) error {
	if value == nil {
		*t = Translations{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for translations column", value)
	}
	if len(raw) == 0 {
		*t = Translations{}
		return nil
	}
	return json.Unmarshal(raw, t)
}
