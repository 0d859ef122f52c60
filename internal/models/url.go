package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Well-known controller/method names identifying redirect marker records.
// A Url row carrying this pair is not dispatched to a registered handler;
// the dispatcher answers it with an HTTP redirect to the owner's current slug.
const (
	RedirectController = "unique-urls.redirect"
	RedirectMethod     = "handleRedirect"
)

// Argument keys used on redirect marker records and injected at dispatch time.
const (
	ArgOriginalType = "original_type" // entity type of the record that owned the old slug
	ArgOriginalID   = "original_id"   // entity id of the record that owned the old slug
	ArgRedirectTo   = "redirect_to"   // the slug that replaced the old one
	ArgRelatedType  = "related_type"  // injected before calling a named handler method
	ArgRelatedID    = "related_id"
)

// Url represents one language-specific URL entry stored in the database.
// A "live" record points back at its owning entity through RelatedType/RelatedID.
// A record with no owner (both nil) is a redirect marker: it only exists to
// answer requests for a superseded slug.
type Url struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Slug is the full path the record answers to, without a leading slash.
	// The unique index is the storage-level backstop for the uniqueness
	// pre-check racing another writer.
	Slug string `gorm:"uniqueIndex;size:512;not null" json:"slug"`

	// Controller names the registered handler that serves this URL.
	Controller string `gorm:"size:255;not null" json:"controller"`

	// Method names the operation on the handler. The empty string is a
	// sentinel meaning "default invokable handler".
	Method string `gorm:"size:255" json:"method"`

	// Arguments is an arbitrary JSON payload passed to the handler at
	// dispatch time. Redirect markers use it to carry their target metadata.
	Arguments JSONMap `gorm:"type:json" json:"arguments"`

	// Language is the configured language code this record was generated for.
	Language string `gorm:"size:12;index" json:"language"`

	// RelatedType/RelatedID form the polymorphic back-reference to the owning
	// entity. Both are nil for redirect markers.
	RelatedType *string `gorm:"size:255;index:idx_urls_related" json:"related_type"`
	RelatedID   *uint   `gorm:"index:idx_urls_related" json:"related_id"`
}

// IsRedirect reports whether the record is a redirect marker.
func (u *Url) IsRedirect() bool {
	return u.Controller == RedirectController && u.Method == RedirectMethod
}

// Owner returns the owning entity reference, or ok=false for orphan records.
func (u *Url) Owner() (entityType string, entityID uint, ok bool) {
	if u.RelatedType == nil || u.RelatedID == nil {
		return "", 0, false
	}
	return *u.RelatedType, *u.RelatedID, true
}

// OwnedBy reports whether the record belongs to the given scope.
func (u *Url) OwnedBy(scope Scope) bool {
	entityType, entityID, ok := u.Owner()
	return ok && entityType == scope.EntityType && entityID == scope.EntityID
}

// Scope identifies the entity requesting a slug. It is used to exclude a
// record's own current slug from the collision check, so an entity updating
// back to a previous value is not blocked by itself.
type Scope struct {
	EntityType string
	EntityID   uint
}

// JSONMap is a key-value payload persisted as a JSON column.
type JSONMap map[string]any

// Value implements driver.Valuer so GORM can store the map as JSON text.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal arguments: %w", err)
	}
	return string(raw), nil
}

// Scan implements sql.Scanner to read the JSON column back into the map.
func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = JSONMap{}
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for arguments column", value)
	}
	if len(raw) == 0 {
		*m = JSONMap{}
		return nil
	}
	return json.Unmarshal(raw, m)
}

// String returns the value under key as a string, with ok=false when the key
// is absent or holds a different type.
func (m JSONMap) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Uint returns the value under key as a uint. JSON round-tripping turns
// numbers into float64, so all numeric representations are accepted.
func (m JSONMap) Uint(key string) (uint, bool) {
	switch v := m[key].(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case int64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			return 0, false
		}
		return uint(v), true
	case json.Number:
		i, err := v.Int64()
		if err != nil || i < 0 {
			return 0, false
		}
		return uint(i), true
	default:
		return 0, false
	}
}

// Clone returns a shallow copy, so dispatch-time argument injection does not
// mutate the record loaded from the database.
func (m JSONMap) Clone() JSONMap {
	out := make(JSONMap, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}
