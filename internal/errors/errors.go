package errors

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Custom error types for the unique URL engine.

// ErrUrlNotFound is returned when no record matches a requested slug.
var ErrUrlNotFound = errors.New("url record not found")

// ErrPageNotFound is returned when a page id doesn't exist in the database.
var ErrPageNotFound = errors.New("page not found")

// EmptySlugError is returned when a slug base string is empty, either as
// provided by the entity's strategy or after separator trimming.
type EmptySlugError struct {
	EntityType string
	EntityID   uint
	Original   string
	AfterTrim  bool
}

func (e EmptySlugError) Error() string {
	if e.AfterTrim {
		return fmt.Sprintf("slug %q for %s(%d) is empty after trimming", e.Original, e.EntityType, e.EntityID)
	}
	return fmt.Sprintf("empty slug for %s(%d)", e.EntityType, e.EntityID)
}

// Reasons carried by InvalidSlugError.
const (
	ReasonInvalidCharacters = "contains invalid characters"
	ReasonReserved          = "slug is reserved"
)

// InvalidSlugError is returned when a candidate slug fails strict format
// validation or matches a configured reserved word.
type InvalidSlugError struct {
	Slug       string
	EntityType string
	EntityID   uint
	Reason     string
}

func (e InvalidSlugError) Error() string {
	return fmt.Sprintf("invalid slug %q for %s(%d): %s", e.Slug, e.EntityType, e.EntityID, e.Reason)
}

// IsDuplicateKey reports whether err is a storage-level uniqueness violation.
// The slug column's unique index is the backstop for two processes racing the
// uniqueness pre-check; callers treat this as retriable. Not every driver
// translates to gorm.ErrDuplicatedKey, hence the message check.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
