// Package services contains the business logic layer: slug uniqueness
// arbitration and the URL lifecycle coordination built on top of it.
package services

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/vlados/unique-urls/internal/config"
	apperrors "github.com/vlados/unique-urls/internal/errors"
	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/repository"
)

// slugFormat is the strict format applied when urls.validate_slugs is on:
// lowercase letters, digits and hyphens only.
var slugFormat = regexp.MustCompile(`^[a-z0-9-]+$`)

// SlugService computes collision-free slugs for candidate base strings.
// It only ever reads from the database; persistence is the caller's job.
type SlugService struct {
	urlRepo repository.UrlRepository
	cfg     *config.Config
	log     *zap.Logger
}

// NewSlugService creates and returns a new instance of SlugService.
func NewSlugService(urlRepo repository.UrlRepository, cfg *config.Config, log *zap.Logger) *SlugService {
	return &SlugService{
		urlRepo: urlRepo,
		cfg:     cfg,
		log:     log,
	}
}

// MakeSlug returns the first candidate derived from base that collides with
// no other owner's slug. If base itself is taken, suffixes _1, _2, ... are
// tried in order until a free one is found. A row blocks a candidate when it
// belongs to a different entity than scope, or to no entity at all; the
// scope's own current slug never blocks its reuse.
//
// The base string is expected to be already normalized by the entity's
// strategy (lowercased, transliterated, hyphenated).
func (s *SlugService) MakeSlug(base string, scope models.Scope) (string, error) {
	if base == "" {
		return "", apperrors.EmptySlugError{EntityType: scope.EntityType, EntityID: scope.EntityID}
	}

	slug := base
	if s.cfg.Urls.AutoTrimSlashes {
		slug = strings.Trim(slug, "/")
		if slug == "" {
			return "", apperrors.EmptySlugError{
				EntityType: scope.EntityType,
				EntityID:   scope.EntityID,
				Original:   base,
				AfterTrim:  true,
			}
		}
		if slug != base {
			// Strategies returning slugs with surrounding slashes would
			// otherwise produce paths that never match a request.
			s.log.Warn("slug was trimmed: leading/trailing slashes removed",
				zap.String("entity_type", scope.EntityType),
				zap.Uint("entity_id", scope.EntityID),
				zap.String("original", base),
				zap.String("trimmed", slug),
			)
		}
	}

	if s.cfg.Urls.ValidateSlugs && !slugFormat.MatchString(slug) {
		return "", apperrors.InvalidSlugError{
			Slug:       slug,
			EntityType: scope.EntityType,
			EntityID:   scope.EntityID,
			Reason:     apperrors.ReasonInvalidCharacters,
		}
	}

	if err := s.checkReserved(slug, scope); err != nil {
		return "", err
	}

	// The suffix counter is a single incrementing integer with one existence
	// check per candidate. It never reuses a freed suffix out of order: the
	// first free candidate in sequence wins.
	candidate := slug
	for i := 1; ; i++ {
		taken, err := s.urlRepo.ExistsOtherWithSlug(candidate, scope)
		if err != nil {
			return "", fmt.Errorf("uniqueness check failed for %q: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s_%d", slug, i)
	}
}

func (s *SlugService) checkReserved(slug string, scope models.Scope) error {
	for _, reserved := range s.cfg.Urls.ReservedSlugs {
		if slug == reserved {
			return apperrors.InvalidSlugError{
				Slug:       slug,
				EntityType: scope.EntityType,
				EntityID:   scope.EntityID,
				Reason:     apperrors.ReasonReserved,
			}
		}
	}
	return nil
}
