package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/vlados/unique-urls/internal/config"
	apperrors "github.com/vlados/unique-urls/internal/errors"
	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/repository"
)

// BatchStats aggregates the outcome of a batch generation run.
type BatchStats struct {
	Generated int // entities that got fresh URLs
	Skipped   int // entities that already had URLs
	Failed    int // entities whose generation errored (logged, batch continues)
}

// ProgressFunc is invoked after each processed entity during batch generation.
type ProgressFunc func(entity models.UrlEntity, processed, total int, stats BatchStats)

// EntitySource enumerates the entities of one type for batch generation,
// rebuilds and integrity checks. The application registers one source per
// entity type that participates in URL generation.
type EntitySource interface {
	Name() string
	All() ([]models.UrlEntity, error)
}

// UrlService reconciles the per-language URL records of owning entities
// against their strategy output: it creates missing records, updates drifted
// ones (leaving redirect markers behind) and cascades deletions.
type UrlService struct {
	urlRepo     repository.UrlRepository
	slugService *SlugService
	cfg         *config.Config
	log         *zap.Logger
}

// NewUrlService creates and returns a new instance of UrlService.
func NewUrlService(urlRepo repository.UrlRepository, slugService *SlugService, cfg *config.Config, log *zap.Logger) *UrlService {
	return &UrlService{
		urlRepo:     urlRepo,
		slugService: slugService,
		cfg:         cfg,
		log:         log,
	}
}

// Generate reconciles the entity's URL records for every configured language.
// For each language the desired slug is computed through the entity's
// strategy and the uniqueness engine; a missing record is staged for batch
// creation, a drifted record is updated in place (which leaves a redirect
// marker for the old slug), an identical record is left alone. Calling
// Generate twice in a row with unchanged data is a no-op.
func (s *UrlService) Generate(entity models.UrlEntity) error {
	scope := models.Scoped(entity)

	existing, err := s.urlRepo.FindByEntity(scope.EntityType, scope.EntityID)
	if err != nil {
		return err
	}
	byLanguage := make(map[string]*models.Url, len(existing))
	for i := range existing {
		byLanguage[existing[i].Language] = &existing[i]
	}

	var staged []models.Url
	for _, pair := range s.cfg.Urls.Languages {
		slug, err := s.slugService.MakeSlug(entity.UrlStrategy(pair.Code, pair.Locale), scope)
		if err != nil {
			return err
		}

		record, ok := byLanguage[pair.Code]
		if !ok {
			descriptor := entity.UrlHandler()
			relatedType := scope.EntityType
			relatedID := scope.EntityID
			staged = append(staged, models.Url{
				Slug:        slug,
				Controller:  descriptor.Controller,
				Method:      descriptor.Method,
				Arguments:   descriptor.Arguments,
				Language:    pair.Code,
				RelatedType: &relatedType,
				RelatedID:   &relatedID,
			})
			continue
		}

		if record.Slug != slug {
			if err := s.updateWithRetry(record, slug, entity, pair); err != nil {
				return err
			}
		}
	}

	if len(staged) == 0 {
		return nil
	}
	return s.createWithRetry(staged, entity)
}

// updateWithRetry applies a slug change, retrying once with a recomputed
// candidate if the storage-level unique index catches a race the read-only
// pre-check missed. A second failure propagates.
func (s *UrlService) updateWithRetry(record *models.Url, slug string, entity models.UrlEntity, pair config.LanguagePair) error {
	err := s.urlRepo.UpdateSlug(record, slug)
	if err == nil || !apperrors.IsDuplicateKey(err) {
		return err
	}

	s.log.Warn("slug update lost a uniqueness race, retrying once",
		zap.String("slug", slug),
		zap.String("language", pair.Code),
	)
	recomputed, rerr := s.slugService.MakeSlug(entity.UrlStrategy(pair.Code, pair.Locale), models.Scoped(entity))
	if rerr != nil {
		return rerr
	}
	return s.urlRepo.UpdateSlug(record, recomputed)
}

// createWithRetry bulk-creates staged records, recomputing every staged slug
// once when the unique index reports a race.
func (s *UrlService) createWithRetry(staged []models.Url, entity models.UrlEntity) error {
	err := s.urlRepo.CreateUrls(staged)
	if err == nil || !apperrors.IsDuplicateKey(err) {
		return err
	}

	s.log.Warn("bulk url creation lost a uniqueness race, retrying once",
		zap.String("entity_type", entity.EntityType()),
		zap.Uint("entity_id", entity.EntityID()),
	)
	scope := models.Scoped(entity)
	locales := make(map[string]string, len(s.cfg.Urls.Languages))
	for _, pair := range s.cfg.Urls.Languages {
		locales[pair.Code] = pair.Locale
	}
	for i := range staged {
		staged[i].ID = 0
		base := entity.UrlStrategy(staged[i].Language, locales[staged[i].Language])
		recomputed, rerr := s.slugService.MakeSlug(base, scope)
		if rerr != nil {
			return rerr
		}
		staged[i].Slug = recomputed
	}
	return s.urlRepo.CreateUrls(staged)
}

// EntityCreated is the hook the persistence layer calls after an entity was
// inserted. Generation is skipped when disabled globally or per instance.
func (s *UrlService) EntityCreated(entity models.UrlEntity) error {
	if !s.cfg.Urls.AutoGenerateOnCreate || !entity.AutoGenerateUrls() {
		return nil
	}
	return s.Generate(entity)
}

// EntityUpdated is the hook the persistence layer calls after an entity was
// updated.
func (s *UrlService) EntityUpdated(entity models.UrlEntity) error {
	if !entity.AutoGenerateUrls() {
		return nil
	}
	return s.Generate(entity)
}

// EntityDeleted cascades an entity deletion to all of its URL records. No
// redirects are synthesized; markers the entity spawned earlier stay behind
// but their replay will answer 404 once the live record is gone.
func (s *UrlService) EntityDeleted(entity models.UrlEntity) error {
	return s.urlRepo.DeleteAllForEntity(entity.EntityType(), entity.EntityID())
}

// GenerateBatch processes entities in sequential chunks. Entities that
// already have URL records are counted as skipped; per-entity failures are
// logged and counted without aborting the batch. The optional progress
// callback fires after every entity.
func (s *UrlService) GenerateBatch(entities []models.UrlEntity, chunkSize int, progress ProgressFunc) BatchStats {
	if chunkSize <= 0 {
		chunkSize = s.cfg.Urls.BatchSize
	}

	var stats BatchStats
	total := len(entities)
	processed := 0

	for start := 0; start < total; start += chunkSize {
		end := start + chunkSize
		if end > total {
			end = total
		}
		chunk := entities[start:end]

		for _, entity := range chunk {
			hasUrls, err := s.urlRepo.HasUrls(entity.EntityType(), entity.EntityID())
			switch {
			case err != nil:
				stats.Failed++
				s.log.Error("failed to check existing urls in batch",
					zap.String("entity_type", entity.EntityType()),
					zap.Uint("entity_id", entity.EntityID()),
					zap.Error(err),
				)
			case hasUrls:
				stats.Skipped++
			default:
				if err := s.Generate(entity); err != nil {
					stats.Failed++
					s.log.Error("failed to generate urls in batch",
						zap.String("entity_type", entity.EntityType()),
						zap.Uint("entity_id", entity.EntityID()),
						zap.Error(err),
					)
				} else {
					stats.Generated++
				}
			}

			processed++
			if progress != nil {
				progress(entity, processed, total, stats)
			}
		}

	}

	return stats
}

// RelativeUrl returns the entity's slug for a language, or the empty string
// when no record exists. An empty language falls back to
// urls.default_language, for callers with no language of their own.
func (s *UrlService) RelativeUrl(entity models.UrlEntity, language string) string {
	if language == "" {
		language = s.cfg.Urls.DefaultLanguage
	}
	record, err := s.urlRepo.FindLiveByEntity(entity.EntityType(), entity.EntityID(), language)
	if err != nil {
		return ""
	}
	return record.Slug
}

// AbsoluteUrl returns the relative URL prefixed with the configured site
// origin, or the empty string when no record exists.
func (s *UrlService) AbsoluteUrl(entity models.UrlEntity, language string) string {
	relative := s.RelativeUrl(entity, language)
	if relative == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s", strings.TrimRight(s.cfg.Server.BaseURL, "/"), relative)
}
