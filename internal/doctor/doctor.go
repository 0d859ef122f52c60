// Package doctor verifies the integrity of generated URL records: every
// entity covered for every configured language, no duplicate slugs, no
// records pointing at vanished owners. The CLI runs it on demand and the
// server runs it periodically.
package doctor

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vlados/unique-urls/internal/config"
	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/repository"
	"github.com/vlados/unique-urls/internal/services"
)

// Problem describes one integrity violation found during a check.
type Problem struct {
	Source string // entity source name, or "urls" for table-level problems
	Detail string
}

func (p Problem) String() string {
	return fmt.Sprintf("[%s] %s", p.Source, p.Detail)
}

// Doctor runs integrity checks over the URL table and the registered entity
// sources.
type Doctor struct {
	urlRepo repository.UrlRepository
	sources []services.EntitySource
	cfg     *config.Config
	log     *zap.Logger
}

// New creates and returns a new instance of Doctor.
func New(urlRepo repository.UrlRepository, sources []services.EntitySource, cfg *config.Config, log *zap.Logger) *Doctor {
	return &Doctor{
		urlRepo: urlRepo,
		sources: sources,
		cfg:     cfg,
		log:     log,
	}
}

// Check runs every integrity check and returns the collected problems.
// An empty result means the URL table is consistent.
func (d *Doctor) Check() ([]Problem, error) {
	var problems []Problem

	duplicates, err := d.urlRepo.DuplicateSlugs()
	if err != nil {
		return nil, err
	}
	for _, slug := range duplicates {
		problems = append(problems, Problem{
			Source: "urls",
			Detail: fmt.Sprintf("slug %q is held by more than one record", slug),
		})
	}

	for _, source := range d.sources {
		sourceProblems, err := d.checkSource(source)
		if err != nil {
			return nil, err
		}
		problems = append(problems, sourceProblems...)
	}

	return problems, nil
}

func (d *Doctor) checkSource(source services.EntitySource) ([]Problem, error) {
	entities, err := source.All()
	if err != nil {
		return nil, err
	}

	var problems []Problem
	known := make(map[uint]bool, len(entities))

	for _, entity := range entities {
		known[entity.EntityID()] = true
		problems = append(problems, d.checkCoverage(source, entity)...)
		problems = append(problems, d.checkStrategy(source, entity)...)
	}

	// Live records whose owner disappeared without the delete cascade.
	records, err := d.urlRepo.FindByEntityType(source.Name())
	if err != nil {
		return nil, err
	}
	for _, record := range records {
		if _, id, ok := record.Owner(); ok && !known[id] {
			problems = append(problems, Problem{
				Source: source.Name(),
				Detail: fmt.Sprintf("record %q points at missing %s(%d)", record.Slug, source.Name(), id),
			})
		}
	}

	return problems, nil
}

// checkCoverage verifies the steady-state invariant: exactly one record per
// (entity, language).
func (d *Doctor) checkCoverage(source services.EntitySource, entity models.UrlEntity) []Problem {
	records, err := d.urlRepo.FindByEntity(entity.EntityType(), entity.EntityID())
	if err != nil {
		return []Problem{{Source: source.Name(), Detail: err.Error()}}
	}

	perLanguage := make(map[string]int, len(records))
	for _, record := range records {
		perLanguage[record.Language]++
	}

	var problems []Problem
	for _, pair := range d.cfg.Urls.Languages {
		switch perLanguage[pair.Code] {
		case 0:
			problems = append(problems, Problem{
				Source: source.Name(),
				Detail: fmt.Sprintf("%s(%d) has no url for language %q", entity.EntityType(), entity.EntityID(), pair.Code),
			})
		case 1:
			// steady state
		default:
			problems = append(problems, Problem{
				Source: source.Name(),
				Detail: fmt.Sprintf("%s(%d) has %d urls for language %q", entity.EntityType(), entity.EntityID(), perLanguage[pair.Code], pair.Code),
			})
		}
	}
	return problems
}

// checkStrategy flags entities whose strategy yields the same base for every
// configured language. With a single language this is meaningless and the
// check is skipped.
func (d *Doctor) checkStrategy(source services.EntitySource, entity models.UrlEntity) []Problem {
	if len(d.cfg.Urls.Languages) < 2 {
		return nil
	}

	seen := make(map[string]bool, len(d.cfg.Urls.Languages))
	for _, pair := range d.cfg.Urls.Languages {
		seen[entity.UrlStrategy(pair.Code, pair.Locale)] = true
	}
	if len(seen) == len(d.cfg.Urls.Languages) {
		return nil
	}
	return []Problem{{
		Source: source.Name(),
		Detail: fmt.Sprintf("%s(%d) strategy does not vary across languages", entity.EntityType(), entity.EntityID()),
	}}
}
