package services

import (
	"go.uber.org/zap"

	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/repository"
)

// PageService provides business logic for pages and wires their lifecycle
// into URL generation: create and update call the coordinator's hooks,
// deletion cascades to the page's URL records.
type PageService struct {
	pageRepo   repository.PageRepository
	urlService *UrlService
	log        *zap.Logger
}

// NewPageService creates and returns a new instance of PageService.
func NewPageService(pageRepo repository.PageRepository, urlService *UrlService, log *zap.Logger) *PageService {
	return &PageService{
		pageRepo:   pageRepo,
		urlService: urlService,
		log:        log,
	}
}

// CreatePage persists a new page and generates its URLs, unless autoUrls is
// false, in which case generation is deferred (e.g. to a later batch run).
func (s *PageService) CreatePage(name models.Translations, autoUrls bool) (*models.Page, error) {
	page := &models.Page{Name: name}
	if !autoUrls {
		page.DisableUrlGeneration()
	}

	if err := s.pageRepo.CreatePage(page); err != nil {
		return nil, err
	}
	if err := s.urlService.EntityCreated(page); err != nil {
		return nil, err
	}
	return page, nil
}

// RenamePage changes the page's translated names and reconciles its URLs.
// A change in the computed slug leaves a redirect marker for the old one.
func (s *PageService) RenamePage(id uint, name models.Translations) (*models.Page, error) {
	page, err := s.pageRepo.GetPageByID(id)
	if err != nil {
		return nil, err
	}

	page.Name = name
	if err := s.pageRepo.UpdatePage(page); err != nil {
		return nil, err
	}
	if err := s.urlService.EntityUpdated(page); err != nil {
		return nil, err
	}
	return page, nil
}

// DeletePage removes a page and all URL records it owns. Redirect markers it
// spawned over its lifetime are not pruned.
func (s *PageService) DeletePage(id uint) error {
	page, err := s.pageRepo.GetPageByID(id)
	if err != nil {
		return err
	}

	// URLs first: mirrors the deleting-hook order, so a failed page delete
	// never leaves URL records pointing at a half-removed entity.
	if err := s.urlService.EntityDeleted(page); err != nil {
		return err
	}
	return s.pageRepo.DeletePage(page)
}

// GetPage returns a page by id.
func (s *PageService) GetPage(id uint) (*models.Page, error) {
	return s.pageRepo.GetPageByID(id)
}

// ListPages returns every page in id order.
func (s *PageService) ListPages() ([]models.Page, error) {
	return s.pageRepo.GetAllPages()
}

// Source exposes pages as an EntitySource for batch generation, rebuilds and
// the integrity doctor.
func (s *PageService) Source() EntitySource {
	return pageSource{repo: s.pageRepo}
}

// sourceChunkSize bounds how many pages are loaded per query when the source
// is enumerated.
const sourceChunkSize = 500

type pageSource struct {
	repo repository.PageRepository
}

func (s pageSource) Name() string {
	return "pages"
}

// All enumerates every page in id order, loading them chunk by chunk so huge
// tables never materialize in a single query.
func (s pageSource) All() ([]models.UrlEntity, error) {
	var entities []models.UrlEntity
	afterID := uint(0)
	for {
		pages, err := s.repo.GetPagesChunk(afterID, sourceChunkSize)
		if err != nil {
			return nil, err
		}
		for i := range pages {
			entities = append(entities, &pages[i])
		}
		if len(pages) < sourceChunkSize {
			return entities, nil
		}
		afterID = pages[len(pages)-1].ID
	}
}
