package repository

import (
	"errors"
	"fmt"

	apperrors "github.com/vlados/unique-urls/internal/errors"
	"github.com/vlados/unique-urls/internal/models"
	"gorm.io/gorm"
)

// UrlRepository est une interface qui définit les méthodes d'accès aux données
// pour les enregistrements d'URL.
type UrlRepository interface {
	CreateUrl(url *models.Url) error
	CreateUrls(urls []models.Url) error
	FindBySlug(slug string) (*models.Url, error)
	FindByEntity(entityType string, entityID uint) ([]models.Url, error)
	FindByEntityType(entityType string) ([]models.Url, error)
	FindLiveByEntity(entityType string, entityID uint, language string) (*models.Url, error)
	ExistsOtherWithSlug(slug string, scope models.Scope) (bool, error)
	UpdateSlug(url *models.Url, newSlug string) error
	DeleteAllForEntity(entityType string, entityID uint) error
	HasUrls(entityType string, entityID uint) (bool, error)
	DuplicateSlugs() ([]string, error)
	OrphanRedirects() (int64, error)
	CountAll() (int64, error)
	Truncate() error
	DeleteForEntityType(entityType string) (int64, error)
}

// GormUrlRepository est l'implémentation de UrlRepository utilisant GORM.
type GormUrlRepository struct {
	db *gorm.DB

	// createRedirects mirrors urls.create_redirects: when false, a slug
	// change updates the live record without leaving a marker behind.
	createRedirects bool
}

// NewUrlRepository crée et retourne une nouvelle instance de GormUrlRepository.
func NewUrlRepository(db *gorm.DB, createRedirects bool) *GormUrlRepository {
	return &GormUrlRepository{db: db, createRedirects: createRedirects}
}

// CreateUrl insère un nouvel enregistrement d'URL dans la base de données.
// The slug must already have gone through the uniqueness check.
func (r *GormUrlRepository) CreateUrl(url *models.Url) error {
	if err := r.db.Create(url).Error; err != nil {
		return fmt.Errorf("failed to create url record: %w", err)
	}
	return nil
}

// CreateUrls insère un lot d'enregistrements en une seule opération.
func (r *GormUrlRepository) CreateUrls(urls []models.Url) error {
	if len(urls) == 0 {
		return nil
	}
	if err := r.db.Create(&urls).Error; err != nil {
		return fmt.Errorf("failed to create url records: %w", err)
	}
	return nil
}

// FindBySlug récupère un enregistrement par correspondance exacte du slug.
func (r *GormUrlRepository) FindBySlug(slug string) (*models.Url, error) {
	var url models.Url
	if err := r.db.Where("slug = ?", slug).First(&url).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUrlNotFound
		}
		return nil, fmt.Errorf("failed to find url by slug: %w", err)
	}
	return &url, nil
}

// FindByEntity récupère tous les enregistrements vivants appartenant à une entité.
func (r *GormUrlRepository) FindByEntity(entityType string, entityID uint) ([]models.Url, error) {
	var urls []models.Url
	err := r.db.
		Where("related_type = ? AND related_id = ?", entityType, entityID).
		Order("id").
		Find(&urls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find urls for %s(%d): %w", entityType, entityID, err)
	}
	return urls, nil
}

// FindByEntityType récupère tous les enregistrements vivants d'un type d'entité.
func (r *GormUrlRepository) FindByEntityType(entityType string) ([]models.Url, error) {
	var urls []models.Url
	err := r.db.
		Where("related_type = ?", entityType).
		Order("id").
		Find(&urls).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find urls for type %s: %w", entityType, err)
	}
	return urls, nil
}

// FindLiveByEntity récupère l'enregistrement vivant d'une entité pour une langue.
// Redirect replay uses it to resolve the current slug in a single hop.
func (r *GormUrlRepository) FindLiveByEntity(entityType string, entityID uint, language string) (*models.Url, error) {
	var url models.Url
	err := r.db.
		Where("related_type = ? AND related_id = ? AND language = ?", entityType, entityID, language).
		First(&url).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUrlNotFound
		}
		return nil, fmt.Errorf("failed to find live url for %s(%d): %w", entityType, entityID, err)
	}
	return &url, nil
}

// ExistsOtherWithSlug teste si un slug candidat est déjà réservé.
// A row blocks the candidate when it carries the same slug and either belongs
// to a different owner or has no owner at all (orphan/redirect rows still
// reserve their slug). The requesting entity's own row never blocks, so an
// update back to a previous slug is not self-blocked.
func (r *GormUrlRepository) ExistsOtherWithSlug(slug string, scope models.Scope) (bool, error) {
	var count int64
	err := r.db.Model(&models.Url{}).
		Where("slug = ?", slug).
		Where(
			r.db.Where("related_type IS NULL AND related_id IS NULL").
				Or("related_type <> ? OR related_id <> ?", scope.EntityType, scope.EntityID),
		).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check slug availability: %w", err)
	}
	return count > 0, nil
}

// UpdateSlug applique un changement de slug sur un enregistrement vivant.
// No-op when the slug is unchanged. Otherwise the live record takes the new
// slug and a redirect marker keeps the old one, so existing links stay valid.
// Both writes happen in one transaction; the live record is updated first
// because the unique index on slug would reject the marker while the old
// value is still held.
func (r *GormUrlRepository) UpdateSlug(url *models.Url, newSlug string) error {
	if url.Slug == newSlug {
		return nil
	}

	oldSlug := url.Slug
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(url).Update("slug", newSlug).Error; err != nil {
			return err
		}
		if !r.createRedirects {
			return nil
		}

		var relatedType string
		var relatedID uint
		if t, id, ok := url.Owner(); ok {
			relatedType, relatedID = t, id
		}
		marker := models.Url{
			Slug:       oldSlug,
			Controller: models.RedirectController,
			Method:     models.RedirectMethod,
			Language:   url.Language,
			Arguments: models.JSONMap{
				models.ArgOriginalType: relatedType,
				models.ArgOriginalID:   relatedID,
				models.ArgRedirectTo:   newSlug,
			},
		}
		return tx.Create(&marker).Error
	})
	if err != nil {
		// GORM assigns the updated value to the struct before the statement
		// runs; put the old slug back so a retry sees the real state.
		url.Slug = oldSlug
		return fmt.Errorf("failed to update slug %q -> %q: %w", oldSlug, newSlug, err)
	}
	return nil
}

// DeleteAllForEntity supprime tous les enregistrements appartenant à une entité.
// Redirect markers the entity spawned have no owner and are left untouched.
func (r *GormUrlRepository) DeleteAllForEntity(entityType string, entityID uint) error {
	err := r.db.
		Where("related_type = ? AND related_id = ?", entityType, entityID).
		Delete(&models.Url{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete urls for %s(%d): %w", entityType, entityID, err)
	}
	return nil
}

// HasUrls teste si une entité possède déjà au moins un enregistrement.
func (r *GormUrlRepository) HasUrls(entityType string, entityID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Url{}).
		Where("related_type = ? AND related_id = ?", entityType, entityID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to count urls for %s(%d): %w", entityType, entityID, err)
	}
	return count > 0, nil
}

// DuplicateSlugs retourne les slugs présents plus d'une fois (ne devrait
// jamais arriver grâce à l'index unique; vérifié par le doctor).
func (r *GormUrlRepository) DuplicateSlugs() ([]string, error) {
	var slugs []string
	err := r.db.Model(&models.Url{}).
		Select("slug").
		Group("slug").
		Having("COUNT(*) > 1").
		Scan(&slugs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list duplicate slugs: %w", err)
	}
	return slugs, nil
}

// OrphanRedirects compte les marqueurs de redirection sans propriétaire.
func (r *GormUrlRepository) OrphanRedirects() (int64, error) {
	var count int64
	err := r.db.Model(&models.Url{}).
		Where("related_type IS NULL AND related_id IS NULL").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count orphan redirects: %w", err)
	}
	return count, nil
}

// CountAll retourne le nombre total d'enregistrements d'URL.
func (r *GormUrlRepository) CountAll() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Url{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count urls: %w", err)
	}
	return count, nil
}

// Truncate vide la table des URLs (utilisé par 'urls generate --fresh').
func (r *GormUrlRepository) Truncate() error {
	if err := r.db.Where("1 = 1").Delete(&models.Url{}).Error; err != nil {
		return fmt.Errorf("failed to truncate urls: %w", err)
	}
	return nil
}

// DeleteForEntityType supprime tous les enregistrements d'un type d'entité.
func (r *GormUrlRepository) DeleteForEntityType(entityType string) (int64, error) {
	res := r.db.Where("related_type = ?", entityType).Delete(&models.Url{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete urls for type %s: %w", entityType, res.Error)
	}
	return res.RowsAffected, nil
}
