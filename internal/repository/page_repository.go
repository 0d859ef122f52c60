package repository

import (
	"errors"
	"fmt"

	apperrors "github.com/vlados/unique-urls/internal/errors"
	"github.com/vlados/unique-urls/internal/models"
	"gorm.io/gorm"
)

// PageRepository est une interface qui définit les méthodes d'accès aux données
// pour les pages.
type PageRepository interface {
	CreatePage(page *models.Page) error
	GetPageByID(id uint) (*models.Page, error)
	GetAllPages() ([]models.Page, error)
	GetPagesChunk(afterID uint, limit int) ([]models.Page, error)
	UpdatePage(page *models.Page) error
	DeletePage(page *models.Page) error
}

// GormPageRepository est l'implémentation de PageRepository utilisant GORM.
type GormPageRepository struct {
	db *gorm.DB
}

// NewPageRepository crée et retourne une nouvelle instance de GormPageRepository.
func NewPageRepository(db *gorm.DB) *GormPageRepository {
	return &GormPageRepository{db: db}
}

// CreatePage insère une nouvelle page dans la base de données.
func (r *GormPageRepository) CreatePage(page *models.Page) error {
	if err := r.db.Create(page).Error; err != nil {
		return fmt.Errorf("failed to create page: %w", err)
	}
	return nil
}

// GetPageByID récupère une page par sa clé primaire.
func (r *GormPageRepository) GetPageByID(id uint) (*models.Page, error) {
	var page models.Page
	if err := r.db.First(&page, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPageNotFound
		}
		return nil, fmt.Errorf("failed to find page %d: %w", id, err)
	}
	return &page, nil
}

// GetAllPages récupère toutes les pages de la base de données.
func (r *GormPageRepository) GetAllPages() ([]models.Page, error) {
	var pages []models.Page
	if err := r.db.Order("id").Find(&pages).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve all pages: %w", err)
	}
	return pages, nil
}

// GetPagesChunk récupère un lot de pages après un ID donné, pour le
// traitement par morceaux des grandes tables.
func (r *GormPageRepository) GetPagesChunk(afterID uint, limit int) ([]models.Page, error) {
	var pages []models.Page
	err := r.db.Where("id > ?", afterID).Order("id").Limit(limit).Find(&pages).Error
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve pages chunk: %w", err)
	}
	return pages, nil
}

// UpdatePage persiste les modifications d'une page existante.
func (r *GormPageRepository) UpdatePage(page *models.Page) error {
	if err := r.db.Save(page).Error; err != nil {
		return fmt.Errorf("failed to update page %d: %w", page.ID, err)
	}
	return nil
}

// DeletePage supprime une page de la base de données.
func (r *GormPageRepository) DeletePage(page *models.Page) error {
	if err := r.db.Delete(page).Error; err != nil {
		return fmt.Errorf("failed to delete page %d: %w", page.ID, err)
	}
	return nil
}
