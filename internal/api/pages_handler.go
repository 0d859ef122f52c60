package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vlados/unique-urls/internal/dispatch"
	apperrors "github.com/vlados/unique-urls/internal/errors"
	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/repository"
)

// PagesHandler serves generated page URLs through the dispatcher. Page
// records are stored with controller "pages" and method "view"; Show covers
// records whose method was emptied or renamed out from under them.
type PagesHandler struct {
	pageRepo repository.PageRepository
}

// NewPagesHandler creates and returns a new instance of PagesHandler.
func NewPagesHandler(pageRepo repository.PageRepository) *PagesHandler {
	return &PagesHandler{pageRepo: pageRepo}
}

// Method implements dispatch.MethodHandler.
func (h *PagesHandler) Method(name string) (dispatch.HandlerFunc, bool) {
	switch name {
	case "view":
		return h.view, true
	default:
		return nil, false
	}
}

// view renders the page identified by the record's arguments. The page id is
// read from the stored arguments, falling back to the injected owner
// reference for records created before page_id was stored.
func (h *PagesHandler) view(c *gin.Context, args models.JSONMap, url *models.Url) bool {
	id, ok := args.Uint("page_id")
	if !ok {
		id, ok = args.Uint(models.ArgRelatedID)
	}
	if !ok {
		return false
	}

	page, err := h.pageRepo.GetPageByID(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrPageNotFound) {
			return false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return true
	}

	language := dispatch.Language(c)
	c.JSON(http.StatusOK, gin.H{
		"id":       page.ID,
		"name":     page.Name.In(language),
		"language": language,
		"slug":     url.Slug,
	})
	return true
}

// Show implements dispatch.ShowHandler as a generic fallback.
func (h *PagesHandler) Show(c *gin.Context, args models.JSONMap) bool {
	id, ok := args.Uint("page_id")
	if !ok {
		id, ok = args.Uint(models.ArgRelatedID)
	}
	if !ok {
		return false
	}

	page, err := h.pageRepo.GetPageByID(id)
	if err != nil {
		return false
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   page.ID,
		"name": page.Name.In(dispatch.Language(c)),
	})
	return true
}
