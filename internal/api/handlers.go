package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vlados/unique-urls/internal/config"
	"github.com/vlados/unique-urls/internal/dispatch"
	apperrors "github.com/vlados/unique-urls/internal/errors"
	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/services"
)

// SetupRoutes configures all Gin API routes and injects necessary dependencies.
// The explicit API lives under /api/v1; everything else falls through to the
// dispatcher, which resolves the path against the stored URL records.
func SetupRoutes(
	router *gin.Engine,
	pageService *services.PageService,
	urlService *services.UrlService,
	dispatcher *dispatch.Dispatcher,
	cfg *config.Config,
	log *zap.Logger,
) {
	// Health check route, used for monitoring service availability.
	router.GET("/health", HealthCheckHandler)

	api := router.Group("/api/v1")
	{
		api.POST("/pages", CreatePageHandler(pageService, urlService, cfg, log))
		api.GET("/pages", ListPagesHandler(pageService, urlService, cfg, log))
		api.GET("/pages/:id", GetPageHandler(pageService, urlService, cfg))
		api.PUT("/pages/:id", RenamePageHandler(pageService, urlService, cfg, log))
		api.DELETE("/pages/:id", DeletePageHandler(pageService, log))
	}

	// Every path that is not an explicit route is a candidate slug.
	router.NoRoute(dispatcher.Handle)
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// CreatePageRequest represents the JSON request body for creating a page.
// Name maps language codes to the translated page name; AutoUrls defaults to
// true and can be disabled to defer URL generation to a batch run.
type CreatePageRequest struct {
	Name     models.Translations `json:"name" binding:"required"`
	AutoUrls *bool               `json:"auto_urls"`
}

// PageResponse represents a page with its generated URLs per language.
type PageResponse struct {
	ID   uint                `json:"id"`
	Name models.Translations `json:"name"`
	Urls map[string]PageUrls `json:"urls"`
}

// PageUrls carries the relative and absolute URL for one language. Both are
// empty strings when no record exists for that language.
type PageUrls struct {
	Relative string `json:"relative"`
	Absolute string `json:"absolute"`
}

func pageResponse(page *models.Page, urlService *services.UrlService, cfg *config.Config) PageResponse {
	urls := make(map[string]PageUrls, len(cfg.Urls.Languages))
	for _, pair := range cfg.Urls.Languages {
		urls[pair.Code] = PageUrls{
			Relative: urlService.RelativeUrl(page, pair.Code),
			Absolute: urlService.AbsoluteUrl(page, pair.Code),
		}
	}
	return PageResponse{ID: page.ID, Name: page.Name, Urls: urls}
}

// CreatePageHandler handles the creation of a page and its URL records.
func CreatePageHandler(pageService *services.PageService, urlService *services.UrlService, cfg *config.Config, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreatePageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		autoUrls := true
		if req.AutoUrls != nil {
			autoUrls = *req.AutoUrls
		}

		page, err := pageService.CreatePage(req.Name, autoUrls)
		if err != nil {
			var emptySlug apperrors.EmptySlugError
			var invalidSlug apperrors.InvalidSlugError
			if errors.As(err, &emptySlug) || errors.As(err, &invalidSlug) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			log.Error("failed to create page", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create page"})
			return
		}

		c.JSON(http.StatusCreated, pageResponse(page, urlService, cfg))
	}
}

// ListPagesHandler returns every page with its generated URLs.
func ListPagesHandler(pageService *services.PageService, urlService *services.UrlService, cfg *config.Config, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		pages, err := pageService.ListPages()
		if err != nil {
			log.Error("failed to list pages", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list pages"})
			return
		}

		responses := make([]PageResponse, len(pages))
		for i := range pages {
			responses[i] = pageResponse(&pages[i], urlService, cfg)
		}
		c.JSON(http.StatusOK, gin.H{"pages": responses, "count": len(responses)})
	}
}

// GetPageHandler returns a page and its generated URLs.
func GetPageHandler(pageService *services.PageService, urlService *services.UrlService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page id"})
			return
		}

		page, err := pageService.GetPage(id)
		if err != nil {
			if errors.Is(err, apperrors.ErrPageNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, pageResponse(page, urlService, cfg))
	}
}

// RenamePageRequest represents the JSON request body for renaming a page.
type RenamePageRequest struct {
	Name models.Translations `json:"name" binding:"required"`
}

// RenamePageHandler changes a page's translated names. When the computed
// slug changes, the old slug keeps answering through a redirect marker.
func RenamePageHandler(pageService *services.PageService, urlService *services.UrlService, cfg *config.Config, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page id"})
			return
		}

		var req RenamePageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
			return
		}

		page, err := pageService.RenamePage(id, req.Name)
		if err != nil {
			if errors.Is(err, apperrors.ErrPageNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
				return
			}
			var emptySlug apperrors.EmptySlugError
			var invalidSlug apperrors.InvalidSlugError
			if errors.As(err, &emptySlug) || errors.As(err, &invalidSlug) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			log.Error("failed to rename page", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rename page"})
			return
		}

		c.JSON(http.StatusOK, pageResponse(page, urlService, cfg))
	}
}

// DeletePageHandler deletes a page and cascades to its URL records.
func DeletePageHandler(pageService *services.PageService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page id"})
			return
		}

		if err := pageService.DeletePage(id); err != nil {
			if errors.Is(err, apperrors.ErrPageNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
				return
			}
			log.Error("failed to delete page", zap.Uint("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete page"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"deleted": id})
	}
}

func parseID(c *gin.Context) (uint, error) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
