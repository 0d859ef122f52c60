package dispatch

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vlados/unique-urls/internal/config"
	apperrors "github.com/vlados/unique-urls/internal/errors"
	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/repository"
)

// Dispatcher resolves an inbound path to a stored URL record and invokes the
// matching handler. It is mounted as the router's NoRoute handler, so
// explicit API routes keep priority over generated URLs.
type Dispatcher struct {
	urlRepo  repository.UrlRepository
	registry *Registry
	cfg      *config.Config
	log      *zap.Logger
}

// NewDispatcher creates and returns a new instance of Dispatcher.
func NewDispatcher(urlRepo repository.UrlRepository, registry *Registry, cfg *config.Config, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		urlRepo:  urlRepo,
		registry: registry,
		cfg:      cfg,
		log:      log,
	}
}

// Handle treats the request path, trimmed of surrounding slashes, as an
// exact slug key. No pattern or prefix matching: either a record holds
// exactly this slug, or the request is a 404.
func (d *Dispatcher) Handle(c *gin.Context) {
	slug := strings.Trim(c.Request.URL.Path, "/")

	record, err := d.urlRepo.FindBySlug(slug)
	if err != nil {
		d.notFound(c)
		return
	}

	// Activate the record's language before any handler code runs. The
	// record itself is only published once a handler accepted the request.
	setLanguage(c, record.Language)

	if record.IsRedirect() {
		d.replayRedirect(c, record)
		return
	}

	handler, ok := d.registry.Resolve(record.Controller)
	if !ok {
		d.log.Warn("url record names an unregistered handler",
			zap.String("slug", record.Slug),
			zap.String("controller", record.Controller),
		)
		d.notFound(c)
		return
	}

	if d.call(c, handler, record) {
		setCurrent(c, record)
		return
	}
	d.notFound(c)
}

// call picks the handler entry point for the record and invokes it. The
// resolution order is a fixed priority list; once an entry point is chosen,
// a false return means "did not handle" and falls through to 404 rather than
// trying the next entry point.
func (d *Dispatcher) call(c *gin.Context, handler any, record *models.Url) bool {
	args := record.Arguments.Clone()

	// 1. Component-style handlers: empty method sentinel plus Invokable.
	if record.Method == "" {
		if invokable, ok := handler.(Invokable); ok {
			return invokable.Invoke(c, args)
		}
	}

	// The named-method and fallback calls all see the owner reference.
	if relatedType, relatedID, ok := record.Owner(); ok {
		args[models.ArgRelatedType] = relatedType
		args[models.ArgRelatedID] = relatedID
	}

	// 2. Named method.
	if record.Method != "" {
		if methodHandler, ok := handler.(MethodHandler); ok {
			if fn, ok := methodHandler.Method(record.Method); ok {
				return fn(c, args, record)
			}
		}
	}

	// 3. Generic show fallback.
	if showHandler, ok := handler.(ShowHandler); ok {
		return showHandler.Show(c, args)
	}

	// 4. Generic index fallback.
	if indexHandler, ok := handler.(IndexHandler); ok {
		return indexHandler.Index(c, args)
	}

	return false
}

// replayRedirect answers a request for a superseded slug. The marker's
// arguments identify the original entity; its current live record for the
// marker's language is looked up fresh, so any chain of historical slugs
// resolves to the current one in a single hop.
func (d *Dispatcher) replayRedirect(c *gin.Context, record *models.Url) {
	originalType, okType := record.Arguments.String(models.ArgOriginalType)
	originalID, okID := record.Arguments.Uint(models.ArgOriginalID)
	if !okType || !okID || originalType == "" {
		d.log.Warn("redirect marker with malformed arguments", zap.String("slug", record.Slug))
		d.notFound(c)
		return
	}

	live, err := d.urlRepo.FindLiveByEntity(originalType, originalID, record.Language)
	if err != nil {
		if !errors.Is(err, apperrors.ErrUrlNotFound) {
			d.log.Error("redirect target lookup failed", zap.String("slug", record.Slug), zap.Error(err))
		}
		d.notFound(c)
		return
	}

	status := d.cfg.Urls.RedirectHTTPCode
	if status == 0 {
		status = http.StatusMovedPermanently
	}
	c.Redirect(status, "/"+live.Slug)
}

func (d *Dispatcher) notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}
