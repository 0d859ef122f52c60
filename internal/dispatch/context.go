package dispatch

import (
	"github.com/gin-gonic/gin"

	"github.com/vlados/unique-urls/internal/models"
)

// Gin context keys for per-request shared data.
const (
	currentUrlKey = "unique_urls.current"
	languageKey   = "unique_urls.language"
)

// CurrentUrl returns the URL record that served the current request, so
// later layers (templates, middlewares) can read which URL and entity
// matched without re-querying. Nil unless a handler accepted the request:
// redirects and requests the handler declined never publish a record.
func CurrentUrl(c *gin.Context) *models.Url {
	value, ok := c.Get(currentUrlKey)
	if !ok {
		return nil
	}
	url, _ := value.(*models.Url)
	return url
}

// Language returns the active request language set by the dispatcher, or the
// empty string when no record matched.
func Language(c *gin.Context) string {
	value, ok := c.Get(languageKey)
	if !ok {
		return ""
	}
	language, _ := value.(string)
	return language
}

func setLanguage(c *gin.Context, language string) {
	c.Set(languageKey, language)
}

func setCurrent(c *gin.Context, url *models.Url) {
	c.Set(currentUrlKey, url)
}
