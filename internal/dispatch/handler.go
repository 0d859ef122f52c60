// Package dispatch resolves inbound request paths to stored URL records and
// invokes the registered handler for the matched record. Handler abilities
// are expressed as small capability interfaces; the dispatch path never
// reflects over handler types.
package dispatch

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vlados/unique-urls/internal/models"
)

// HandlerFunc serves one named operation of a handler. It returns true when
// the request was handled; false means "did not handle" and the dispatcher
// answers 404 even though the method existed.
type HandlerFunc func(c *gin.Context, args models.JSONMap, url *models.Url) bool

// Invokable is the default entry point for handlers dispatched with the
// empty-string method sentinel (component-style handlers with a single
// operation). Arguments are injected as if they were route parameters.
type Invokable interface {
	Invoke(c *gin.Context, args models.JSONMap) bool
}

// MethodHandler exposes named operations. Method returns ok=false for names
// the handler does not implement, which makes the dispatcher fall through to
// the Show/Index fallbacks.
type MethodHandler interface {
	Method(name string) (HandlerFunc, bool)
}

// ShowHandler is the first generic fallback when the stored method name is
// not exposed by the handler.
type ShowHandler interface {
	Show(c *gin.Context, args models.JSONMap) bool
}

// IndexHandler is the last fallback before giving up with 404.
type IndexHandler interface {
	Index(c *gin.Context, args models.JSONMap) bool
}

// Registry maps the controller names stored on URL records to handler
// instances. Registration happens at startup; lookups are concurrent.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]any
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]any)}
}

// Register binds a handler instance to a controller name. Registering the
// same name twice replaces the previous handler.
func (r *Registry) Register(name string, handler any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Resolve returns the handler registered under name.
func (r *Registry) Resolve(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[name]
	return handler, ok
}
