package dispatch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vlados/unique-urls/internal/config"
	"github.com/vlados/unique-urls/internal/models"
	"github.com/vlados/unique-urls/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Url{}))
	return db
}

// recordingHandler implements every capability interface and records which
// entry point the dispatcher picked and what arguments it saw.
type recordingHandler struct {
	methods map[string]bool // named methods the handler exposes

	handled bool // return value of every entry point

	calledEntry  string
	calledMethod string
	seenArgs     models.JSONMap
	seenUrl      *models.Url
	seenLanguage string
}

func (h *recordingHandler) Invoke(c *gin.Context, args models.JSONMap) bool {
	h.calledEntry = "invoke"
	h.seenArgs = args
	h.seenLanguage = Language(c)
	c.Status(http.StatusOK)
	return h.handled
}

func (h *recordingHandler) Method(name string) (HandlerFunc, bool) {
	if !h.methods[name] {
		return nil, false
	}
	return func(c *gin.Context, args models.JSONMap, url *models.Url) bool {
		h.calledEntry = "method"
		h.calledMethod = name
		h.seenArgs = args
		h.seenUrl = url
		h.seenLanguage = Language(c)
		c.Status(http.StatusOK)
		return h.handled
	}, true
}

func (h *recordingHandler) Show(c *gin.Context, args models.JSONMap) bool {
	h.calledEntry = "show"
	h.seenArgs = args
	c.Status(http.StatusOK)
	return h.handled
}

func (h *recordingHandler) Index(c *gin.Context, args models.JSONMap) bool {
	h.calledEntry = "index"
	h.seenArgs = args
	c.Status(http.StatusOK)
	return h.handled
}

// indexOnlyHandler has no Show, so the dispatcher must fall through to Index.
type indexOnlyHandler struct {
	called bool
}

func (h *indexOnlyHandler) Index(c *gin.Context, args models.JSONMap) bool {
	h.called = true
	c.Status(http.StatusOK)
	return true
}

type dispatchEnv struct {
	router  *gin.Engine
	urlRepo repository.UrlRepository
	reg     *Registry
	cfg     *config.Config
}

func newDispatchEnv(t *testing.T) *dispatchEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	urlRepo := repository.NewUrlRepository(newTestDB(t), true)
	reg := NewRegistry()
	dispatcher := NewDispatcher(urlRepo, reg, cfg, zap.NewNop())

	router := gin.New()
	router.NoRoute(dispatcher.Handle)
	return &dispatchEnv{router: router, urlRepo: urlRepo, reg: reg, cfg: cfg}
}

func (e *dispatchEnv) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	e.router.ServeHTTP(w, req)
	return w
}

func (e *dispatchEnv) seed(t *testing.T, url *models.Url) {
	t.Helper()
	require.NoError(t, e.urlRepo.CreateUrl(url))
}

func ownedRecord(slug, controller, method string, entityID uint) *models.Url {
	entityType := "pages"
	return &models.Url{
		Slug:        slug,
		Controller:  controller,
		Method:      method,
		Arguments:   models.JSONMap{"page_id": entityID},
		Language:    "en",
		RelatedType: &entityType,
		RelatedID:   &entityID,
	}
}

func TestDispatch_NamedMethod(t *testing.T) {
	env := newDispatchEnv(t)
	handler := &recordingHandler{methods: map[string]bool{"view": true}, handled: true}
	env.reg.Register("pages", handler)
	env.seed(t, ownedRecord("en/pages/about", "pages", "view", 7))

	w := env.get("/en/pages/about")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "method", handler.calledEntry)
	assert.Equal(t, "view", handler.calledMethod)
	assert.Equal(t, "en", handler.seenLanguage)

	// The owner reference is injected next to the stored arguments.
	relatedType, ok := handler.seenArgs.String(models.ArgRelatedType)
	require.True(t, ok)
	assert.Equal(t, "pages", relatedType)
	relatedID, ok := handler.seenArgs.Uint(models.ArgRelatedID)
	require.True(t, ok)
	assert.EqualValues(t, 7, relatedID)
	pageID, ok := handler.seenArgs.Uint("page_id")
	require.True(t, ok)
	assert.EqualValues(t, 7, pageID)

	// The matched record is handed to the method as-is.
	require.NotNil(t, handler.seenUrl)
	assert.Equal(t, "en/pages/about", handler.seenUrl.Slug)
}

func TestDispatch_ArgumentInjectionDoesNotMutateRecord(t *testing.T) {
	env := newDispatchEnv(t)
	handler := &recordingHandler{methods: map[string]bool{"view": true}, handled: true}
	env.reg.Register("pages", handler)
	env.seed(t, ownedRecord("en/pages/about", "pages", "view", 7))

	env.get("/en/pages/about")

	// The handler saw the injected owner reference, but the matched record
	// itself keeps only its stored payload: injection works on a copy.
	_, hasInjected := handler.seenArgs[models.ArgRelatedType]
	assert.True(t, hasInjected)
	require.NotNil(t, handler.seenUrl)
	_, leaked := handler.seenUrl.Arguments[models.ArgRelatedType]
	assert.False(t, leaked)
}

func TestDispatch_EmptyMethodPrefersInvokable(t *testing.T) {
	env := newDispatchEnv(t)
	handler := &recordingHandler{handled: true}
	env.reg.Register("widget", handler)
	env.seed(t, &models.Url{
		Slug:       "en/widget",
		Controller: "widget",
		Method:     "",
		Arguments:  models.JSONMap{"widget_id": 3},
		Language:   "en",
	})

	w := env.get("/en/widget")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "invoke", handler.calledEntry)
	assert.Equal(t, "en", handler.seenLanguage)
}

func TestDispatch_UnknownMethodFallsBackToShow(t *testing.T) {
	env := newDispatchEnv(t)
	handler := &recordingHandler{methods: map[string]bool{"view": true}, handled: true}
	env.reg.Register("pages", handler)
	env.seed(t, ownedRecord("en/pages/about", "pages", "missing", 1))

	w := env.get("/en/pages/about")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "show", handler.calledEntry)
}

func TestDispatch_IndexIsLastFallback(t *testing.T) {
	env := newDispatchEnv(t)
	handler := &indexOnlyHandler{}
	env.reg.Register("pages", handler)
	env.seed(t, ownedRecord("en/pages/about", "pages", "missing", 1))

	w := env.get("/en/pages/about")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, handler.called)
}

func TestDispatch_FalsyHandlerReturnIs404(t *testing.T) {
	env := newDispatchEnv(t)
	handler := &recordingHandler{methods: map[string]bool{"view": true}, handled: false}
	env.reg.Register("pages", handler)
	env.seed(t, ownedRecord("en/pages/about", "pages", "view", 1))

	w := env.get("/en/pages/about")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "method", handler.calledEntry, "the method ran, then declined the request")
}

func TestDispatch_UnknownSlug404(t *testing.T) {
	env := newDispatchEnv(t)

	w := env.get("/does/not/exist")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not found")
}

func TestDispatch_UnregisteredController404(t *testing.T) {
	env := newDispatchEnv(t)
	env.seed(t, ownedRecord("en/pages/about", "ghost", "view", 1))

	w := env.get("/en/pages/about")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatch_ExactMatchOnly(t *testing.T) {
	env := newDispatchEnv(t)
	handler := &recordingHandler{methods: map[string]bool{"view": true}, handled: true}
	env.reg.Register("pages", handler)
	env.seed(t, ownedRecord("en/pages/about", "pages", "view", 1))

	// Surrounding slashes are normalized away, nothing else is.
	assert.Equal(t, http.StatusOK, env.get("/en/pages/about/").Code)
	assert.Equal(t, http.StatusNotFound, env.get("/en/pages/abou").Code)
	assert.Equal(t, http.StatusNotFound, env.get("/en/pages/about/extra").Code)
	assert.Equal(t, http.StatusNotFound, env.get("/en/pages").Code)
}

func TestDispatch_RedirectReplay(t *testing.T) {
	env := newDispatchEnv(t)
	handler := &recordingHandler{methods: map[string]bool{"view": true}, handled: true}
	env.reg.Register("pages", handler)

	live := ownedRecord("en/pages/old", "pages", "view", 1)
	env.seed(t, live)
	require.NoError(t, env.urlRepo.UpdateSlug(live, "en/pages/new"))

	w := env.get("/en/pages/old")
	assert.Equal(t, http.StatusMovedPermanently, w.Code)
	assert.Equal(t, "/en/pages/new", w.Header().Get("Location"))
}

func TestDispatch_RedirectStatusConfigurable(t *testing.T) {
	env := newDispatchEnv(t)
	env.cfg.Urls.RedirectHTTPCode = http.StatusFound

	live := ownedRecord("en/pages/old", "pages", "view", 1)
	env.seed(t, live)
	require.NoError(t, env.urlRepo.UpdateSlug(live, "en/pages/new"))

	w := env.get("/en/pages/old")
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestDispatch_RedirectChainCollapsesToSingleHop(t *testing.T) {
	env := newDispatchEnv(t)

	live := ownedRecord("en/pages/v1", "pages", "view", 1)
	env.seed(t, live)
	require.NoError(t, env.urlRepo.UpdateSlug(live, "en/pages/v2"))
	require.NoError(t, env.urlRepo.UpdateSlug(live, "en/pages/v3"))
	require.NoError(t, env.urlRepo.UpdateSlug(live, "en/pages/v4"))

	// Every historical slug answers with the current one directly; no
	// marker ever points at another marker's slug at replay time.
	for _, old := range []string{"en/pages/v1", "en/pages/v2", "en/pages/v3"} {
		w := env.get("/" + old)
		assert.Equal(t, http.StatusMovedPermanently, w.Code, old)
		assert.Equal(t, "/en/pages/v4", w.Header().Get("Location"), old)
	}
}

func TestDispatch_RedirectToDeletedEntityIs404(t *testing.T) {
	env := newDispatchEnv(t)

	live := ownedRecord("en/pages/old", "pages", "view", 1)
	env.seed(t, live)
	require.NoError(t, env.urlRepo.UpdateSlug(live, "en/pages/new"))
	require.NoError(t, env.urlRepo.DeleteAllForEntity("pages", 1))

	w := env.get("/en/pages/old")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDispatch_CurrentUrlPublishedOnlyOnSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := config.Default()
	urlRepo := repository.NewUrlRepository(newTestDB(t), true)
	reg := NewRegistry()
	dispatcher := NewDispatcher(urlRepo, reg, cfg, zap.NewNop())

	// The middleware observes the holder after dispatch finished, the way a
	// logging or template layer would.
	var capturedUrl *models.Url
	var capturedLanguage string
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Next()
		capturedUrl = CurrentUrl(c)
		capturedLanguage = Language(c)
	})
	router.NoRoute(dispatcher.Handle)
	env := &dispatchEnv{router: router, urlRepo: urlRepo, reg: reg, cfg: cfg}

	accepting := &recordingHandler{methods: map[string]bool{"view": true}, handled: true}
	declining := &recordingHandler{methods: map[string]bool{"view": true}, handled: false}
	env.reg.Register("pages", accepting)
	env.reg.Register("declined", declining)

	env.seed(t, ownedRecord("en/pages/served", "pages", "view", 1))
	declined := ownedRecord("en/pages/declined", "declined", "view", 2)
	env.seed(t, declined)
	env.seed(t, ownedRecord("en/pages/ghost", "unregistered", "view", 3))
	renamed := ownedRecord("en/pages/before", "pages", "view", 4)
	env.seed(t, renamed)
	require.NoError(t, env.urlRepo.UpdateSlug(renamed, "en/pages/after"))

	// Successful dispatch publishes the record and its language.
	env.get("/en/pages/served")
	require.NotNil(t, capturedUrl)
	assert.Equal(t, "en/pages/served", capturedUrl.Slug)
	assert.Equal(t, "en", capturedLanguage)

	// A declined request keeps the language active but publishes no record.
	env.get("/en/pages/declined")
	assert.Nil(t, capturedUrl)
	assert.Equal(t, "en", capturedLanguage)

	// Same for an unregistered controller and for a redirect replay.
	env.get("/en/pages/ghost")
	assert.Nil(t, capturedUrl)
	env.get("/en/pages/before")
	assert.Nil(t, capturedUrl)
	assert.Equal(t, "en", capturedLanguage)

	// An unmatched path sets nothing at all.
	env.get("/nothing/here")
	assert.Nil(t, capturedUrl)
	assert.Empty(t, capturedLanguage)
}

func TestRegistry_ReplaceAndResolve(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Resolve("pages")
	assert.False(t, ok)

	first := &recordingHandler{}
	second := &recordingHandler{}
	reg.Register("pages", first)
	reg.Register("pages", second)

	resolved, ok := reg.Resolve("pages")
	require.True(t, ok)
	assert.Same(t, second, resolved)
}
