package models

// HandlerDescriptor is what an owning entity declares about how its URLs are
// served: the registered handler name, the operation on it, and the static
// arguments stored alongside every generated record.
type HandlerDescriptor struct {
	Controller string
	Method     string
	Arguments  JSONMap
}

// UrlEntity is the contract an owning entity fulfils to get generated URLs.
// The lifecycle coordinator drives everything through this interface; it never
// needs to know the concrete entity type.
type UrlEntity interface {
	// EntityType is the stable type name stored in RelatedType (table name by
	// convention, e.g. "pages").
	EntityType() string

	// EntityID is the primary key stored in RelatedID.
	EntityID() uint

	// UrlStrategy computes the raw slug base text for a language/locale pair.
	// The returned string may contain path separators ("en/pages/about").
	UrlStrategy(language, locale string) string

	// UrlHandler describes the handler every generated record points at.
	UrlHandler() HandlerDescriptor

	// AutoGenerateUrls reports whether the create/update lifecycle hooks
	// should generate URLs for this instance. Entities can opt out and have
	// their URLs generated explicitly later (e.g. after a bulk import).
	AutoGenerateUrls() bool
}

// Scoped returns the uniqueness scope for an entity.
func Scoped(e UrlEntity) Scope {
	return Scope{EntityType: e.EntityType(), EntityID: e.EntityID()}
}
