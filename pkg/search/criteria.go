package search

import (
	"net/url"
	"strings"

	"github.com/castlegateit/memberdir/pkg/hooks"
	"github.com/castlegateit/memberdir/pkg/schema"
)

// DefaultAttributePrefix marks request parameters carrying attribute filters.
const DefaultAttributePrefix = "meta_"

// Criteria is the structured search filter extracted from raw request
// parameters. Zero values mean "no filter on that dimension".
type Criteria struct {
	// Term is the free-text search term. Empty means no term filter.
	Term string

	// Field scopes the term filter to a single column. Empty means the
	// term applies to the synthesized all_fields column.
	Field string

	// Initial is the single lower-case last-name initial. Empty means no
	// initial filter.
	Initial string

	// Attributes maps attribute keys to accepted value lists. Every key is
	// a member of the schema's non-reserved attribute keys; every list is
	// non-empty.
	Attributes map[string][]string
}

// ParseCriteria extracts search criteria from request parameters. Parsing is
// pure and never fails: malformed or unknown parameters degrade to absent
// filters. Each extracted value passes through its extension point.
func ParseCriteria(params url.Values, registry *schema.Registry, h *hooks.Search) Criteria {
	if h == nil {
		h = &hooks.Search{}
	}
	if params == nil {
		params = url.Values{}
	}

	return Criteria{
		Term:       extractTerm(params, h),
		Field:      extractField(params, h),
		Initial:    extractInitial(params, h),
		Attributes: AttributeFilters(params, registry, h),
	}
}

func extractTerm(params url.Values, h *hooks.Search) string {
	if !params.Has("term") {
		return ""
	}
	return h.Term.Apply(params.Get("term"))
}

func extractField(params url.Values, h *hooks.Search) string {
	if !params.Has("field") {
		return ""
	}
	return h.Field.Apply(params.Get("field"))
}

func extractInitial(params url.Values, h *hooks.Search) string {
	if !params.Has("initial") {
		return ""
	}

	initial := strings.ToLower(firstRune(params.Get("initial")))

	return h.Initial.Apply(initial)
}

func firstRune(s string) string {
	for _, r := range s {
		return string(r)
	}
	return ""
}

// AttributeFilters extracts the attribute-filter map from raw parameters: a
// parameter is accepted when its name is exactly the attribute prefix
// followed by exactly a known attribute key. Scalar values become
// single-element lists; keys with no values are absent. Exposed separately
// so callers can derive the filter map without running a search.
func AttributeFilters(params url.Values, registry *schema.Registry, h *hooks.Search) map[string][]string {
	if h == nil {
		h = &hooks.Search{}
	}

	prefix := h.AttributePrefix.Apply(DefaultAttributePrefix)
	filters := make(map[string][]string)

	for name, values := range params {
		key, ok := strings.CutPrefix(name, prefix)
		if !ok || !registry.HasAttribute(key) {
			continue
		}
		if len(values) == 0 {
			continue
		}
		filters[key] = append([]string(nil), values...)
	}

	return h.Attributes.Apply(filters)
}
