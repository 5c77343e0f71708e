package hooks

// Filter rewrites a value at an extension point. Filters must be pure: same
// input, same output, no side effects.
type Filter[T any] func(T) T

// Point is a single named extension point holding an ordered filter chain.
// The zero value is ready to use and applies no transformation.
type Point[T any] struct {
	filters []Filter[T]
}

// Register appends a filter to the chain. Filters run in registration order.
func (p *Point[T]) Register(f Filter[T]) {
	if f == nil {
		return
	}
	p.filters = append(p.filters, f)
}

// Apply runs the value through every registered filter in order.
func (p *Point[T]) Apply(value T) T {
	for _, f := range p.filters {
		value = f(value)
	}
	return value
}

// Len returns the number of registered filters.
func (p *Point[T]) Len() int {
	return len(p.filters)
}

// Search holds the extension points consumed by the criteria parser and the
// search orchestrator.
type Search struct {
	// Term rewrites the free-text search term.
	Term Point[string]

	// Field rewrites the column name the term is scoped to.
	Field Point[string]

	// Initial rewrites the last-name initial.
	Initial Point[string]

	// Attributes rewrites the extracted attribute-filter map.
	Attributes Point[map[string][]string]

	// AttributePrefix rewrites the request-parameter prefix used to mark
	// attribute filters (default "meta_").
	AttributePrefix Point[string]
}

// Pagination holds the extension points consumed by the pagination engine.
type Pagination struct {
	// PageKey rewrites the request parameter carrying the page number.
	PageKey Point[string]

	// PerPage rewrites the page size.
	PerPage Point[int]

	// URLs rewrites the page-number-to-URL map.
	URLs Point[map[int]string]

	// Links rewrites the rendered navigation elements before assembly.
	Links Point[[]string]
}
