package search

import (
	"context"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/castlegateit/memberdir/pkg/hooks"
	"github.com/castlegateit/memberdir/pkg/pagination"
	"github.com/castlegateit/memberdir/pkg/roles"
	"github.com/castlegateit/memberdir/pkg/schema"
	"github.com/castlegateit/memberdir/pkg/store"
)

var tracer = otel.Tracer("memberdir/search")

// Source selects which request parameter set a search reads.
type Source string

const (
	// SourceQuery reads the query string.
	SourceQuery Source = "query"

	// SourceForm reads posted form parameters.
	SourceForm Source = "form"
)

// Config wires a Search with its collaborators. RegistryFn and RolesFn are
// called fresh on every search so schema and role changes never need an
// invalidation protocol; nil funcs fall back to the built-in defaults.
type Config struct {
	Store      store.DirectoryStore
	RegistryFn func() *schema.Registry
	RolesFn    func() *roles.Registry

	Hooks           *hooks.Search
	PaginationHooks *hooks.Pagination

	// Format selects the result sanitization shape.
	Format Format

	// Approval enables the external approval-status predicate. Off by
	// default; absence of the capability is the normal case.
	Approval bool
}

// Search orchestrates one search request: parse, build, execute, sanitize,
// paginate. It moves through three phases: uninitialized, parsed (raw
// parameters stored verbatim), and executed (results available). Parse and
// Search may both be re-invoked; each fully recomputes state.
type Search struct {
	cfg    Config
	hooks  *hooks.Search
	phooks *hooks.Pagination

	params   url.Values
	baseURL  *url.URL
	perPage  *int
	results  []store.Row
	executed bool
	pager    *pagination.Paginator[store.Row]
}

// New creates an orchestrator. Call Parse before Search.
func New(cfg Config) *Search {
	if cfg.RegistryFn == nil {
		cfg.RegistryFn = schema.DefaultRegistry
	}
	if cfg.RolesFn == nil {
		cfg.RolesFn = func() *roles.Registry { return roles.NewRegistry(nil) }
	}

	h := cfg.Hooks
	if h == nil {
		h = &hooks.Search{}
	}
	ph := cfg.PaginationHooks
	if ph == nil {
		ph = &hooks.Pagination{}
	}

	return &Search{cfg: cfg, hooks: h, phooks: ph, params: url.Values{}}
}

// Parse stores raw request parameters verbatim. No filtering happens here;
// the criteria parser and query builder interpret them during Search.
// Calling Parse again resets the input.
func (s *Search) Parse(params url.Values) {
	if params == nil {
		params = url.Values{}
	}
	s.params = params
}

// ParseRequest stores parameters from an HTTP request, reading the posted
// form or the query string depending on source, and remembers the request
// URL for pagination link generation.
func (s *Search) ParseRequest(r *http.Request, source Source) {
	s.baseURL = r.URL

	if source == SourceForm {
		r.ParseForm()
		s.Parse(r.PostForm)
		return
	}

	s.Parse(r.URL.Query())
}

// Paginate sets the page size. A non-positive limit disables pagination.
// When results already exist the page window is recomputed immediately;
// otherwise pagination waits for Search.
func (s *Search) Paginate(perPage int) {
	s.perPage = &perPage
	if s.executed {
		s.updatePagination()
	}
}

// Search runs the full cycle: criteria parsing, query building, store
// execution, result sanitization, pagination. Safe to call again; state is
// fully recomputed. Store failures are returned unmodified.
func (s *Search) Search(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("format", string(s.format())),
		),
	)
	defer span.End()

	registry := s.cfg.RegistryFn()
	criteria := ParseCriteria(s.params, registry, s.hooks)

	span.SetAttributes(
		attribute.Bool("has_term", criteria.Term != ""),
		attribute.Int("attribute_filters", len(criteria.Attributes)),
	)

	builder := NewBuilder(registry, BuilderOptions{
		Roles:    s.cfg.RolesFn().Names(),
		Approval: s.cfg.Approval,
	})

	rows, err := s.cfg.Store.Search(ctx, builder.Build(criteria))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "search execution failed")
		return err
	}

	sanitized, err := NewSanitizer(s.cfg.Store, registry).Sanitize(ctx, rows, s.format())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "result sanitization failed")
		return err
	}

	s.results = sanitized
	s.executed = true
	s.updatePagination()

	span.SetAttributes(attribute.Int("result_count", len(s.results)))
	span.SetStatus(codes.Ok, "search completed")

	return nil
}

// Results returns the current page of results when pagination is active,
// else the full result set.
func (s *Search) Results() []store.Row {
	if s.pager == nil {
		return s.results
	}
	return s.pager.Results()
}

// Pagination returns the paginator, nil when pagination is inactive.
func (s *Search) Pagination() *pagination.Paginator[store.Row] {
	return s.pager
}

// Links renders the pagination navigation, empty when pagination is
// inactive or there is nothing to navigate.
func (s *Search) Links() string {
	if s.pager == nil {
		return ""
	}
	return s.pager.Links()
}

// Parameters returns the raw parsed input.
func (s *Search) Parameters() url.Values {
	return s.params
}

// Parameter returns the raw values for one parameter, nil when absent.
func (s *Search) Parameter(key string) []string {
	return s.params[key]
}

// Meta returns the attribute-filter extraction of the raw input. Available
// before Search runs, for callers that need early access to filter state.
func (s *Search) Meta() map[string][]string {
	return AttributeFilters(s.params, s.cfg.RegistryFn(), s.hooks)
}

func (s *Search) format() Format {
	if s.cfg.Format == "" {
		return FormatDefault
	}
	return s.cfg.Format
}

func (s *Search) updatePagination() {
	if s.perPage == nil {
		s.pager = nil
		return
	}

	s.pager = pagination.New(s.results, *s.perPage, pagination.Options{
		Params:  s.params,
		BaseURL: s.baseURL,
		Hooks:   s.phooks,
	})
}
