// Package api exposes the member directory over HTTP: search, member
// lookup, and member create/update endpoints.
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/castlegateit/memberdir/pkg/config"
	"github.com/castlegateit/memberdir/pkg/hooks"
	"github.com/castlegateit/memberdir/pkg/observability"
	"github.com/castlegateit/memberdir/pkg/roles"
	"github.com/castlegateit/memberdir/pkg/schema"
	"github.com/castlegateit/memberdir/pkg/store"
)

// Server is the HTTP API server.
type Server struct {
	store   store.DirectoryStore
	cfg     config.SearchConfig
	logger  *observability.Logger
	metrics *observability.Metrics
	router  *mux.Router

	registryFn func() *schema.Registry
	rolesFn    func() *roles.Registry

	searchHooks     *hooks.Search
	paginationHooks *hooks.Pagination
}

// Options configure the server beyond its required collaborators.
type Options struct {
	// RegistryFn supplies the field schema, rebuilt per request. Nil uses
	// the built-in field set.
	RegistryFn func() *schema.Registry

	// RolesFn supplies the role registry, rebuilt per request. Nil uses
	// the default role set.
	RolesFn func() *roles.Registry

	// SearchHooks and PaginationHooks customize parsing and page links.
	SearchHooks     *hooks.Search
	PaginationHooks *hooks.Pagination

	// Metrics registers request and search metrics. Nil disables them.
	Metrics *observability.Metrics
}

// NewServer creates the API server and sets up its routes.
func NewServer(st store.DirectoryStore, cfg config.SearchConfig, logger *observability.Logger, opts Options) *Server {
	if opts.RegistryFn == nil {
		opts.RegistryFn = schema.DefaultRegistry
	}
	if opts.RolesFn == nil {
		opts.RolesFn = func() *roles.Registry { return roles.NewRegistry(nil) }
	}
	if logger == nil {
		logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Server{
		store:           st,
		cfg:             cfg,
		logger:          logger,
		metrics:         opts.Metrics,
		router:          mux.NewRouter(),
		registryFn:      opts.RegistryFn,
		rolesFn:         opts.RolesFn,
		searchHooks:     opts.SearchHooks,
		paginationHooks: opts.PaginationHooks,
	}

	s.routes()

	return s
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(Logging(s.logger))
	if s.metrics != nil {
		s.router.Use(Metrics(s.metrics))
	}

	s.router.HandleFunc("/api/v1/members/search", s.searchMembers).Methods("GET")
	s.router.HandleFunc("/api/v1/members/fields", s.listFields).Methods("GET")
	s.router.HandleFunc("/api/v1/members", s.createMember).Methods("POST")
	s.router.HandleFunc("/api/v1/members/{id:[0-9]+}", s.getMember).Methods("GET")
	s.router.HandleFunc("/api/v1/members/{id:[0-9]+}", s.updateMember).Methods("PUT")
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
