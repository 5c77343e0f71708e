package api

import (
	"net/http"
	"time"

	"github.com/castlegateit/memberdir/pkg/httputil"
	"github.com/castlegateit/memberdir/pkg/search"
	"github.com/castlegateit/memberdir/pkg/store"
)

// searchResponse is the JSON shape of a search result page.
type searchResponse struct {
	Results []store.Row         `json:"results"`
	Total   int                 `json:"total"`
	Page    int                 `json:"page"`
	Pages   []int               `json:"pages"`
	Links   string              `json:"links,omitempty"`
	Meta    map[string][]string `json:"meta,omitempty"`
}

// searchMembers handles GET /api/v1/members/search.
//
// Query parameters: term, field, initial, meta_<key> (repeatable),
// page_number, per_page, format. Malformed filter input degrades to "no
// filter"; only store failures produce an error response.
func (s *Server) searchMembers(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	format := search.ParseFormat(httputil.ParseQueryString(r, "format", ""))
	perPage := httputil.ParseQueryInt(r, "per_page", s.cfg.PerPage)

	sr := search.New(search.Config{
		Store:           s.store,
		RegistryFn:      s.registryFn,
		RolesFn:         s.rolesFn,
		Hooks:           s.searchHooks,
		PaginationHooks: s.paginationHooks,
		Format:          format,
		Approval:        s.cfg.Approval,
	})

	sr.ParseRequest(r, search.SourceQuery)
	sr.Paginate(perPage)

	if err := sr.Search(r.Context()); err != nil {
		if s.metrics != nil {
			s.metrics.StoreErrorsTotal.WithLabelValues("search").Inc()
		}
		s.logger.WithError(err).Error("search failed")
		httputil.WriteInternalError(w, err)
		return
	}

	resp := searchResponse{
		Results: sr.Results(),
		Meta:    sr.Meta(),
	}

	if pager := sr.Pagination(); pager != nil {
		resp.Total = pager.Len()
		resp.Page = pager.Page()
		resp.Pages = pager.Pages()
		resp.Links = sr.Links()
	} else {
		resp.Total = len(sr.Results())
		resp.Page = 1
		resp.Pages = []int{1}
	}

	if s.metrics != nil {
		s.metrics.SearchesTotal.WithLabelValues(string(format)).Inc()
		s.metrics.SearchDuration.Observe(time.Since(start).Seconds())
		s.metrics.SearchResults.Observe(float64(resp.Total))
	}

	httputil.WriteSuccess(w, resp)
}

// listFields handles GET /api/v1/members/fields: the current searchable
// attribute schema, for clients building search forms.
func (s *Server) listFields(w http.ResponseWriter, r *http.Request) {
	httputil.WriteSuccess(w, s.registryFn().AttributeFields())
}
