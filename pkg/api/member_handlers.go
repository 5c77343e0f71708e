package api

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/castlegateit/memberdir/pkg/account"
	"github.com/castlegateit/memberdir/pkg/form"
	"github.com/castlegateit/memberdir/pkg/httputil"
	"github.com/castlegateit/memberdir/pkg/store"
)

// memberRequest is the JSON shape of a member create/update body: field
// values keyed by schema field key.
type memberRequest map[string]string

// getMember handles GET /api/v1/members/{id}.
func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	member := account.NewMember(s.store, s.registryFn(), s.rolesFn())
	if err := member.LoadID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "member not found")
			return
		}
		s.logger.WithError(err).Error("member lookup failed")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, member.Values())
}

// createMember handles POST /api/v1/members.
func (s *Server) createMember(w http.ResponseWriter, r *http.Request) {
	var req memberRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	registry := s.registryFn()

	f := form.New(registry, nil)
	if !f.Validate(requestValues(req)) {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": f.Errors(),
		})
		return
	}

	member := account.NewMember(s.store, registry, s.rolesFn())
	member.SetValues(f.Values())

	if err := member.Create(r.Context()); err != nil {
		if errors.Is(err, store.ErrExists) {
			httputil.WriteConflict(w, "member already exists")
			return
		}
		s.logger.WithError(err).Error("member creation failed")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteCreated(w, member.Values())
}

// updateMember handles PUT /api/v1/members/{id}.
func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParsePathInt64(r, "id")
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	var req memberRequest
	if err := httputil.ParseJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	registry := s.registryFn()

	member := account.NewMember(s.store, registry, s.rolesFn())
	if err := member.LoadID(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "member not found")
			return
		}
		s.logger.WithError(err).Error("member lookup failed")
		httputil.WriteInternalError(w, err)
		return
	}

	f := form.New(registry, nil)
	if !f.Validate(requestValues(req)) {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": f.Errors(),
		})
		return
	}

	// The path parameter owns the member identity; a user_id in the body
	// must not retarget the update.
	values := f.Values()
	delete(values, "user_id")
	member.SetValues(values)

	if err := member.Update(r.Context()); err != nil {
		s.logger.WithError(err).Error("member update failed")
		httputil.WriteInternalError(w, err)
		return
	}

	httputil.WriteSuccess(w, member.Values())
}

func requestValues(req memberRequest) url.Values {
	values := url.Values{}
	for key, value := range req {
		values.Set(key, value)
	}
	return values
}
