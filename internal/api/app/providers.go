package app

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"zotreader/internal/domain"
)

func (s *Server) handleProviderList(w http.ResponseWriter, r *http.Request) {
	list, err := s.d.Providers.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, list)
}

// enabledProvider is the dropdown view of a dispatchable provider. Secret
// fields stay out of it entirely.
type enabledProvider struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Priority int    `json:"priority"`
	Model    string `json:"model,omitempty"`
}

func (s *Server) handleProviderEnabled(w http.ResponseWriter, r *http.Request) {
	list, err := s.d.Providers.ListEnabled(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]enabledProvider, 0, len(list))
	for _, p := range list {
		out = append(out, enabledProvider{
			ID: p.ID, Name: p.Name, Kind: p.Kind, Priority: p.Priority, Model: p.Model,
		})
	}
	s.respond(w, http.StatusOK, out)
}

func (s *Server) handleProviderAdd(w http.ResponseWriter, r *http.Request) {
	var p domain.Provider
	if err := decode(r, &p); err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.d.Providers.Add(r.Context(), &p)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleProviderUpdate(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProviderPatch
	if err := decode(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.d.Providers.Update(r.Context(), chi.URLParam(r, "id"), patch); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleProviderDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.d.Providers.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"ok": true})
}

type providerTestBody struct {
	ProviderID string `json:"providerId"`
}

func (s *Server) handleProviderTest(w http.ResponseWriter, r *http.Request) {
	var body providerTestBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	if body.ProviderID == "" {
		s.fail(w, r, domain.Validationf("provider id is required"))
		return
	}
	res, err := s.d.Providers.Test(r.Context(), body.ProviderID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, res)
}
