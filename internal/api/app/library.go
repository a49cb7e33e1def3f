package app

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"zotreader/internal/ports"
)

func (s *Server) handleCollections(w http.ResponseWriter, r *http.Request) {
	cols, err := s.d.Library.Collections(r.Context(), r.URL.Query().Get("parent"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, cols)
}

func (s *Server) handleItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	start, _ := strconv.Atoi(q.Get("start"))
	page, err := s.d.Library.Items(r.Context(), ports.ItemQuery{
		CollectionKey: q.Get("collection"),
		Query:         q.Get("q"),
		Sort:          q.Get("sort"),
		Direction:     q.Get("direction"),
		Limit:         limit,
		Start:         start,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, page)
}

func (s *Server) handleItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.d.Library.Item(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, item)
}

func (s *Server) handleItemChildren(w http.ResponseWriter, r *http.Request) {
	children, err := s.d.Library.Children(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, children)
}

// handleItemFile streams the attachment through the on-disk pdf cache.
func (s *Server) handleItemFile(w http.ResponseWriter, r *http.Request) {
	path, err := s.d.Files.Fetch(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

func (s *Server) handleItemFulltext(w http.ResponseWriter, r *http.Request) {
	full, err := s.d.Library.Fulltext(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if full == nil {
		s.respond(w, http.StatusNotFound, errBody{Error: "no full-text index for item"})
		return
	}
	s.respond(w, http.StatusOK, full)
}
