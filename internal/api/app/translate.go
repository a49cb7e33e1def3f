package app

import (
	"net/http"
	"strconv"

	"zotreader/internal/domain"
	"zotreader/internal/usecase/translator"
)

type translateBody struct {
	Text       string                     `json:"text"`
	SourceLang string                     `json:"sourceLang"`
	TargetLang string                     `json:"targetLang"`
	ProviderID string                     `json:"providerId"`
	Context    *domain.TranslationContext `json:"context,omitempty"`
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	var body translateBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.d.Translator.Translate(r.Context(), translator.Request{
		Text:       body.Text,
		SourceLang: body.SourceLang,
		TargetLang: body.TargetLang,
		ProviderID: body.ProviderID,
		Context:    body.Context,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, res)
}

func (s *Server) handleTranslateHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	page, err := s.d.Translator.History(r.Context(), offset, limit, q.Get("search"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, page)
}

type historyDeleteBody struct {
	ID       int64 `json:"id"`
	ClearAll bool  `json:"clearAll"`
}

func (s *Server) handleTranslateHistoryDelete(w http.ResponseWriter, r *http.Request) {
	var body historyDeleteBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	var err error
	switch {
	case body.ClearAll:
		err = s.d.Translator.ClearHistory(r.Context())
	case body.ID > 0:
		err = s.d.Translator.DeleteHistory(r.Context(), body.ID)
	default:
		err = domain.Validationf("id or clearAll is required")
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"ok": true})
}
