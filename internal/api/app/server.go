// Package app is the inbound HTTP surface. Handlers stay thin: decode,
// call the engine, map the error taxonomy to a status code.
package app

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"zotreader/internal/adapters/filecache"
	"zotreader/internal/adapters/zotero"
	"zotreader/internal/domain"
	"zotreader/internal/ports"
	"zotreader/internal/usecase/chat"
	"zotreader/internal/usecase/registry"
	"zotreader/internal/usecase/translator"
)

type Deps struct {
	Log        *slog.Logger
	Providers  *registry.Service
	Translator *translator.Service
	Chat       *chat.Service
	Library    ports.LibraryClient
	Zotero     *zotero.Client
	Files      *filecache.Store
	Settings   ports.SettingsRepository
	Vault      ports.SecretVault
}

type Server struct{ d Deps }

func NewServer(d Deps) *Server { return &Server{d: d} }

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/translate", s.handleTranslate)
		r.Get("/translate/history", s.handleTranslateHistory)
		r.Delete("/translate/history", s.handleTranslateHistoryDelete)

		r.Get("/providers", s.handleProviderList)
		r.Get("/providers/enabled", s.handleProviderEnabled)
		r.Post("/providers", s.handleProviderAdd)
		r.Put("/providers/{id}", s.handleProviderUpdate)
		r.Delete("/providers/{id}", s.handleProviderDelete)
		r.Post("/providers/test", s.handleProviderTest)

		r.Post("/chat", s.handleChatSend)
		r.Get("/chat", s.handleChatHistory)
		r.Delete("/chat", s.handleChatClear)

		r.Get("/settings", s.handleSettingsGet)
		r.Put("/settings", s.handleSettingsPut)
		r.Post("/settings/test-zotero", s.handleSettingsTestZotero)

		r.Get("/library/collections", s.handleCollections)
		r.Get("/library/items", s.handleItems)
		r.Get("/library/items/{key}", s.handleItem)
		r.Get("/library/items/{key}/children", s.handleItemChildren)
		r.Get("/library/items/{key}/file", s.handleItemFile)
		r.Get("/library/items/{key}/fulltext", s.handleItemFulltext)
	})
	return r
}

func (s *Server) respond(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errBody struct {
	Error string `json:"error"`
}

// fail maps the domain error taxonomy onto HTTP statuses. Internal errors
// are logged with detail but returned opaque.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *domain.ValidationError
		ue *domain.UpstreamError
	)
	switch {
	case errors.As(err, &ve):
		s.respond(w, http.StatusBadRequest, errBody{Error: ve.Msg})
	case errors.Is(err, domain.ErrProviderNotFound):
		s.respond(w, http.StatusNotFound, errBody{Error: err.Error()})
	case errors.Is(err, domain.ErrProviderMisconfigured),
		errors.Is(err, domain.ErrUnsupportedProviderKind),
		errors.Is(err, domain.ErrNotConfigured):
		s.respond(w, http.StatusBadRequest, errBody{Error: err.Error()})
	case errors.Is(err, domain.ErrIntegrity):
		// Credential decryption failed: an operator problem (changed app
		// secret), not an internal crash.
		s.d.Log.Error("credential integrity failure", "path", r.URL.Path, "err", err)
		s.respond(w, http.StatusInternalServerError, errBody{Error: err.Error()})
	case errors.Is(err, domain.ErrRateLimited):
		s.respond(w, http.StatusTooManyRequests, errBody{Error: err.Error()})
	case errors.As(err, &ue), errors.Is(err, domain.ErrEmptyResult):
		s.respond(w, http.StatusBadGateway, errBody{Error: err.Error()})
	default:
		s.d.Log.Error("request failed", "path", r.URL.Path, "err", err)
		s.respond(w, http.StatusInternalServerError, errBody{Error: "internal error"})
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return domain.Validationf("invalid request body: %v", err)
	}
	return nil
}
