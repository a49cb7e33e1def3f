package app

import (
	"net/http"

	"zotreader/internal/adapters/secrets"
	"zotreader/internal/domain"
)

// Settings keys persisted in the settings table. The Zotero API key is the
// only encrypted value; everything else is stored plain.
const (
	keyZoteroUserID     = "zotero_user_id"
	keyZoteroAPIKey     = "zotero_api_key"
	keyDefaultProvider  = "default_provider_id"
	keyDefaultTarget    = "default_target_lang"
	keyChatSystemPrompt = "chat_system_prompt"
)

type settingsView struct {
	ZoteroUserID      string `json:"zoteroUserId"`
	ZoteroAPIKey      string `json:"zoteroApiKey"` // always masked
	DefaultProviderID string `json:"defaultProviderId"`
	DefaultTargetLang string `json:"defaultTargetLang"`
	ChatSystemPrompt  string `json:"chatSystemPrompt"`
}

func (s *Server) handleSettingsGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var (
		view settingsView
		err  error
	)
	if view.ZoteroUserID, err = s.d.Settings.Get(ctx, keyZoteroUserID); err != nil {
		s.fail(w, r, err)
		return
	}
	blob, err := s.d.Settings.Get(ctx, keyZoteroAPIKey)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if blob != "" {
		apiKey, err := s.d.Vault.Decrypt(blob)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		view.ZoteroAPIKey = secrets.Mask(apiKey)
	}
	if view.DefaultProviderID, err = s.d.Settings.Get(ctx, keyDefaultProvider); err != nil {
		s.fail(w, r, err)
		return
	}
	if view.DefaultTargetLang, err = s.d.Settings.Get(ctx, keyDefaultTarget); err != nil {
		s.fail(w, r, err)
		return
	}
	if view.ChatSystemPrompt, err = s.d.Settings.Get(ctx, keyChatSystemPrompt); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, view)
}

type settingsPatch struct {
	ZoteroUserID      *string `json:"zoteroUserId"`
	ZoteroAPIKey      *string `json:"zoteroApiKey"`
	DefaultProviderID *string `json:"defaultProviderId"`
	DefaultTargetLang *string `json:"defaultTargetLang"`
	ChatSystemPrompt  *string `json:"chatSystemPrompt"`
}

// handleSettingsPut applies a partial update. A masked API key value means
// "unchanged" and is never written back.
func (s *Server) handleSettingsPut(w http.ResponseWriter, r *http.Request) {
	var patch settingsPatch
	if err := decode(r, &patch); err != nil {
		s.fail(w, r, err)
		return
	}
	ctx := r.Context()
	plain := map[string]*string{
		keyZoteroUserID:     patch.ZoteroUserID,
		keyDefaultProvider:  patch.DefaultProviderID,
		keyDefaultTarget:    patch.DefaultTargetLang,
		keyChatSystemPrompt: patch.ChatSystemPrompt,
	}
	for key, val := range plain {
		if val == nil {
			continue
		}
		if err := s.d.Settings.Set(ctx, key, *val); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if patch.ZoteroAPIKey != nil && *patch.ZoteroAPIKey != "" && !secrets.IsMasked(*patch.ZoteroAPIKey) {
		blob, err := s.d.Vault.Encrypt(*patch.ZoteroAPIKey)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if err := s.d.Settings.Set(ctx, keyZoteroAPIKey, blob); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	s.respond(w, http.StatusOK, map[string]bool{"ok": true})
}

type zoteroTestBody struct {
	UserID string `json:"userId"`
	APIKey string `json:"apiKey"`
}

// handleSettingsTestZotero probes the Zotero account. Request-body
// credentials are used when supplied (masked key falls back to the stored
// one), so the account can be verified before saving.
func (s *Server) handleSettingsTestZotero(w http.ResponseWriter, r *http.Request) {
	var body zoteroTestBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}
	ctx := r.Context()
	userID, apiKey := body.UserID, body.APIKey
	if userID == "" {
		var err error
		if userID, err = s.d.Settings.Get(ctx, keyZoteroUserID); err != nil {
			s.fail(w, r, err)
			return
		}
	}
	if apiKey == "" || secrets.IsMasked(apiKey) {
		blob, err := s.d.Settings.Get(ctx, keyZoteroAPIKey)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		if blob != "" {
			if apiKey, err = s.d.Vault.Decrypt(blob); err != nil {
				s.fail(w, r, err)
				return
			}
		}
	}
	if userID == "" || apiKey == "" {
		s.fail(w, r, domain.ErrNotConfigured)
		return
	}
	if err := s.d.Zotero.TestConnection(ctx, userID, apiKey); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"ok": true})
}
