// Package translator routes translation requests to the configured
// provider adapter and applies the cache read/write policy: deterministic
// translators are cached by content hash, LLM translations never are.
package translator

import (
	"context"
	"strings"

	"zotreader/internal/domain"
	"zotreader/internal/ports"
	"zotreader/internal/prompt"
)

type Deps struct {
	Providers ports.ProviderResolver
	Cache     ports.CacheRepository
	// Adapter builders, injected so tests can substitute fakes.
	BuildTranslator func(*domain.Provider) ports.RestTranslator
	BuildCompleter  func(*domain.Provider) ports.ChatCompleter
}

type Service struct{ d Deps }

func New(d Deps) *Service { return &Service{d: d} }

type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	ProviderID string
	Context    *domain.TranslationContext
}

type Result struct {
	Translation  string   `json:"translation"`
	Alternatives []string `json:"alternatives,omitempty"`
	ProviderID   string   `json:"providerId"`
	FromCache    bool     `json:"fromCache"`
	DetectedLang string   `json:"detectedLang,omitempty"`
}

func (s *Service) Translate(ctx context.Context, req Request) (*Result, error) {
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		return nil, domain.Validationf("text is required")
	}
	if req.TargetLang == "" {
		return nil, domain.Validationf("target language is required")
	}
	if req.ProviderID == "" {
		return nil, domain.Validationf("provider id is required")
	}
	if req.SourceLang == "" {
		req.SourceLang = "auto"
	}

	p, err := s.d.Providers.Resolve(ctx, req.ProviderID)
	if err != nil {
		return nil, err
	}

	switch p.Kind {
	case domain.KindRestTranslator:
		return s.translateRest(ctx, p, req)
	case domain.KindChatCompletion:
		return s.translateChat(ctx, p, req)
	default:
		return nil, domain.ErrProviderMisconfigured
	}
}

func (s *Service) translateRest(ctx context.Context, p *domain.Provider, req Request) (*Result, error) {
	if p.AccessToken == "" {
		return nil, domain.ErrProviderMisconfigured
	}
	hash := domain.CacheKey(req.Text, req.TargetLang, p.ID)
	if entry, err := s.d.Cache.GetByHash(ctx, hash); err != nil {
		return nil, err
	} else if entry != nil {
		return &Result{
			Translation:  entry.Translation,
			Alternatives: entry.Alternatives,
			ProviderID:   p.ID,
			FromCache:    true,
		}, nil
	}

	out, err := s.d.BuildTranslator(p).Translate(ctx, ports.TranslateQuery{
		Text:       req.Text,
		SourceLang: req.SourceLang,
		TargetLang: req.TargetLang,
	})
	if err != nil {
		return nil, err
	}
	// Write-through; a cache failure does not lose the translation.
	_ = s.d.Cache.Put(ctx, &domain.CacheEntry{
		Hash:         hash,
		SourceText:   req.Text,
		TargetLang:   req.TargetLang,
		ProviderID:   p.ID,
		Translation:  out.Translation,
		Alternatives: out.Alternatives,
	})
	return &Result{
		Translation:  out.Translation,
		Alternatives: out.Alternatives,
		ProviderID:   p.ID,
	}, nil
}

// translateChat never touches the cache: repeated LLM queries should keep
// their response diversity.
func (s *Service) translateChat(ctx context.Context, p *domain.Provider, req Request) (*Result, error) {
	if p.BaseURL == "" || p.APIKey == "" || p.Model == "" {
		return nil, domain.ErrProviderMisconfigured
	}
	systemTpl := p.SystemPrompt
	if systemTpl == "" {
		systemTpl = prompt.DefaultTranslateSystem
	}
	userTpl := p.UserPrompt
	if userTpl == "" {
		userTpl = prompt.DefaultTranslateUser
	}
	pc := req.Context
	if pc == nil {
		pc = &domain.TranslationContext{}
	}
	vars := map[string]string{
		"title":            pc.Title,
		"authors":          pc.Authors,
		"journal":          pc.Journal,
		"abstract":         pc.Abstract,
		"paragraphContext": pc.ParagraphContext,
		"selectedText":     req.Text,
		"targetLang":       prompt.LangName(req.TargetLang),
	}
	msgs := []ports.ChatTurn{
		{Role: domain.RoleSystem, Content: prompt.Fill(systemTpl, vars)},
		{Role: domain.RoleUser, Content: prompt.Fill(userTpl, vars)},
	}

	// Low temperature biases toward literal, stable translations.
	content, err := s.d.BuildCompleter(p).Complete(ctx, msgs, 0.2)
	if err != nil {
		return nil, err
	}
	res := &Result{Translation: content, ProviderID: p.ID}
	if req.SourceLang != "auto" {
		res.DetectedLang = req.SourceLang
	}
	return res, nil
}

// History pages over cached translations for the history screen.
func (s *Service) History(ctx context.Context, offset, limit int, search string) (*domain.HistoryPage, error) {
	if limit <= 0 {
		limit = 30
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.d.Cache.History(ctx, offset, limit, strings.TrimSpace(search))
}

// DeleteHistory removes one record by id.
func (s *Service) DeleteHistory(ctx context.Context, id int64) error {
	return s.d.Cache.DeleteRecord(ctx, id)
}

// ClearHistory wipes the whole translation history.
func (s *Service) ClearHistory(ctx context.Context) error {
	return s.d.Cache.Clear(ctx)
}
