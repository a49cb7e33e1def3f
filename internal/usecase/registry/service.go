// Package registry owns provider configurations: CRUD with encrypted
// secrets, priority assignment, display masking, and connectivity probes.
package registry

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zotreader/internal/adapters/secrets"
	"zotreader/internal/domain"
	"zotreader/internal/ports"
)

type Deps struct {
	Providers ports.ProviderRepository
	Vault     ports.SecretVault
	// Adapter builders for connectivity probes.
	BuildTranslator func(*domain.Provider) ports.RestTranslator
	BuildCompleter  func(*domain.Provider) ports.ChatCompleter
}

type Service struct{ d Deps }

func New(d Deps) *Service { return &Service{d: d} }

// List returns all providers ordered by priority with secrets masked for
// display. The masked values never round-trip into storage; Update rejects
// them on the secret fields.
func (s *Service) List(ctx context.Context) ([]*domain.Provider, error) {
	list, err := s.d.Providers.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		if err := s.maskSecrets(p); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// ListEnabled returns enabled providers in dispatch order with decrypted
// secrets. Display paths must use List instead.
func (s *Service) ListEnabled(ctx context.Context) ([]*domain.Provider, error) {
	list, err := s.d.Providers.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Provider, 0, len(list))
	for _, p := range list {
		if !p.Enabled {
			continue
		}
		if err := s.decryptSecrets(p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Resolve returns one provider with decrypted secrets, ready for an
// outbound call.
func (s *Service) Resolve(ctx context.Context, id string) (*domain.Provider, error) {
	p, err := s.d.Providers.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.decryptSecrets(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Add validates, encrypts secrets, assigns the id and the next priority
// slot, and stores the provider. Returns the new id.
func (s *Service) Add(ctx context.Context, p *domain.Provider) (string, error) {
	if p.Name == "" || p.Kind == "" {
		return "", domain.Validationf("name and kind are required")
	}
	if p.Kind != domain.KindRestTranslator && p.Kind != domain.KindChatCompletion {
		return "", domain.Validationf("unsupported provider kind: %s", p.Kind)
	}
	existing, err := s.d.Providers.List(ctx)
	if err != nil {
		return "", err
	}
	priority := 0
	for _, e := range existing {
		if e.Priority >= priority {
			priority = e.Priority + 1
		}
	}
	p.ID = uuid.NewString()
	p.Priority = priority
	p.Enabled = true
	if err := s.encryptSecrets(p); err != nil {
		return "", err
	}
	if err := s.d.Providers.Create(ctx, p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// Update applies only the supplied patch fields. Secret fields are
// re-encrypted only when the value is non-empty and not a display mask, so
// a masked value echoed back from the UI never overwrites a real secret.
func (s *Service) Update(ctx context.Context, id string, patch domain.ProviderPatch) error {
	p, err := s.d.Providers.Get(ctx, id)
	if err != nil {
		return err
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Enabled != nil {
		p.Enabled = *patch.Enabled
	}
	if patch.Priority != nil {
		p.Priority = *patch.Priority
	}
	if patch.BaseURL != nil {
		p.BaseURL = *patch.BaseURL
	}
	if patch.Model != nil {
		p.Model = *patch.Model
	}
	if patch.SystemPrompt != nil {
		p.SystemPrompt = *patch.SystemPrompt
	}
	if patch.UserPrompt != nil {
		p.UserPrompt = *patch.UserPrompt
	}
	if v := patch.AccessToken; v != nil && *v != "" && !secrets.IsMasked(*v) {
		blob, err := s.d.Vault.Encrypt(*v)
		if err != nil {
			return err
		}
		p.AccessToken = blob
	}
	if v := patch.APIKey; v != nil && *v != "" && !secrets.IsMasked(*v) {
		blob, err := s.d.Vault.Encrypt(*v)
		if err != nil {
			return err
		}
		p.APIKey = blob
	}
	return s.d.Providers.Update(ctx, p)
}

// Remove deletes a provider. Deleting an absent id is a no-op.
func (s *Service) Remove(ctx context.Context, id string) error {
	return s.d.Providers.Delete(ctx, id)
}

// TestResult reports a connectivity probe against a configured provider.
type TestResult struct {
	Success   bool   `json:"success"`
	Reply     string `json:"translationOrReply,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// Test sends a minimal probe request to the provider's backend.
func (s *Service) Test(ctx context.Context, id string) (TestResult, error) {
	p, err := s.Resolve(ctx, id)
	if err != nil {
		return TestResult{}, err
	}
	start := time.Now()
	reply, probeErr := s.probe(ctx, p)
	res := TestResult{
		Success:   probeErr == nil,
		Reply:     reply,
		LatencyMs: time.Since(start).Milliseconds(),
	}
	if probeErr != nil {
		res.Error = probeErr.Error()
	}
	return res, nil
}

func (s *Service) probe(ctx context.Context, p *domain.Provider) (string, error) {
	switch p.Kind {
	case domain.KindRestTranslator:
		if p.AccessToken == "" {
			return "", domain.ErrProviderMisconfigured
		}
		out, err := s.d.BuildTranslator(p).Translate(ctx, ports.TranslateQuery{
			Text: "Hello", SourceLang: "en", TargetLang: "zh",
		})
		if err != nil {
			return "", err
		}
		return out.Translation, nil
	case domain.KindChatCompletion:
		if p.BaseURL == "" || p.APIKey == "" || p.Model == "" {
			return "", domain.ErrProviderMisconfigured
		}
		return s.d.BuildCompleter(p).Complete(ctx, []ports.ChatTurn{
			{Role: domain.RoleUser, Content: "Say hello in one word."},
		}, 0)
	default:
		return "", fmt.Errorf("unsupported provider kind: %s", p.Kind)
	}
}

func (s *Service) maskSecrets(p *domain.Provider) error {
	var err error
	if p.AccessToken, err = s.maskBlob(p.AccessToken); err != nil {
		return err
	}
	if p.APIKey, err = s.maskBlob(p.APIKey); err != nil {
		return err
	}
	return nil
}

func (s *Service) maskBlob(blob string) (string, error) {
	if blob == "" {
		return "", nil
	}
	plain, err := s.d.Vault.Decrypt(blob)
	if err != nil {
		return "", err
	}
	return secrets.Mask(plain), nil
}

func (s *Service) decryptSecrets(p *domain.Provider) error {
	if p.AccessToken != "" {
		plain, err := s.d.Vault.Decrypt(p.AccessToken)
		if err != nil {
			return err
		}
		p.AccessToken = plain
	}
	if p.APIKey != "" {
		plain, err := s.d.Vault.Decrypt(p.APIKey)
		if err != nil {
			return err
		}
		p.APIKey = plain
	}
	return nil
}

func (s *Service) encryptSecrets(p *domain.Provider) error {
	if p.AccessToken != "" {
		if secrets.IsMasked(p.AccessToken) {
			return domain.Validationf("refusing to store a masked access token")
		}
		blob, err := s.d.Vault.Encrypt(p.AccessToken)
		if err != nil {
			return err
		}
		p.AccessToken = blob
	}
	if p.APIKey != "" {
		if secrets.IsMasked(p.APIKey) {
			return domain.Validationf("refusing to store a masked api key")
		}
		blob, err := s.d.Vault.Encrypt(p.APIKey)
		if err != nil {
			return err
		}
		p.APIKey = blob
	}
	return nil
}

var _ ports.ProviderResolver = (*Service)(nil)
