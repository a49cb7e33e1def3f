package ports

import (
	"context"
	"io"

	"zotreader/internal/domain"
)

type TranslateQuery struct {
	Text       string
	SourceLang string
	TargetLang string
}

type TranslateOutcome struct {
	Translation  string
	Alternatives []string
}

// RestTranslator is the deterministic translation backend contract.
type RestTranslator interface {
	Translate(ctx context.Context, q TranslateQuery) (TranslateOutcome, error)
}

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompleter is the OpenAI-compatible chat-completion contract.
// Stream returns the raw SSE response body; the caller owns closing it.
type ChatCompleter interface {
	Complete(ctx context.Context, msgs []ChatTurn, temperature float64) (string, error)
	Stream(ctx context.Context, msgs []ChatTurn, temperature float64) (io.ReadCloser, error)
}

// ProviderResolver yields provider configs with secrets already decrypted,
// ready for outbound calls. Display paths must never use it.
type ProviderResolver interface {
	Resolve(ctx context.Context, id string) (*domain.Provider, error)
}

// SecretVault encrypts secrets for storage and decrypts them for outbound
// calls. Decrypt fails with domain.ErrIntegrity on forged or malformed blobs.
type SecretVault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(blob string) (string, error)
}
