package domain

import "time"

// Provider kinds. A rest_translator is a deterministic translation backend
// (cacheable); a chat_completion provider is an OpenAI-compatible LLM.
const (
	KindRestTranslator = "rest_translator"
	KindChatCompletion = "chat_completion"
)

type Provider struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Kind     string `json:"kind"` // rest_translator | chat_completion
	Enabled  bool   `json:"enabled"`
	Priority int    `json:"priority"` // ascending = higher precedence

	// rest_translator only. Stored encrypted.
	AccessToken string `json:"accessToken,omitempty"`

	// chat_completion only. APIKey stored encrypted.
	BaseURL      string `json:"apiBaseUrl,omitempty"`
	APIKey       string `json:"apiKey,omitempty"`
	Model        string `json:"model,omitempty"`
	SystemPrompt string `json:"systemPrompt,omitempty"`
	UserPrompt   string `json:"userPrompt,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProviderPatch carries a partial update. Nil fields are left untouched.
// Secret fields are additionally ignored when empty or masked, so a masked
// display value can never overwrite a stored secret.
type ProviderPatch struct {
	Name         *string `json:"name"`
	Enabled      *bool   `json:"enabled"`
	Priority     *int    `json:"priority"`
	AccessToken  *string `json:"accessToken"`
	BaseURL      *string `json:"apiBaseUrl"`
	APIKey       *string `json:"apiKey"`
	Model        *string `json:"model"`
	SystemPrompt *string `json:"systemPrompt"`
	UserPrompt   *string `json:"userPrompt"`
}
