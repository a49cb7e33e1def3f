package domain

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ChatMessage is one entry in a document's append-only conversation log,
// keyed by the Zotero item key. Content is immutable once written.
type ChatMessage struct {
	ID        int64     `json:"id"`
	ItemKey   string    `json:"itemKey"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
