package ports

import (
	"context"
	"zotreader/internal/domain"
)

type ProviderRepository interface {
	Create(ctx context.Context, p *domain.Provider) error
	Update(ctx context.Context, p *domain.Provider) error
	Get(ctx context.Context, id string) (*domain.Provider, error)
	// List returns providers ordered by priority ascending, id as tiebreak.
	List(ctx context.Context) ([]*domain.Provider, error)
	Delete(ctx context.Context, id string) error
}

type CacheRepository interface {
	// GetByHash returns (nil, nil) on a miss.
	GetByHash(ctx context.Context, hash string) (*domain.CacheEntry, error)
	// Put upserts by hash; last writer wins.
	Put(ctx context.Context, entry *domain.CacheEntry) error
	// History pages over cached translations, newest first. A non-empty
	// search filters by case-insensitive substring over source and
	// translated text. Total counts all matches, not just the page.
	History(ctx context.Context, offset, limit int, search string) (*domain.HistoryPage, error)
	DeleteRecord(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}

type ChatRepository interface {
	Append(ctx context.Context, m *domain.ChatMessage) error
	// List returns messages for an item oldest-first. limit <= 0 means all.
	List(ctx context.Context, itemKey string, limit int) ([]*domain.ChatMessage, error)
	// Recent returns the last n messages for an item, still oldest-first.
	Recent(ctx context.Context, itemKey string, n int) ([]*domain.ChatMessage, error)
	// Clear removes every message for the item in one statement.
	Clear(ctx context.Context, itemKey string) error
}

type SettingsRepository interface {
	// Get returns ("", nil) when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type PdfCacheRepository interface {
	// Get returns (nil, nil) when the attachment has no cache row. A hit
	// bumps the last-accessed time.
	Get(ctx context.Context, attachmentKey string) (*PdfCacheInfo, error)
	Put(ctx context.Context, attachmentKey, filePath string, size int64, etag string) error
	TotalSize(ctx context.Context) (int64, error)
	// Oldest returns up to n entries ordered by last access, oldest first.
	Oldest(ctx context.Context, n int) ([]*PdfCacheInfo, error)
	Delete(ctx context.Context, attachmentKey string) error
}

type PdfCacheInfo struct {
	AttachmentKey string
	FilePath      string
	Size          int64
	ETag          string
}
