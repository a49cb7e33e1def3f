package ports

import (
	"context"
	"io"

	"zotreader/internal/domain"
)

type ItemQuery struct {
	CollectionKey string
	Query         string
	Sort          string
	Direction     string
	Limit         int
	Start         int
}

// FileDownload is a streamed attachment body. NotModified is set when the
// conditional fetch matched the supplied ETag; Body is nil in that case.
type FileDownload struct {
	Body        io.ReadCloser
	ETag        string
	NotModified bool
}

// LibraryClient talks to the upstream Zotero Web API.
type LibraryClient interface {
	Collections(ctx context.Context, parentKey string) ([]domain.Collection, error)
	Items(ctx context.Context, q ItemQuery) (*domain.ItemPage, error)
	Item(ctx context.Context, key string) (*domain.Item, error)
	Children(ctx context.Context, key string) ([]domain.Item, error)
	DownloadFile(ctx context.Context, attachmentKey, etag string) (*FileDownload, error)
	// Fulltext returns (nil, nil) when the item has no full-text index.
	Fulltext(ctx context.Context, itemKey string) (*domain.Fulltext, error)
}
