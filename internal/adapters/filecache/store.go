// Package filecache keeps downloaded PDF attachments on disk, keyed by
// attachment id, with byte-budget LRU eviction driven by the pdf_cache table.
package filecache

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"zotreader/internal/ports"
)

type Store struct {
	Dir      string
	MaxBytes int64
	repo     ports.PdfCacheRepository
	library  ports.LibraryClient
}

func New(dir string, maxBytes int64, repo ports.PdfCacheRepository, library ports.LibraryClient) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("make cache dir: %w", err)
	}
	return &Store{Dir: dir, MaxBytes: maxBytes, repo: repo, library: library}, nil
}

// Fetch returns a local path for the attachment, downloading it on a miss.
// A hit bumps the entry's recency via the repository.
func (s *Store) Fetch(ctx context.Context, attachmentKey string) (string, error) {
	info, err := s.repo.Get(ctx, attachmentKey)
	if err != nil {
		return "", err
	}
	if info != nil {
		if _, statErr := os.Stat(info.FilePath); statErr == nil {
			return info.FilePath, nil
		}
		// Row without a file: fall through and redownload.
		_ = s.repo.Delete(ctx, attachmentKey)
	}
	return s.download(ctx, attachmentKey)
}

func (s *Store) download(ctx context.Context, attachmentKey string) (string, error) {
	dl, err := s.library.DownloadFile(ctx, attachmentKey, "")
	if err != nil {
		return "", err
	}
	defer dl.Body.Close()

	dest := filepath.Join(s.Dir, attachmentKey+".pdf")
	tmp, err := os.CreateTemp(s.Dir, attachmentKey+".*.part")
	if err != nil {
		return "", fmt.Errorf("cache temp file: %w", err)
	}
	size, err := io.Copy(tmp, dl.Body)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("cache write %s: %w", attachmentKey, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("cache rename %s: %w", attachmentKey, err)
	}
	if err := s.repo.Put(ctx, attachmentKey, dest, size, dl.ETag); err != nil {
		return "", err
	}
	if err := s.evict(ctx); err != nil {
		return "", err
	}
	return dest, nil
}

// evict removes least-recently-accessed entries until the cache fits the
// byte budget. MaxBytes <= 0 disables eviction.
func (s *Store) evict(ctx context.Context) error {
	if s.MaxBytes <= 0 {
		return nil
	}
	total, err := s.repo.TotalSize(ctx)
	if err != nil {
		return err
	}
	for total > s.MaxBytes {
		victims, err := s.repo.Oldest(ctx, 10)
		if err != nil {
			return err
		}
		if len(victims) == 0 {
			return nil
		}
		for _, v := range victims {
			if total <= s.MaxBytes {
				return nil
			}
			_ = os.Remove(v.FilePath)
			if err := s.repo.Delete(ctx, v.AttachmentKey); err != nil {
				return err
			}
			total -= v.Size
		}
	}
	return nil
}
