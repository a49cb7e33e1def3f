package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"zotreader/internal/ports"
)

type PdfCacheRepo struct{ *Repo }

func NewPdfCacheRepo(db *sql.DB) *PdfCacheRepo { return &PdfCacheRepo{NewRepo(db)} }

func (r *PdfCacheRepo) Get(ctx context.Context, attachmentKey string) (*ports.PdfCacheInfo, error) {
	q := r.SQ.Select("attachment_key", "file_path", "file_size", "etag").From("pdf_cache").
		Where(sq.Eq{"attachment_key": attachmentKey})
	sqlStr, args, _ := q.ToSql()
	row := r.DB.QueryRowContext(ctx, sqlStr, args...)
	var info ports.PdfCacheInfo
	var etag sql.NullString
	if err := row.Scan(&info.AttachmentKey, &info.FilePath, &info.Size, &etag); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	info.ETag = etag.String
	now := time.Now().UTC().Format(sortableTimeLayout)
	_, _ = r.DB.ExecContext(ctx, `UPDATE pdf_cache SET last_accessed = ? WHERE attachment_key = ?`, now, attachmentKey)
	return &info, nil
}

func (r *PdfCacheRepo) Put(ctx context.Context, attachmentKey, filePath string, size int64, etag string) error {
	now := time.Now().UTC().Format(sortableTimeLayout)
	q := r.SQ.Insert("pdf_cache").Columns("attachment_key", "file_path", "file_size", "etag", "last_accessed").
		Values(attachmentKey, filePath, size, etag, now).
		Suffix("ON CONFLICT(attachment_key) DO UPDATE SET file_path=excluded.file_path, file_size=excluded.file_size, etag=excluded.etag, last_accessed=excluded.last_accessed")
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *PdfCacheRepo) TotalSize(ctx context.Context) (int64, error) {
	var total int64
	err := r.DB.QueryRowContext(ctx, `SELECT COALESCE(SUM(file_size), 0) FROM pdf_cache`).Scan(&total)
	return total, err
}

func (r *PdfCacheRepo) Oldest(ctx context.Context, n int) ([]*ports.PdfCacheInfo, error) {
	q := r.SQ.Select("attachment_key", "file_path", "file_size", "etag").From("pdf_cache").
		OrderBy("last_accessed ASC").Limit(uint64(n))
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*ports.PdfCacheInfo
	for rows.Next() {
		var info ports.PdfCacheInfo
		var etag sql.NullString
		if err := rows.Scan(&info.AttachmentKey, &info.FilePath, &info.Size, &etag); err != nil {
			return nil, err
		}
		info.ETag = etag.String
		out = append(out, &info)
	}
	return out, rows.Err()
}

func (r *PdfCacheRepo) Delete(ctx context.Context, attachmentKey string) error {
	q := r.SQ.Delete("pdf_cache").Where(sq.Eq{"attachment_key": attachmentKey})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}
