package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"zotreader/internal/domain"
)

type CacheRepo struct{ *Repo }

func NewCacheRepo(db *sql.DB) *CacheRepo { return &CacheRepo{NewRepo(db)} }

func cacheColumns() []string {
	return []string{"id", "text_hash", "source_text", "target_lang", "provider_id", "translation", "alternatives", "created_at"}
}

// escapeLike neutralizes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

func (r *CacheRepo) GetByHash(ctx context.Context, hash string) (*domain.CacheEntry, error) {
	q := r.SQ.Select(cacheColumns()...).From("translation_cache").
		Where(sq.Eq{"text_hash": hash}).Limit(1)
	sqlStr, args, _ := q.ToSql()
	row := r.DB.QueryRowContext(ctx, sqlStr, args...)
	e, err := scanCacheEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (r *CacheRepo) Put(ctx context.Context, entry *domain.CacheEntry) error {
	var alts sql.NullString
	if len(entry.Alternatives) > 0 {
		b, err := json.Marshal(entry.Alternatives)
		if err != nil {
			return err
		}
		alts = sql.NullString{String: string(b), Valid: true}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	q := r.SQ.Insert("translation_cache").
		Columns("text_hash", "source_text", "target_lang", "provider_id", "translation", "alternatives", "created_at").
		Values(entry.Hash, entry.SourceText, entry.TargetLang, entry.ProviderID, entry.Translation, alts, now).
		Suffix("ON CONFLICT(text_hash) DO UPDATE SET translation=excluded.translation, alternatives=excluded.alternatives")
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *CacheRepo) History(ctx context.Context, offset, limit int, search string) (*domain.HistoryPage, error) {
	countQ := r.SQ.Select("COUNT(*)").From("translation_cache")
	listQ := r.SQ.Select(cacheColumns()...).From("translation_cache")
	if search != "" {
		// LIKE is case-insensitive for ASCII in sqlite; lower() both sides so
		// the search also works for configured case-sensitive LIKE.
		pattern := "%" + escapeLike(search) + "%"
		cond := sq.Or{
			sq.Expr(`lower(source_text) LIKE lower(?) ESCAPE '\'`, pattern),
			sq.Expr(`lower(translation) LIKE lower(?) ESCAPE '\'`, pattern),
		}
		countQ = countQ.Where(cond)
		listQ = listQ.Where(cond)
	}
	sqlStr, args, _ := countQ.ToSql()
	var total int
	if err := r.DB.QueryRowContext(ctx, sqlStr, args...).Scan(&total); err != nil {
		return nil, err
	}
	listQ = listQ.OrderBy("created_at DESC", "id DESC").Limit(uint64(limit)).Offset(uint64(offset))
	sqlStr, args, _ = listQ.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	records := []*domain.CacheEntry{}
	for rows.Next() {
		e, err := scanCacheEntry(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &domain.HistoryPage{Records: records, Total: total}, nil
}

func (r *CacheRepo) DeleteRecord(ctx context.Context, id int64) error {
	q := r.SQ.Delete("translation_cache").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *CacheRepo) Clear(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM translation_cache`)
	return err
}

func scanCacheEntry(row rowScanner) (*domain.CacheEntry, error) {
	var e domain.CacheEntry
	var alts sql.NullString
	var created string
	if err := row.Scan(&e.ID, &e.Hash, &e.SourceText, &e.TargetLang, &e.ProviderID, &e.Translation, &alts, &created); err != nil {
		return nil, err
	}
	if alts.Valid && alts.String != "" {
		_ = json.Unmarshal([]byte(alts.String), &e.Alternatives)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &e, nil
}
