package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"zotreader/internal/domain"
)

type ChatRepo struct{ *Repo }

func NewChatRepo(db *sql.DB) *ChatRepo { return &ChatRepo{NewRepo(db)} }

func (r *ChatRepo) Append(ctx context.Context, m *domain.ChatMessage) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	q := r.SQ.Insert("chat_history").Columns("item_key", "role", "content", "created_at").
		Values(m.ItemKey, m.Role, m.Content, m.CreatedAt.Format(sortableTimeLayout))
	sqlStr, args, _ := q.ToSql()
	res, err := r.DB.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	m.ID, _ = res.LastInsertId()
	return nil
}

func (r *ChatRepo) List(ctx context.Context, itemKey string, limit int) ([]*domain.ChatMessage, error) {
	q := r.SQ.Select("id", "item_key", "role", "content", "created_at").From("chat_history").
		Where(sq.Eq{"item_key": itemKey}).OrderBy("id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sqlStr, args, _ := q.ToSql()
	return r.queryMessages(ctx, sqlStr, args)
}

// Recent selects the newest n rows then flips them back to oldest-first, so
// the prompt window always ends at the latest message.
func (r *ChatRepo) Recent(ctx context.Context, itemKey string, n int) ([]*domain.ChatMessage, error) {
	q := r.SQ.Select("id", "item_key", "role", "content", "created_at").From("chat_history").
		Where(sq.Eq{"item_key": itemKey}).OrderBy("id DESC").Limit(uint64(n))
	sqlStr, args, _ := q.ToSql()
	msgs, err := r.queryMessages(ctx, sqlStr, args)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *ChatRepo) Clear(ctx context.Context, itemKey string) error {
	q := r.SQ.Delete("chat_history").Where(sq.Eq{"item_key": itemKey})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatRepo) queryMessages(ctx context.Context, sqlStr string, args []any) ([]*domain.ChatMessage, error) {
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		var created string
		if err := rows.Scan(&m.ID, &m.ItemKey, &m.Role, &m.Content, &created); err != nil {
			return nil, err
		}
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, &m)
	}
	return out, rows.Err()
}
