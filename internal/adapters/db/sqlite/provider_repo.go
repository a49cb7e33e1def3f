package sqlite

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"zotreader/internal/domain"
)

type ProviderRepo struct{ *Repo }

func NewProviderRepo(db *sql.DB) *ProviderRepo { return &ProviderRepo{NewRepo(db)} }

func providerColumns() []string {
	return []string{"id", "name", "kind", "enabled", "priority", "access_token", "api_base_url", "api_key", "model", "system_prompt", "user_prompt", "created_at", "updated_at"}
}

func (r *ProviderRepo) Create(ctx context.Context, p *domain.Provider) error {
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	ts := now.Format(time.RFC3339)
	q := r.SQ.Insert("providers").Columns(providerColumns()...).
		Values(p.ID, p.Name, p.Kind, p.Enabled, p.Priority, p.AccessToken, p.BaseURL, p.APIKey, p.Model, p.SystemPrompt, p.UserPrompt, ts, ts)
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ProviderRepo) Update(ctx context.Context, p *domain.Provider) error {
	now := time.Now().UTC()
	p.UpdatedAt = now
	q := r.SQ.Update("providers").
		Set("name", p.Name).Set("enabled", p.Enabled).Set("priority", p.Priority).
		Set("access_token", p.AccessToken).Set("api_base_url", p.BaseURL).Set("api_key", p.APIKey).
		Set("model", p.Model).Set("system_prompt", p.SystemPrompt).Set("user_prompt", p.UserPrompt).
		Set("updated_at", now.Format(time.RFC3339)).
		Where(sq.Eq{"id": p.ID})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ProviderRepo) Get(ctx context.Context, id string) (*domain.Provider, error) {
	q := r.SQ.Select(providerColumns()...).From("providers").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	row := r.DB.QueryRowContext(ctx, sqlStr, args...)
	p, err := scanProvider(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrProviderNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProviderRepo) List(ctx context.Context) ([]*domain.Provider, error) {
	q := r.SQ.Select(providerColumns()...).From("providers").OrderBy("priority ASC", "id ASC")
	sqlStr, args, _ := q.ToSql()
	rows, err := r.DB.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*domain.Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProviderRepo) Delete(ctx context.Context, id string) error {
	q := r.SQ.Delete("providers").Where(sq.Eq{"id": id})
	sqlStr, args, _ := q.ToSql()
	_, err := r.DB.ExecContext(ctx, sqlStr, args...)
	return err
}

type rowScanner interface{ Scan(dest ...any) error }

func scanProvider(row rowScanner) (*domain.Provider, error) {
	var p domain.Provider
	var token, baseURL, apiKey, model, sysPrompt, userPrompt sql.NullString
	var created, updated string
	if err := row.Scan(&p.ID, &p.Name, &p.Kind, &p.Enabled, &p.Priority,
		&token, &baseURL, &apiKey, &model, &sysPrompt, &userPrompt, &created, &updated); err != nil {
		return nil, err
	}
	p.AccessToken = token.String
	p.BaseURL = baseURL.String
	p.APIKey = apiKey.String
	p.Model = model.String
	p.SystemPrompt = sysPrompt.String
	p.UserPrompt = userPrompt.String
	p.CreatedAt, _ = time.Parse(time.RFC3339, created)
	p.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return &p, nil
}
