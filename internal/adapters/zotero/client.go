// Package zotero wraps the Zotero Web API v3. Credentials come from the
// settings store and are decrypted at call time; 429 replies are retried
// with the server's Retry-After hint up to a fixed attempt ceiling.
package zotero

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"zotreader/internal/domain"
	"zotreader/internal/ports"
)

const (
	defaultBaseURL = "https://api.zotero.org"
	apiVersion     = "3"

	// maxAttempts bounds the 429 retry loop: 1 call + 2 retries.
	maxAttempts = 3

	settingUserID = "zotero_user_id"
	settingAPIKey = "zotero_api_key"
)

type Client struct {
	BaseURL  string
	settings ports.SettingsRepository
	vault    ports.SecretVault
	http     *resty.Client
}

func New(settings ports.SettingsRepository, vault ports.SecretVault) *Client {
	c := &Client{
		BaseURL:  defaultBaseURL,
		settings: settings,
		vault:    vault,
	}
	c.http = newRetryingClient()
	return c
}

// newRetryingClient builds a resty client whose retry policy sleeps for the
// upstream Retry-After hint on 429 and gives up after maxAttempts.
func newRetryingClient() *resty.Client {
	return resty.New().
		SetTimeout(60 * time.Second).
		SetRetryCount(maxAttempts - 1).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err == nil && r != nil && r.StatusCode() == http.StatusTooManyRequests
		}).
		SetRetryAfter(func(_ *resty.Client, r *resty.Response) (time.Duration, error) {
			secs, convErr := strconv.Atoi(r.Header().Get("Retry-After"))
			if convErr != nil || secs < 0 {
				secs = 5
			}
			return time.Duration(secs) * time.Second, nil
		})
}

type account struct {
	userID string
	apiKey string
}

func (c *Client) account(ctx context.Context) (account, error) {
	userID, err := c.settings.Get(ctx, settingUserID)
	if err != nil {
		return account{}, err
	}
	blob, err := c.settings.Get(ctx, settingAPIKey)
	if err != nil {
		return account{}, err
	}
	if userID == "" || blob == "" {
		return account{}, domain.ErrNotConfigured
	}
	apiKey, err := c.vault.Decrypt(blob)
	if err != nil {
		return account{}, err
	}
	return account{userID: userID, apiKey: apiKey}, nil
}

func (c *Client) request(ctx context.Context, apiKey string) *resty.Request {
	return c.http.R().SetContext(ctx).
		SetHeader("Zotero-API-Key", apiKey).
		SetHeader("Zotero-API-Version", apiVersion)
}

// checkStatus maps a terminal reply to the error taxonomy. 304 passes.
func checkStatus(r *resty.Response) error {
	switch {
	case r.StatusCode() == http.StatusTooManyRequests:
		// Retries exhausted.
		return domain.ErrRateLimited
	case r.StatusCode() == http.StatusNotModified:
		return nil
	case r.IsError():
		return domain.NewUpstreamError("zotero", r.StatusCode(), r.String())
	}
	return nil
}

func (c *Client) Collections(ctx context.Context, parentKey string) ([]domain.Collection, error) {
	acct, err := c.account(ctx)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/users/%s/collections/top", acct.userID)
	if parentKey != "" {
		path = fmt.Sprintf("/users/%s/collections/%s/collections", acct.userID, parentKey)
	}
	var out []domain.Collection
	r, err := c.request(ctx, acct.apiKey).
		SetQueryParam("limit", "100").
		SetResult(&out).
		Get(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("zotero collections: %w", err)
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Items(ctx context.Context, q ports.ItemQuery) (*domain.ItemPage, error) {
	acct, err := c.account(ctx)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/users/%s/items/top", acct.userID)
	if q.CollectionKey != "" {
		path = fmt.Sprintf("/users/%s/collections/%s/items/top", acct.userID, q.CollectionKey)
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 25
	}
	sort := q.Sort
	if sort == "" {
		sort = "dateModified"
	}
	direction := q.Direction
	if direction == "" {
		direction = "desc"
	}
	req := c.request(ctx, acct.apiKey).
		SetQueryParam("limit", strconv.Itoa(limit)).
		SetQueryParam("start", strconv.Itoa(q.Start)).
		SetQueryParam("sort", sort).
		SetQueryParam("direction", direction)
	if q.Query != "" {
		req.SetQueryParam("q", q.Query)
	}
	var items []domain.Item
	r, err := req.SetResult(&items).Get(c.BaseURL + path)
	if err != nil {
		return nil, fmt.Errorf("zotero items: %w", err)
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	total, _ := strconv.Atoi(r.Header().Get("Total-Results"))
	return &domain.ItemPage{Items: items, TotalResults: total}, nil
}

func (c *Client) Item(ctx context.Context, key string) (*domain.Item, error) {
	acct, err := c.account(ctx)
	if err != nil {
		return nil, err
	}
	var item domain.Item
	r, err := c.request(ctx, acct.apiKey).
		SetResult(&item).
		Get(fmt.Sprintf("%s/users/%s/items/%s", c.BaseURL, acct.userID, key))
	if err != nil {
		return nil, fmt.Errorf("zotero item %s: %w", key, err)
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	return &item, nil
}

func (c *Client) Children(ctx context.Context, key string) ([]domain.Item, error) {
	acct, err := c.account(ctx)
	if err != nil {
		return nil, err
	}
	var items []domain.Item
	r, err := c.request(ctx, acct.apiKey).
		SetResult(&items).
		Get(fmt.Sprintf("%s/users/%s/items/%s/children", c.BaseURL, acct.userID, key))
	if err != nil {
		return nil, fmt.Errorf("zotero children %s: %w", key, err)
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	return items, nil
}

// DownloadFile streams an attachment's bytes. A non-empty etag makes the
// fetch conditional; a 304 reply is reported via NotModified.
func (c *Client) DownloadFile(ctx context.Context, attachmentKey, etag string) (*ports.FileDownload, error) {
	acct, err := c.account(ctx)
	if err != nil {
		return nil, err
	}
	req := c.request(ctx, acct.apiKey).SetDoNotParseResponse(true)
	if etag != "" {
		req.SetHeader("If-None-Match", etag)
	}
	r, err := req.Get(fmt.Sprintf("%s/users/%s/items/%s/file", c.BaseURL, acct.userID, attachmentKey))
	if err != nil {
		return nil, fmt.Errorf("zotero file %s: %w", attachmentKey, err)
	}
	raw := r.RawBody()
	switch {
	case r.StatusCode() == http.StatusNotModified:
		_ = raw.Close()
		return &ports.FileDownload{NotModified: true, ETag: etag}, nil
	case r.StatusCode() == http.StatusTooManyRequests:
		_ = raw.Close()
		return nil, domain.ErrRateLimited
	case r.StatusCode() < 200 || r.StatusCode() >= 300:
		excerpt, _ := io.ReadAll(io.LimitReader(raw, 512))
		_ = raw.Close()
		return nil, domain.NewUpstreamError("zotero", r.StatusCode(), string(excerpt))
	}
	return &ports.FileDownload{Body: raw, ETag: r.Header().Get("ETag")}, nil
}

// Fulltext returns (nil, nil) when the item has no full-text index.
func (c *Client) Fulltext(ctx context.Context, itemKey string) (*domain.Fulltext, error) {
	acct, err := c.account(ctx)
	if err != nil {
		return nil, err
	}
	var ft domain.Fulltext
	r, err := c.request(ctx, acct.apiKey).
		SetResult(&ft).
		Get(fmt.Sprintf("%s/users/%s/items/%s/fulltext", c.BaseURL, acct.userID, itemKey))
	if err != nil {
		return nil, fmt.Errorf("zotero fulltext %s: %w", itemKey, err)
	}
	if r.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if err := checkStatus(r); err != nil {
		return nil, err
	}
	return &ft, nil
}

// TestConnection probes the given account without touching stored settings.
func (c *Client) TestConnection(ctx context.Context, userID, apiKey string) error {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(apiKey) == "" {
		return domain.ErrNotConfigured
	}
	r, err := c.request(ctx, apiKey).
		SetQueryParam("limit", "1").
		Get(fmt.Sprintf("%s/users/%s/collections", c.BaseURL, userID))
	if err != nil {
		return fmt.Errorf("zotero probe: %w", err)
	}
	return checkStatus(r)
}
