package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"zotreader/internal/adapters/secrets"
	"zotreader/internal/adapters/zotero"
	"zotreader/internal/domain"
	"zotreader/internal/ports"
	"zotreader/internal/usecase/chat"
	"zotreader/internal/usecase/registry"
	"zotreader/internal/usecase/translator"
)

type memProviderRepo struct {
	rows map[string]*domain.Provider
}

func (r *memProviderRepo) Create(ctx context.Context, p *domain.Provider) error {
	cp := *p
	r.rows[p.ID] = &cp
	return nil
}

func (r *memProviderRepo) Update(ctx context.Context, p *domain.Provider) error {
	cp := *p
	r.rows[p.ID] = &cp
	return nil
}

func (r *memProviderRepo) Get(ctx context.Context, id string) (*domain.Provider, error) {
	p, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrProviderNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memProviderRepo) List(ctx context.Context) ([]*domain.Provider, error) {
	out := make([]*domain.Provider, 0, len(r.rows))
	for _, p := range r.rows {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memProviderRepo) Delete(ctx context.Context, id string) error {
	delete(r.rows, id)
	return nil
}

type memCache struct{}

func (memCache) GetByHash(ctx context.Context, hash string) (*domain.CacheEntry, error) {
	return nil, nil
}
func (memCache) Put(ctx context.Context, entry *domain.CacheEntry) error { return nil }
func (memCache) History(ctx context.Context, offset, limit int, search string) (*domain.HistoryPage, error) {
	return &domain.HistoryPage{Records: []*domain.CacheEntry{}}, nil
}
func (memCache) DeleteRecord(ctx context.Context, id int64) error { return nil }
func (memCache) Clear(ctx context.Context) error                  { return nil }

type memSettings map[string]string

func (m memSettings) Get(ctx context.Context, key string) (string, error) { return m[key], nil }
func (m memSettings) Set(ctx context.Context, key, value string) error {
	m[key] = value
	return nil
}

type echoTranslator struct{}

func (echoTranslator) Translate(ctx context.Context, q ports.TranslateQuery) (ports.TranslateOutcome, error) {
	return ports.TranslateOutcome{Translation: "[" + q.TargetLang + "] " + q.Text}, nil
}

type memChatHistory struct{ msgs []*domain.ChatMessage }

func (h *memChatHistory) Append(ctx context.Context, m *domain.ChatMessage) error {
	h.msgs = append(h.msgs, m)
	return nil
}

func (h *memChatHistory) List(ctx context.Context, itemKey string, limit int) ([]*domain.ChatMessage, error) {
	return h.msgs, nil
}

func (h *memChatHistory) Recent(ctx context.Context, itemKey string, n int) ([]*domain.ChatMessage, error) {
	return h.msgs, nil
}

func (h *memChatHistory) Clear(ctx context.Context, itemKey string) error {
	h.msgs = nil
	return nil
}

type stubContext struct{}

func (stubContext) Build(ctx context.Context, itemKey string, maxFulltextTokens int) (*domain.PaperContext, error) {
	return &domain.PaperContext{Title: "Paper"}, nil
}

// brokenStream yields one SSE chunk and then fails, simulating an upstream
// connection reset mid-stream.
type brokenStream struct{ sent bool }

func (b *brokenStream) Read(p []byte) (int, error) {
	if !b.sent {
		b.sent = true
		chunk := "data: {\"choices\":[{\"delta\":{\"content\":\"partial\"}}]}\n\n"
		return copy(p, chunk), nil
	}
	return 0, errors.New("connection reset by peer")
}

func (b *brokenStream) Close() error { return nil }

type brokenCompleter struct{}

func (brokenCompleter) Complete(ctx context.Context, msgs []ports.ChatTurn, temperature float64) (string, error) {
	panic("not used")
}

func (brokenCompleter) Stream(ctx context.Context, msgs []ports.ChatTurn, temperature float64) (io.ReadCloser, error) {
	return &brokenStream{}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, memSettings) {
	t.Helper()
	vault := secrets.New("handler-test-secret")
	settings := memSettings{}
	providers := registry.New(registry.Deps{
		Providers:       &memProviderRepo{rows: map[string]*domain.Provider{}},
		Vault:           vault,
		BuildTranslator: func(*domain.Provider) ports.RestTranslator { return echoTranslator{} },
	})
	translate := translator.New(translator.Deps{
		Providers:       providers,
		Cache:           memCache{},
		BuildTranslator: func(*domain.Provider) ports.RestTranslator { return echoTranslator{} },
	})
	srv := NewServer(Deps{
		Log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		Providers:  providers,
		Translator: translate,
		Library:    zotero.New(settings, vault),
		Zotero:     zotero.New(settings, vault),
		Settings:   settings,
		Vault:      vault,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, settings
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestProviderLifecycleOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/providers",
		`{"name":"DeepLX","kind":"rest_translator","accessToken":"token-1234567890"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add status = %d", resp.StatusCode)
	}
	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)
	if created.ID == "" {
		t.Fatal("no id returned")
	}

	resp, err := http.Get(ts.URL + "/api/providers")
	if err != nil {
		t.Fatal(err)
	}
	var list []domain.Provider
	decodeBody(t, resp, &list)
	if len(list) != 1 {
		t.Fatalf("list = %d providers", len(list))
	}
	if list[0].AccessToken != "toke****7890" {
		t.Errorf("listed token = %q, want masked", list[0].AccessToken)
	}

	// Translate through the configured provider.
	resp = postJSON(t, ts.URL+"/api/translate",
		`{"text":"hello","targetLang":"zh","providerId":"`+created.ID+`"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("translate status = %d", resp.StatusCode)
	}
	var res translator.Result
	decodeBody(t, resp, &res)
	if res.Translation != "[zh] hello" {
		t.Errorf("translation = %q", res.Translation)
	}
}

func TestErrorMapping(t *testing.T) {
	ts, _ := newTestServer(t)

	// Missing fields → 400 with an error body.
	resp := postJSON(t, ts.URL+"/api/translate", `{"text":"hi"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("validation status = %d, want 400", resp.StatusCode)
	}
	var e struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &e)
	if e.Error == "" {
		t.Error("400 body has no error message")
	}

	// Unknown provider → 404.
	resp = postJSON(t, ts.URL+"/api/translate",
		`{"text":"hi","targetLang":"zh","providerId":"ghost"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown provider status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()

	// Unconfigured Zotero account → 400.
	resp, err := http.Get(ts.URL + "/api/library/items")
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unconfigured library status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestSettingsMaskedRoundTrip(t *testing.T) {
	ts, settings := newTestServer(t)

	put := func(body string) {
		req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/settings", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("put status = %d", resp.StatusCode)
		}
		resp.Body.Close()
	}

	put(`{"zoteroUserId":"12345","zoteroApiKey":"zot-key-abcdef1234"}`)
	storedBlob := settings["zotero_api_key"]
	if storedBlob == "" || storedBlob == "zot-key-abcdef1234" {
		t.Fatalf("api key stored as %q, want encrypted blob", storedBlob)
	}

	resp, err := http.Get(ts.URL + "/api/settings")
	if err != nil {
		t.Fatal(err)
	}
	var view struct {
		ZoteroUserID string `json:"zoteroUserId"`
		ZoteroAPIKey string `json:"zoteroApiKey"`
	}
	decodeBody(t, resp, &view)
	if view.ZoteroUserID != "12345" {
		t.Errorf("user id = %q", view.ZoteroUserID)
	}
	if view.ZoteroAPIKey != "zot-****1234" {
		t.Errorf("api key view = %q, want masked", view.ZoteroAPIKey)
	}

	// Echoing the masked value back must not clobber the stored blob.
	put(`{"zoteroApiKey":"` + view.ZoteroAPIKey + `"}`)
	if settings["zotero_api_key"] != storedBlob {
		t.Error("masked echo overwrote the stored key")
	}
}

func TestChatStreamErrorAfterFlush(t *testing.T) {
	// Once stream bytes reached the client, a mid-stream upstream failure
	// must not append a JSON error blob to the SSE body.
	vault := secrets.New("handler-test-secret")
	settings := memSettings{}
	providers := registry.New(registry.Deps{
		Providers: &memProviderRepo{rows: map[string]*domain.Provider{}},
		Vault:     vault,
	})
	history := &memChatHistory{}
	conversation := chat.New(chat.Deps{
		Providers:      providers,
		History:        history,
		Settings:       settings,
		Context:        stubContext{},
		BuildCompleter: func(*domain.Provider) ports.ChatCompleter { return brokenCompleter{} },
	})
	srv := NewServer(Deps{
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Providers: providers,
		Chat:      conversation,
		Settings:  settings,
		Vault:     vault,
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	id, err := providers.Add(context.Background(), &domain.Provider{
		Name: "gpt", Kind: domain.KindChatCompletion,
		BaseURL: "http://llm.local", APIKey: "sk-test", Model: "m",
	})
	if err != nil {
		t.Fatal(err)
	}

	resp := postJSON(t, ts.URL+"/api/chat", `{"message":"hi","documentId":"DOC1","providerId":"`+id+`"}`)
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	body := string(raw)
	if !strings.Contains(body, "partial") {
		t.Fatalf("streamed chunk missing from body: %q", body)
	}
	if strings.Contains(body, `"error"`) {
		t.Errorf("error blob leaked into the stream body: %q", body)
	}

	// The partial reply still lands in history behind the user message.
	if len(history.msgs) != 2 || history.msgs[1].Content != "partial" {
		t.Fatalf("history = %+v", history.msgs)
	}
}
