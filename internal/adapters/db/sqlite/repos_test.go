package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"zotreader/internal/domain"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProviderRepoCRUD(t *testing.T) {
	repo := NewProviderRepo(testDB(t))
	ctx := context.Background()

	p := &domain.Provider{
		ID:          "id-1",
		Name:        "DeepLX",
		Kind:        domain.KindRestTranslator,
		Enabled:     true,
		Priority:    0,
		AccessToken: "blob-a",
	}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := repo.Get(ctx, "id-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "DeepLX" || got.Kind != domain.KindRestTranslator || !got.Enabled {
		t.Errorf("Get = %+v", got)
	}
	if got.AccessToken != "blob-a" {
		t.Errorf("AccessToken = %q", got.AccessToken)
	}

	got.Name = "DeepLX local"
	got.Enabled = false
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	got, _ = repo.Get(ctx, "id-1")
	if got.Name != "DeepLX local" || got.Enabled {
		t.Errorf("after Update: %+v", got)
	}

	if err := repo.Delete(ctx, "id-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.Get(ctx, "id-1"); !errors.Is(err, domain.ErrProviderNotFound) {
		t.Errorf("Get after delete: %v, want ErrProviderNotFound", err)
	}
}

func TestProviderRepoListOrder(t *testing.T) {
	repo := NewProviderRepo(testDB(t))
	ctx := context.Background()

	for _, p := range []*domain.Provider{
		{ID: "b", Name: "second", Kind: domain.KindChatCompletion, Priority: 1},
		{ID: "a", Name: "first", Kind: domain.KindRestTranslator, Priority: 0},
	} {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}
	list, err := repo.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Errorf("List order: %v, %v", list[0].ID, list[1].ID)
	}
}

func TestCacheRepoUpsertAndMiss(t *testing.T) {
	repo := NewCacheRepo(testDB(t))
	ctx := context.Background()

	miss, err := repo.GetByHash(ctx, "nope")
	if err != nil || miss != nil {
		t.Fatalf("miss = %+v, %v; want nil, nil", miss, err)
	}

	entry := &domain.CacheEntry{
		Hash:         "h1",
		SourceText:   "hello",
		TargetLang:   "zh",
		ProviderID:   "p1",
		Translation:  "你好",
		Alternatives: []string{"您好", "哈喽"},
	}
	if err := repo.Put(ctx, entry); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, err := repo.GetByHash(ctx, "h1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Translation != "你好" {
		t.Fatalf("hit = %+v", got)
	}
	if len(got.Alternatives) != 2 || got.Alternatives[1] != "哈喽" {
		t.Errorf("alternatives = %v", got.Alternatives)
	}

	// Same hash again: last writer wins, no duplicate row.
	entry.Translation = "你好呀"
	entry.Alternatives = nil
	if err := repo.Put(ctx, entry); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	got, _ = repo.GetByHash(ctx, "h1")
	if got.Translation != "你好呀" || got.Alternatives != nil {
		t.Errorf("after upsert: %+v", got)
	}
	page, err := repo.History(ctx, 0, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 {
		t.Errorf("Total = %d, want 1 after upsert", page.Total)
	}
}

func TestCacheRepoHistorySearch(t *testing.T) {
	repo := NewCacheRepo(testDB(t))
	ctx := context.Background()

	seed := []struct{ hash, src, tr string }{
		{"h1", "Attention mechanism", "注意力机制"},
		{"h2", "Gradient descent", "梯度下降"},
		{"h3", "the attention weights", "注意力权重"},
	}
	for _, s := range seed {
		if err := repo.Put(ctx, &domain.CacheEntry{
			Hash: s.hash, SourceText: s.src, TargetLang: "zh", ProviderID: "p1", Translation: s.tr,
		}); err != nil {
			t.Fatal(err)
		}
	}

	page, err := repo.History(ctx, 0, 10, "ATTENTION")
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || len(page.Records) != 2 {
		t.Fatalf("search: total=%d records=%d, want 2", page.Total, len(page.Records))
	}

	// Search also covers the translated side.
	page, err = repo.History(ctx, 0, 10, "梯度")
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Records[0].SourceText != "Gradient descent" {
		t.Errorf("translation search: %+v", page)
	}

	// LIKE metacharacters in the query match literally, not as wildcards.
	if err := repo.Put(ctx, &domain.CacheEntry{
		Hash: "h4", SourceText: "accuracy of 100%", TargetLang: "zh",
		ProviderID: "p1", Translation: "准确率为100%",
	}); err != nil {
		t.Fatal(err)
	}
	page, err = repo.History(ctx, 0, 10, "100%")
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 1 || page.Records[0].SourceText != "accuracy of 100%" {
		t.Errorf("literal %% search: total=%d %+v", page.Total, page.Records)
	}
	if page, err = repo.History(ctx, 0, 10, "100_"); err != nil {
		t.Fatal(err)
	} else if page.Total != 0 {
		t.Errorf("underscore acted as a wildcard: total=%d", page.Total)
	}

	// Paging: offset past the end yields an empty page, total intact.
	page, err = repo.History(ctx, 10, 10, "")
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 4 || len(page.Records) != 0 {
		t.Errorf("offset page: total=%d records=%d", page.Total, len(page.Records))
	}
}

func TestCacheRepoDeleteAndClear(t *testing.T) {
	repo := NewCacheRepo(testDB(t))
	ctx := context.Background()

	for _, h := range []string{"h1", "h2"} {
		if err := repo.Put(ctx, &domain.CacheEntry{
			Hash: h, SourceText: h, TargetLang: "zh", ProviderID: "p", Translation: "t",
		}); err != nil {
			t.Fatal(err)
		}
	}
	page, _ := repo.History(ctx, 0, 10, "")
	if err := repo.DeleteRecord(ctx, page.Records[0].ID); err != nil {
		t.Fatal(err)
	}
	page, _ = repo.History(ctx, 0, 10, "")
	if page.Total != 1 {
		t.Errorf("after delete: total = %d", page.Total)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	page, _ = repo.History(ctx, 0, 10, "")
	if page.Total != 0 {
		t.Errorf("after clear: total = %d", page.Total)
	}
}

func TestChatRepoOrdering(t *testing.T) {
	repo := NewChatRepo(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"q1", "a1", "q2", "a2", "q3"} {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		if err := repo.Append(ctx, &domain.ChatMessage{
			ItemKey:   "DOC1",
			Role:      role,
			Content:   content,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatal(err)
		}
	}
	// A second document must not leak into DOC1 queries.
	if err := repo.Append(ctx, &domain.ChatMessage{
		ItemKey: "DOC2", Role: domain.RoleUser, Content: "other",
	}); err != nil {
		t.Fatal(err)
	}

	all, err := repo.List(ctx, "DOC1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 5 || all[0].Content != "q1" || all[4].Content != "q3" {
		t.Fatalf("List = %d messages, first %q last %q", len(all), all[0].Content, all[len(all)-1].Content)
	}

	recent, err := repo.Recent(ctx, "DOC1", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 3 {
		t.Fatalf("Recent = %d messages, want 3", len(recent))
	}
	// Last n, still oldest-first.
	if recent[0].Content != "q2" || recent[2].Content != "q3" {
		t.Errorf("Recent order: %q .. %q", recent[0].Content, recent[2].Content)
	}

	if err := repo.Clear(ctx, "DOC1"); err != nil {
		t.Fatal(err)
	}
	all, _ = repo.List(ctx, "DOC1", 0)
	if len(all) != 0 {
		t.Errorf("after Clear: %d messages", len(all))
	}
	other, _ := repo.List(ctx, "DOC2", 0)
	if len(other) != 1 {
		t.Errorf("Clear leaked into another document: %d messages", len(other))
	}
}

func TestChatRepoOrderingSubSecond(t *testing.T) {
	// Variable-width fractional seconds sort wrong as text: ".5Z" compares
	// after ".51Z". Insertion order must win regardless of timestamp shape.
	repo := NewChatRepo(testDB(t))
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)
	if err := repo.Append(ctx, &domain.ChatMessage{
		ItemKey: "DOC1", Role: domain.RoleUser, Content: "question",
		CreatedAt: base.Add(500 * time.Millisecond),
	}); err != nil {
		t.Fatal(err)
	}
	if err := repo.Append(ctx, &domain.ChatMessage{
		ItemKey: "DOC1", Role: domain.RoleAssistant, Content: "answer",
		CreatedAt: base.Add(510 * time.Millisecond),
	}); err != nil {
		t.Fatal(err)
	}

	msgs, err := repo.List(ctx, "DOC1", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Role != domain.RoleUser || msgs[1].Role != domain.RoleAssistant {
		t.Fatalf("List order: %q then %q", msgs[0].Role, msgs[1].Role)
	}

	recent, err := repo.Recent(ctx, "DOC1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if recent[0].Content != "question" || recent[1].Content != "answer" {
		t.Errorf("Recent order: %q then %q", recent[0].Content, recent[1].Content)
	}
}

func TestSettingsRepo(t *testing.T) {
	repo := NewSettingsRepo(testDB(t))
	ctx := context.Background()

	v, err := repo.Get(ctx, "absent")
	if err != nil || v != "" {
		t.Fatalf("absent key: %q, %v; want empty, nil", v, err)
	}
	if err := repo.Set(ctx, "default_target_lang", "zh"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Set(ctx, "default_target_lang", "ja"); err != nil {
		t.Fatal(err)
	}
	v, err = repo.Get(ctx, "default_target_lang")
	if err != nil || v != "ja" {
		t.Errorf("Get = %q, %v; want ja", v, err)
	}
}

func TestPdfCacheRepo(t *testing.T) {
	repo := NewPdfCacheRepo(testDB(t))
	ctx := context.Background()

	miss, err := repo.Get(ctx, "nope")
	if err != nil || miss != nil {
		t.Fatalf("miss = %+v, %v", miss, err)
	}

	if err := repo.Put(ctx, "ATT1", "/cache/ATT1.pdf", 1000, `"etag1"`); err != nil {
		t.Fatal(err)
	}
	if err := repo.Put(ctx, "ATT2", "/cache/ATT2.pdf", 2000, `"etag2"`); err != nil {
		t.Fatal(err)
	}

	info, err := repo.Get(ctx, "ATT1")
	if err != nil {
		t.Fatal(err)
	}
	if info.FilePath != "/cache/ATT1.pdf" || info.Size != 1000 || info.ETag != `"etag1"` {
		t.Errorf("Get = %+v", info)
	}

	total, err := repo.TotalSize(ctx)
	if err != nil || total != 3000 {
		t.Errorf("TotalSize = %d, %v; want 3000", total, err)
	}

	// ATT1 was just accessed, so ATT2 is now the eviction candidate.
	oldest, err := repo.Oldest(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(oldest) != 1 || oldest[0].AttachmentKey != "ATT2" {
		t.Errorf("Oldest = %+v", oldest)
	}

	if err := repo.Delete(ctx, "ATT2"); err != nil {
		t.Fatal(err)
	}
	total, _ = repo.TotalSize(ctx)
	if total != 1000 {
		t.Errorf("TotalSize after delete = %d", total)
	}
}
