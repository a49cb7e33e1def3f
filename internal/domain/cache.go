package domain

import "time"

// CacheEntry is a content-addressed translation cache row. Hash is computed
// over (source text, target language, provider id); one entry per hash, last
// writer wins. Entries never expire on their own.
type CacheEntry struct {
	ID           int64     `json:"id"`
	Hash         string    `json:"hash"`
	SourceText   string    `json:"sourceText"`
	TargetLang   string    `json:"targetLang"`
	ProviderID   string    `json:"providerId"`
	Translation  string    `json:"translation"`
	Alternatives []string  `json:"alternatives,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryPage is one page of translation history plus the total match count.
type HistoryPage struct {
	Records []*CacheEntry `json:"records"`
	Total   int           `json:"total"`
}
