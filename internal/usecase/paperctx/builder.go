// Package paperctx turns a Zotero item into prompt material for the
// conversation engine: metadata plus a token-budgeted slice of the
// indexed full text.
package paperctx

import (
	"context"
	"strings"
	"unicode/utf8"

	"zotreader/internal/domain"
	"zotreader/internal/ports"
)

// DefaultFulltextTokens is the full-text budget applied when the caller
// passes 0. Roughly 9k characters with the 1.5 chars-per-token estimate.
const DefaultFulltextTokens = 6000

const truncationMarker = "\n\n[... document truncated ...]"

type Builder struct {
	library ports.LibraryClient
}

func New(library ports.LibraryClient) *Builder { return &Builder{library: library} }

// Build fetches the item's metadata and full-text index concurrently and
// assembles a PaperContext. A missing full-text index is not an error; the
// context simply carries no body text.
func (b *Builder) Build(ctx context.Context, itemKey string, maxFulltextTokens int) (*domain.PaperContext, error) {
	if maxFulltextTokens <= 0 {
		maxFulltextTokens = DefaultFulltextTokens
	}

	var (
		item    *domain.Item
		full    *domain.Fulltext
		itemErr error
		fullErr error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		full, fullErr = b.library.Fulltext(ctx, itemKey)
	}()
	item, itemErr = b.library.Item(ctx, itemKey)
	<-done
	if itemErr != nil {
		return nil, itemErr
	}
	if fullErr != nil {
		return nil, fullErr
	}

	pc := &domain.PaperContext{
		Title:    item.Data.Title,
		Authors:  domain.FormatCreators(item.Data.Creators),
		Journal:  item.Data.PublicationTitle,
		Abstract: item.Data.AbstractNote,
	}
	if full != nil {
		pc.Fulltext, pc.Truncated = clampToBudget(full.Content, maxFulltextTokens)
	}
	return pc, nil
}

// BuildFromMeta assembles a context from caller-supplied metadata without
// touching the library. Used by translation requests that carry their own
// paper context.
func (b *Builder) BuildFromMeta(meta domain.TranslationContext) *domain.PaperContext {
	return &domain.PaperContext{
		Title:    meta.Title,
		Authors:  meta.Authors,
		Journal:  meta.Journal,
		Abstract: meta.Abstract,
	}
}

// EstimateTokens approximates the token count of text as
// ceil(charCount/1.5). Counted in runes, not bytes, so CJK documents
// are not charged three tokens per character.
func EstimateTokens(text string) int {
	return (utf8.RuneCountInString(text)*2 + 2) / 3
}

// clampToBudget cuts text to the character equivalent of maxTokens and
// appends a marker when anything was dropped.
func clampToBudget(text string, maxTokens int) (string, bool) {
	text = strings.TrimSpace(text)
	if EstimateTokens(text) <= maxTokens {
		return text, false
	}
	maxChars := maxTokens * 3 / 2
	kept := 0
	for i := range text {
		if kept == maxChars {
			return text[:i] + truncationMarker, true
		}
		kept++
	}
	return text, false
}
