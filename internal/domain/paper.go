package domain

// PaperContext is the prompt material derived from a Zotero item. It is
// built per request and never persisted.
type PaperContext struct {
	Title     string `json:"title"`
	Authors   string `json:"authors"`
	Journal   string `json:"journal"`
	Abstract  string `json:"abstract"`
	Fulltext  string `json:"fulltext"`
	Truncated bool   `json:"truncated"`
}

// TranslationContext is caller-supplied paper context for LLM translation.
type TranslationContext struct {
	Title            string `json:"title,omitempty"`
	Authors          string `json:"authors,omitempty"`
	Journal          string `json:"journal,omitempty"`
	Abstract         string `json:"abstract,omitempty"`
	ParagraphContext string `json:"paragraphContext,omitempty"`
}
