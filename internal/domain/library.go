package domain

import "strings"

// Zotero Web API v3 payloads, trimmed to the fields the reader uses.

type Collection struct {
	Key  string `json:"key"`
	Data struct {
		Name             string `json:"name"`
		ParentCollection any    `json:"parentCollection"` // string key or false
	} `json:"data"`
	Meta struct {
		NumCollections int `json:"numCollections"`
		NumItems       int `json:"numItems"`
	} `json:"meta"`
}

type Creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Name        string `json:"name,omitempty"`
}

type ItemData struct {
	Key              string    `json:"key"`
	ItemType         string    `json:"itemType"`
	Title            string    `json:"title,omitempty"`
	Creators         []Creator `json:"creators,omitempty"`
	AbstractNote     string    `json:"abstractNote,omitempty"`
	PublicationTitle string    `json:"publicationTitle,omitempty"`
	Date             string    `json:"date,omitempty"`
	DOI              string    `json:"DOI,omitempty"`
	URL              string    `json:"url,omitempty"`
	ContentType      string    `json:"contentType,omitempty"`
	Filename         string    `json:"filename,omitempty"`
}

type Item struct {
	Key  string   `json:"key"`
	Data ItemData `json:"data"`
}

// ItemPage is one page of items plus the Total-Results header value.
type ItemPage struct {
	Items        []Item `json:"items"`
	TotalResults int    `json:"totalResults"`
}

// Fulltext is an item's indexed full-text content.
type Fulltext struct {
	Content      string `json:"content"`
	IndexedChars int    `json:"indexedChars,omitempty"`
	TotalChars   int    `json:"totalChars,omitempty"`
}

// FormatCreators joins creator names for display and prompt material.
func FormatCreators(creators []Creator) string {
	names := make([]string, 0, len(creators))
	for _, c := range creators {
		switch {
		case c.Name != "":
			names = append(names, c.Name)
		case c.FirstName != "" || c.LastName != "":
			names = append(names, strings.TrimSpace(c.FirstName+" "+c.LastName))
		}
	}
	return strings.Join(names, ", ")
}
