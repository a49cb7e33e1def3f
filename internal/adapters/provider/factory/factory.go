// Package factory builds concrete provider adapters from config records.
package factory

import (
	"zotreader/internal/adapters/provider/deeplx"
	"zotreader/internal/adapters/provider/openaicompat"
	"zotreader/internal/domain"
	"zotreader/internal/ports"
)

// Translator returns the REST translation adapter for the given record.
// The record's secrets must already be decrypted.
func Translator(p *domain.Provider) ports.RestTranslator {
	c := deeplx.New(p.AccessToken)
	if p.BaseURL != "" {
		c.BaseURL = p.BaseURL
	}
	return c
}

// Completer returns the chat-completion adapter for the given record.
func Completer(p *domain.Provider) ports.ChatCompleter {
	return openaicompat.New(p.BaseURL, p.APIKey, p.Model)
}
