// Package deeplx implements the rest_translator provider contract against a
// DeepLX-compatible endpoint.
package deeplx

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"zotreader/internal/domain"
	"zotreader/internal/ports"
)

const defaultBaseURL = "https://api.deeplx.org"

// ISO 639-1 → DeepL language vocabulary.
var langMap = map[string]string{
	"zh":   "ZH",
	"en":   "EN",
	"ja":   "JA",
	"ko":   "KO",
	"fr":   "FR",
	"de":   "DE",
	"es":   "ES",
	"pt":   "PT",
	"ru":   "RU",
	"it":   "IT",
	"auto": "auto",
}

func mapLang(code string) string {
	if v, ok := langMap[strings.ToLower(code)]; ok {
		return v
	}
	return strings.ToUpper(code)
}

type Client struct {
	Token   string
	BaseURL string
	http    *resty.Client
}

func New(token string) *Client {
	return &Client{
		Token:   token,
		BaseURL: defaultBaseURL,
		http:    resty.New().SetTimeout(10 * time.Second),
	}
}

func (c *Client) Translate(ctx context.Context, q ports.TranslateQuery) (ports.TranslateOutcome, error) {
	url := strings.TrimRight(c.BaseURL, "/") + "/" + c.Token + "/translate"
	body := map[string]string{
		"text":        q.Text,
		"source_lang": mapLang(q.SourceLang),
		"target_lang": mapLang(q.TargetLang),
	}
	var resp struct {
		Code         int      `json:"code"`
		Message      string   `json:"message"`
		Data         string   `json:"data"`
		Alternatives []string `json:"alternatives"`
	}
	r, err := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).SetResult(&resp).
		Post(url)
	if err != nil {
		return ports.TranslateOutcome{}, fmt.Errorf("deeplx translate: %w", err)
	}
	if r.StatusCode() == http.StatusTooManyRequests {
		return ports.TranslateOutcome{}, domain.ErrRateLimited
	}
	if r.IsError() {
		return ports.TranslateOutcome{}, domain.NewUpstreamError("deeplx", r.StatusCode(), r.String())
	}
	if resp.Code != 200 {
		return ports.TranslateOutcome{}, domain.NewUpstreamError("deeplx", resp.Code, resp.Message)
	}
	if resp.Data == "" {
		return ports.TranslateOutcome{}, domain.ErrEmptyResult
	}
	return ports.TranslateOutcome{Translation: resp.Data, Alternatives: resp.Alternatives}, nil
}
