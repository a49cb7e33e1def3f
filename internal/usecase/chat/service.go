// Package chat runs conversation turns against a chat-completion provider.
// Upstream SSE bytes are relayed to the caller untouched while a parsed
// copy accumulates the assistant reply, which is persisted on every
// terminal condition: completion, caller cancellation, or upstream error.
package chat

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"zotreader/internal/domain"
	"zotreader/internal/ports"
	"zotreader/internal/prompt"
	"zotreader/internal/sse"
)

const (
	// historyWindow is the number of prior messages included in the prompt.
	// Count-based, not token-based; oversized messages are the operator's
	// problem until that changes.
	historyWindow = 20
	// quoteBudget caps the quoted excerpt prefixed to the user message.
	quoteBudget = 500
	// streamTimeout bounds one conversational turn end to end.
	streamTimeout = 120 * time.Second

	settingChatPrompt = "chat_system_prompt"
	settingTargetLang = "default_target_lang"
)

// ContextBuilder supplies prompt material for a document.
type ContextBuilder interface {
	Build(ctx context.Context, itemKey string, maxFulltextTokens int) (*domain.PaperContext, error)
}

type Deps struct {
	Providers      ports.ProviderResolver
	History        ports.ChatRepository
	Settings       ports.SettingsRepository
	Context        ContextBuilder
	BuildCompleter func(*domain.Provider) ports.ChatCompleter
}

type Service struct{ d Deps }

func New(d Deps) *Service { return &Service{d: d} }

type SendRequest struct {
	ItemKey      string
	ProviderID   string
	Message      string
	SelectedText string
}

// Send runs one conversation turn, writing the provider's raw SSE bytes to
// w as they arrive. The caller contract is one turn at a time per document;
// the engine itself does not serialize concurrent sends.
//
// The user message is durably stored before the provider call, and the
// assistant message (full or partial, never empty) strictly after the
// stream terminates, so history ordering survives any failure mode.
func (s *Service) Send(ctx context.Context, w io.Writer, req SendRequest) error {
	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return domain.Validationf("message is required")
	}
	if req.ItemKey == "" {
		return domain.Validationf("document id is required")
	}
	if req.ProviderID == "" {
		return domain.Validationf("provider id is required")
	}

	p, err := s.d.Providers.Resolve(ctx, req.ProviderID)
	if err != nil {
		return err
	}
	if p.Kind != domain.KindChatCompletion {
		return domain.ErrUnsupportedProviderKind
	}
	if p.BaseURL == "" || p.APIKey == "" || p.Model == "" {
		return domain.ErrProviderMisconfigured
	}

	msgs, userContent, err := s.buildPrompt(ctx, req)
	if err != nil {
		return err
	}

	// Persist the user message before the network call so the history is
	// durable even if the stream never starts.
	if err := s.d.History.Append(ctx, &domain.ChatMessage{
		ItemKey: req.ItemKey,
		Role:    domain.RoleUser,
		Content: userContent,
	}); err != nil {
		return err
	}

	streamCtx, cancel := context.WithTimeout(ctx, streamTimeout)
	defer cancel()
	body, err := s.d.BuildCompleter(p).Stream(streamCtx, msgs, 0.7)
	if err != nil {
		return err
	}
	defer body.Close()

	reply, relayErr := s.relay(w, body)

	// Persistence is decoupled from client connectivity: use a fresh
	// context so a cancelled caller cannot lose the partial reply.
	if reply != "" {
		saveCtx, saveCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer saveCancel()
		if err := s.d.History.Append(saveCtx, &domain.ChatMessage{
			ItemKey: req.ItemKey,
			Role:    domain.RoleAssistant,
			Content: reply,
		}); err != nil {
			return err
		}
	}
	if relayErr != nil {
		return fmt.Errorf("chat stream: %w", relayErr)
	}
	return nil
}

// relay forwards raw chunks to w while feeding a copy through the SSE
// parser to accumulate the reply text. It returns the trimmed accumulated
// text together with the first relay error, if any.
func (s *Service) relay(w io.Writer, body io.Reader) (string, error) {
	parser := sse.NewParser()
	var full strings.Builder
	buf := make([]byte, 4096)
	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			chunk := buf[:n]
			for _, ev := range parser.Feed(chunk) {
				if ev.Done {
					continue
				}
				if content, ok := sse.DeltaContent(ev.Data); ok {
					full.WriteString(content)
				}
			}
			if _, writeErr := w.Write(chunk); writeErr != nil {
				// Caller went away: stop relaying, keep what we have.
				return strings.TrimSpace(full.String()), writeErr
			}
		}
		if readErr == io.EOF {
			return strings.TrimSpace(full.String()), nil
		}
		if readErr != nil {
			return strings.TrimSpace(full.String()), readErr
		}
	}
}

func (s *Service) buildPrompt(ctx context.Context, req SendRequest) ([]ports.ChatTurn, string, error) {
	paper, err := s.d.Context.Build(ctx, req.ItemKey, 0)
	if err != nil {
		return nil, "", err
	}

	template, err := s.d.Settings.Get(ctx, settingChatPrompt)
	if err != nil {
		return nil, "", err
	}
	if template == "" {
		template = prompt.DefaultChatSystem
	}
	targetLang, err := s.d.Settings.Get(ctx, settingTargetLang)
	if err != nil {
		return nil, "", err
	}
	if targetLang == "" {
		targetLang = "zh"
	}
	system := prompt.Fill(template, map[string]string{
		"title":      paper.Title,
		"authors":    paper.Authors,
		"abstract":   paper.Abstract,
		"fulltext":   paper.Fulltext,
		"targetLang": prompt.LangName(targetLang),
	})

	history, err := s.d.History.Recent(ctx, req.ItemKey, historyWindow)
	if err != nil {
		return nil, "", err
	}

	msgs := make([]ports.ChatTurn, 0, len(history)+2)
	msgs = append(msgs, ports.ChatTurn{Role: domain.RoleSystem, Content: system})
	for _, m := range history {
		if m.Role == domain.RoleUser || m.Role == domain.RoleAssistant {
			msgs = append(msgs, ports.ChatTurn{Role: m.Role, Content: m.Content})
		}
	}

	userContent := req.Message
	if quote := strings.TrimSpace(req.SelectedText); quote != "" {
		userContent = fmt.Sprintf("[The user selected this passage]\n%q\n\n%s",
			truncateRunes(quote, quoteBudget), req.Message)
	}
	msgs = append(msgs, ports.ChatTurn{Role: domain.RoleUser, Content: userContent})
	return msgs, userContent, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// History returns a document's messages oldest-first.
func (s *Service) History(ctx context.Context, itemKey string, limit int) ([]*domain.ChatMessage, error) {
	if itemKey == "" {
		return nil, domain.Validationf("document id is required")
	}
	return s.d.History.List(ctx, itemKey, limit)
}

// Clear removes every message for the document.
func (s *Service) Clear(ctx context.Context, itemKey string) error {
	if itemKey == "" {
		return domain.Validationf("document id is required")
	}
	return s.d.History.Clear(ctx, itemKey)
}
