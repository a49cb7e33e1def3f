package app

import (
	"net/http"
	"strconv"

	"zotreader/internal/domain"
	"zotreader/internal/usecase/chat"
)

type chatSendBody struct {
	Message      string `json:"message"`
	DocumentID   string `json:"documentId"`
	ProviderID   string `json:"providerId"`
	SelectedText string `json:"selectedText,omitempty"`
}

// flushWriter pushes each upstream chunk to the client immediately so the
// stream renders token by token. It remembers whether anything reached the
// wire, since an error after that point cannot become a status response.
type flushWriter struct {
	w       http.ResponseWriter
	f       http.Flusher
	written bool
}

func (fw *flushWriter) Write(p []byte) (int, error) {
	if len(p) > 0 {
		fw.written = true
	}
	n, err := fw.w.Write(p)
	if err == nil && fw.f != nil {
		fw.f.Flush()
	}
	return n, err
}

func (s *Server) handleChatSend(w http.ResponseWriter, r *http.Request) {
	var body chatSendBody
	if err := decode(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	fw := &flushWriter{w: w}
	if f, ok := w.(http.Flusher); ok {
		fw.f = f
	}

	err := s.d.Chat.Send(r.Context(), fw, chat.SendRequest{
		ItemKey:      body.DocumentID,
		ProviderID:   body.ProviderID,
		Message:      body.Message,
		SelectedText: body.SelectedText,
	})
	if err != nil {
		// Once stream bytes are on the wire the response is committed;
		// logging is all that is left. Before that, map to a status.
		if fw.written || r.Context().Err() != nil {
			s.d.Log.Error("chat stream aborted", "documentId", body.DocumentID, "err", err)
			return
		}
		s.fail(w, r, err)
	}
}

func (s *Server) handleChatHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	itemKey := q.Get("documentId")
	if itemKey == "" {
		s.fail(w, r, domain.Validationf("documentId is required"))
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	msgs, err := s.d.Chat.History(r.Context(), itemKey, limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, msgs)
}

func (s *Server) handleChatClear(w http.ResponseWriter, r *http.Request) {
	itemKey := r.URL.Query().Get("documentId")
	if itemKey == "" {
		s.fail(w, r, domain.Validationf("documentId is required"))
		return
	}
	if err := s.d.Chat.Clear(r.Context(), itemKey); err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"ok": true})
}
