package sse

import "testing"

func TestParserSplitAcrossChunks(t *testing.T) {
	p := NewParser()

	// One event delivered in three fragments, cut mid-payload.
	if got := p.Feed([]byte("data: {\"choices\":[{\"del")); len(got) != 0 {
		t.Fatalf("incomplete line produced %d events", len(got))
	}
	if got := p.Feed([]byte("ta\":{\"content\":\"Hel")); len(got) != 0 {
		t.Fatalf("still incomplete line produced %d events", len(got))
	}
	events := p.Feed([]byte("lo\"}}]}\n\ndata: [DONE]\n"))
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	content, ok := DeltaContent(events[0].Data)
	if !ok || content != "Hello" {
		t.Errorf("DeltaContent = %q, %v; want %q, true", content, ok, "Hello")
	}
	if !events[1].Done {
		t.Error("second event should be the terminator")
	}
}

func TestParserSkipsNonDataLines(t *testing.T) {
	p := NewParser()
	events := p.Feed([]byte("event: ping\r\n: keepalive\r\ndata: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\r\n"))
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if content, ok := DeltaContent(events[0].Data); !ok || content != "x" {
		t.Errorf("DeltaContent = %q, %v", content, ok)
	}
}

func TestDeltaContentMalformed(t *testing.T) {
	for _, data := range []string{"not json", "{}", `{"choices":[]}`} {
		if content, ok := DeltaContent(data); ok || content != "" {
			t.Errorf("DeltaContent(%q) = %q, %v; want skip", data, content, ok)
		}
	}
}

func TestDeltaContentEmptyDelta(t *testing.T) {
	// Role-only first chunk: parseable, contributes no text.
	content, ok := DeltaContent(`{"choices":[{"delta":{"role":"assistant"}}]}`)
	if !ok || content != "" {
		t.Errorf("got %q, %v; want empty content, true", content, ok)
	}
}
