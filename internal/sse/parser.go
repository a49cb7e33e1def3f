// Package sse implements an incremental parser for server-sent-event byte
// streams. The conversation engine relays upstream bytes to the client
// untouched and feeds a copy through a Parser to accumulate the reply text,
// so history durability never depends on client connectivity.
package sse

import (
	"bytes"
	"encoding/json"
	"strings"
)

const doneMarker = "[DONE]"

// Event is one parsed `data:` payload. Done is set for the terminator line.
type Event struct {
	Data string
	Done bool
}

// Parser is a line-oriented state machine over arbitrary chunk boundaries.
// Use one instance per stream; it is not restartable mid-stream.
type Parser struct {
	buf bytes.Buffer
}

func NewParser() *Parser { return &Parser{} }

// Feed consumes the next chunk and returns the events completed by it.
// Lines that are not data lines, and data lines with unparseable payloads,
// are simply skipped; the rest of the stream may still be well-formed.
func (p *Parser) Feed(chunk []byte) []Event {
	p.buf.Write(chunk)
	var events []Event
	for {
		raw := p.buf.Bytes()
		idx := bytes.IndexByte(raw, '\n')
		if idx < 0 {
			return events
		}
		line := strings.TrimRight(string(raw[:idx]), "\r")
		p.buf.Next(idx + 1)
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "" {
			continue
		}
		if data == doneMarker {
			events = append(events, Event{Done: true})
			continue
		}
		events = append(events, Event{Data: data})
	}
}

// DeltaContent extracts choices[0].delta.content from an OpenAI-style
// streaming payload. Malformed payloads report ok=false and are skipped.
func DeltaContent(data string) (content string, ok bool) {
	var payload struct {
		Choices []struct {
			Delta struct {
				Content string `json:"content"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(data), &payload); err != nil {
		return "", false
	}
	if len(payload.Choices) == 0 {
		return "", false
	}
	return payload.Choices[0].Delta.Content, true
}
