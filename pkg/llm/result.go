package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ResultKind tags the known upstream response shapes. Model servers answer
// with a single chat message, a stream of chunks, or a bare completion object
// carrying a "response" field; anything else falls through to Raw.
type ResultKind int

const (
	KindText ResultKind = iota
	KindChunks
	KindStructured
	KindRaw
)

// Result is the tagged union a generation call is normalized into before the
// rest of the pipeline sees it.
type Result struct {
	Kind     ResultKind
	Text     string
	Chunks   []string
	Response string
	Raw      json.RawMessage
}

type resultEnvelope struct {
	Message *struct {
		Content string `json:"content"`
	} `json:"message"`
	Response *string `json:"response"`
}

// ParseResult classifies a raw upstream body. A body of newline-separated
// JSON objects is a chunk stream; a single object is either a chat message
// or a completion; a non-JSON body is taken as plain text.
func ParseResult(body []byte) *Result {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return &Result{Kind: KindText, Text: ""}
	}

	if trimmed[0] != '{' {
		return &Result{Kind: KindText, Text: string(trimmed)}
	}

	lines := splitJSONLines(trimmed)
	if len(lines) > 1 {
		chunks := make([]string, 0, len(lines))
		for _, line := range lines {
			var env resultEnvelope
			if err := json.Unmarshal(line, &env); err != nil {
				continue
			}
			if env.Message != nil {
				chunks = append(chunks, env.Message.Content)
			} else if env.Response != nil {
				chunks = append(chunks, *env.Response)
			}
		}
		return &Result{Kind: KindChunks, Chunks: chunks}
	}

	var env resultEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return &Result{Kind: KindRaw, Raw: append(json.RawMessage{}, trimmed...)}
	}

	switch {
	case env.Message != nil:
		return &Result{Kind: KindText, Text: env.Message.Content}
	case env.Response != nil:
		return &Result{Kind: KindStructured, Response: *env.Response}
	default:
		return &Result{Kind: KindRaw, Raw: append(json.RawMessage{}, trimmed...)}
	}
}

// Normalize resolves the union to one string. Chunk streams are drained and
// concatenated in order; unknown shapes degrade to their JSON text rather
// than failing the request.
func (r *Result) Normalize() string {
	switch r.Kind {
	case KindText:
		return r.Text
	case KindChunks:
		return strings.Join(r.Chunks, "")
	case KindStructured:
		return r.Response
	default:
		return string(r.Raw)
	}
}

func splitJSONLines(body []byte) []json.RawMessage {
	var lines []json.RawMessage
	for _, line := range bytes.Split(body, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		lines = append(lines, json.RawMessage(line))
	}
	return lines
}
