// Package codec converts between a snippet group document on disk and the
// ordered snippet records the rest of snipdeck works with.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/tailscale/hujson"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

const (
	fieldScope       = "scope"
	fieldPrefix      = "prefix"
	fieldBody        = "body"
	fieldDescription = "description"
)

// ParseError is the soft diagnostic returned for a group document that cannot
// be read as a whole. Key names the entry at fault when only one entry is.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("malformed snippet %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("malformed snippet file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Warning records a field of unexpected type that was coerced to text.
type Warning struct {
	Key     string `json:"key"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("snippet %q: %s: %s", w.Key, w.Field, w.Message)
}

// Document is a decoded group document.
type Document struct {
	Snippets []snippet.Snippet
	Warnings []Warning
}

// Parse reads a group document. Keys become snippet names in document order.
// See Decode for the failure modes.
func Parse(raw []byte) ([]snippet.Snippet, error) {
	doc, err := Decode(raw)
	return doc.Snippets, err
}

// Decode reads a group document. Text that is not JSONC, or whose top level
// is not an object, yields no snippets and a *ParseError. An entry that is not
// an object is skipped and reported as a *ParseError while the other entries
// are kept. Fields of unexpected type are coerced and listed as warnings.
func Decode(raw []byte) (Document, error) {
	doc := Document{Snippets: []snippet.Snippet{}}
	if len(bytes.TrimSpace(raw)) == 0 {
		return doc, nil
	}

	std, err := standardize(raw)
	if err != nil {
		return doc, &ParseError{Err: err}
	}
	if !isObject(std) {
		return doc, &ParseError{Err: errors.New("top-level value must be an object")}
	}

	entries := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(std, entries); err != nil {
		return doc, &ParseError{Err: err}
	}

	var entryErr error
	for pair := entries.Oldest(); pair != nil; pair = pair.Next() {
		s, warnings, err := parseEntry(pair.Key, pair.Value)
		if err != nil {
			if entryErr == nil {
				entryErr = &ParseError{Key: pair.Key, Err: err}
			}
			continue
		}
		doc.Snippets = append(doc.Snippets, s)
		doc.Warnings = append(doc.Warnings, warnings...)
	}
	return doc, entryErr
}

// IsJSONC reports whether raw relies on comments or trailing commas.
// Those are accepted on read and dropped on the next write.
func IsJSONC(raw []byte) bool {
	if len(bytes.TrimSpace(raw)) == 0 {
		return false
	}
	value, err := hujson.Parse(raw)
	if err != nil {
		return false
	}
	return !value.IsStandard()
}

func standardize(raw []byte) ([]byte, error) {
	value, err := hujson.Parse(raw)
	if err != nil {
		return nil, err
	}
	value.Standardize()
	return value.Pack(), nil
}

func isObject(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func parseEntry(name string, raw json.RawMessage) (snippet.Snippet, []Warning, error) {
	if !isObject(raw) {
		return snippet.Snippet{}, nil, errors.New("value must be an object")
	}
	fields := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, fields); err != nil {
		return snippet.Snippet{}, nil, err
	}

	s := snippet.Snippet{
		ID:   snippet.SnippetID(name),
		Name: name,
		Body: []string{},
	}
	var warnings []Warning
	coerced := func(field, expected string) {
		warnings = append(warnings, Warning{Key: name, Field: field, Message: "expected " + expected + "; value converted to text"})
	}
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		switch pair.Key {
		case fieldPrefix:
			values, ok := textList(pair.Value)
			if !ok {
				coerced(pair.Key, "a string or an array of strings")
			}
			s.Prefix = snippet.JoinPrefix(values)
		case fieldBody:
			values, ok := textList(pair.Value)
			if !ok {
				coerced(pair.Key, "a string or an array of strings")
			}
			s.Body = snippet.NormalizeBody(values)
		case fieldScope:
			value, ok := text(pair.Value)
			if !ok {
				coerced(pair.Key, "a string")
			}
			s.Scope = value
		case fieldDescription:
			value, ok := text(pair.Value)
			if !ok {
				coerced(pair.Key, "a string")
			}
			s.Description = value
		default:
			var compact bytes.Buffer
			if err := json.Compact(&compact, pair.Value); err != nil {
				return snippet.Snippet{}, nil, fmt.Errorf("%s: %w", pair.Key, err)
			}
			s.Extra = append(s.Extra, snippet.Field{Key: pair.Key, Value: json.RawMessage(compact.Bytes())})
		}
	}
	return s, warnings, nil
}

// textList reads a string or an array of strings. Other values are converted
// to their JSON text and ok is false.
func textList(raw json.RawMessage) (values []string, ok bool) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, true
	}
	var items []json.RawMessage
	if len(trimmed) == 0 || trimmed[0] != '[' || json.Unmarshal(trimmed, &items) != nil {
		value, ok := text(trimmed)
		return []string{value}, ok
	}
	ok = true
	values = make([]string, 0, len(items))
	for _, item := range items {
		value, itemOK := text(item)
		ok = ok && itemOK
		values = append(values, value)
	}
	return values, ok
}

// text reads a string. null is empty; other values are converted to their
// compact JSON text and ok is false.
func text(raw json.RawMessage) (string, bool) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte("null")) {
		return "", true
	}
	var value string
	if err := json.Unmarshal(trimmed, &value); err == nil {
		return value, true
	}
	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed), false
	}
	return compact.String(), false
}

// Serialize renders snippets as a pretty printed group document keyed by
// name, in sequence order.
func Serialize(snippets []snippet.Snippet) ([]byte, error) {
	var out bytes.Buffer
	out.WriteByte('{')
	for i, s := range snippets {
		if i > 0 {
			out.WriteByte(',')
		}
		out.WriteString("\n  ")
		key, err := marshal(s.Name)
		if err != nil {
			return nil, err
		}
		out.Write(key)
		out.WriteString(": ")

		entry, err := encodeEntry(s)
		if err != nil {
			return nil, fmt.Errorf("failed to encode snippet %q: %w", s.Name, err)
		}
		if err := json.Indent(&out, entry, "  ", "  "); err != nil {
			return nil, fmt.Errorf("failed to indent snippet %q: %w", s.Name, err)
		}
	}
	if len(snippets) > 0 {
		out.WriteByte('\n')
	}
	out.WriteString("}\n")
	return out.Bytes(), nil
}

// EncodePrefix returns the on-disk form of a prefix: a string for one token,
// an array for several.
func EncodePrefix(prefix string) any {
	tokens := snippet.PrefixTokens(prefix)
	if len(tokens) == 1 {
		return tokens[0]
	}
	return tokens
}

func encodeEntry(s snippet.Snippet) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	first := true
	writeRaw := func(key string, value []byte) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		encodedKey, err := marshal(key)
		if err != nil {
			return err
		}
		buf.Write(encodedKey)
		buf.WriteByte(':')
		return json.Compact(&buf, value)
	}
	write := func(key string, value any) error {
		encoded, err := marshal(value)
		if err != nil {
			return err
		}
		return writeRaw(key, encoded)
	}

	if scope := snippet.NormalizeScope(s.Scope); scope != "" {
		if err := write(fieldScope, scope); err != nil {
			return nil, err
		}
	}
	if err := write(fieldPrefix, EncodePrefix(s.Prefix)); err != nil {
		return nil, err
	}
	body := s.Body
	if body == nil {
		body = []string{}
	}
	if err := write(fieldBody, body); err != nil {
		return nil, err
	}
	if s.Description != "" {
		if err := write(fieldDescription, s.Description); err != nil {
			return nil, err
		}
	}
	for _, field := range s.Extra {
		switch field.Key {
		case fieldScope, fieldPrefix, fieldBody, fieldDescription:
			continue
		}
		if !json.Valid(field.Value) {
			return nil, fmt.Errorf("field %q holds invalid JSON", field.Key)
		}
		if err := writeRaw(field.Key, field.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshal(value any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
