package panel

import (
	"encoding/json"
	"errors"

	"github.com/invopop/jsonschema"
	"github.com/snipdeck/snipdeck/internal/language"
	"github.com/snipdeck/snipdeck/internal/snippet"
)

const (
	TypeGet     = "get"
	TypeSave    = "save"
	TypeSnippet = "snippet"
	TypeSaved   = "saved"
	TypeError   = "error"
	TypeClosed  = "closed"
)

// Message is one JSON line exchanged with the panel UI.
type Message struct {
	Type    string          `json:"type" jsonschema:"enum=get,enum=save,enum=snippet,enum=saved,enum=error,enum=closed"`
	Session string          `json:"session,omitempty" jsonschema_description:"Panel session the message belongs to."`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Body is a snippet body that accepts either an array of lines or one string
// with embedded newlines.
type Body []string

func (b *Body) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*b = snippet.SplitLines(text)
		return nil
	}
	var lines []string
	if err := json.Unmarshal(data, &lines); err != nil {
		return errors.New("body must be a string or an array of strings")
	}
	*b = lines
	return nil
}

func (Body) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "array", Items: &jsonschema.Schema{Type: "string"}},
		},
	}
}

// SnippetData is the form content of one snippet.
type SnippetData struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Scope       string `json:"scope,omitempty" jsonschema_description:"Comma separated language ids."`
	Prefix      string `json:"prefix" jsonschema_description:"Comma separated trigger tokens."`
	Body        Body   `json:"body"`
	Description string `json:"description,omitempty"`
	FilePath    string `json:"filePath" jsonschema_description:"Group file the snippet is saved into."`
	Origin      string `json:"origin,omitempty" jsonschema_description:"Name the snippet had when the form was opened; empty for new snippets."`
}

func (d SnippetData) Snippet() snippet.Snippet {
	return snippet.Snippet{
		Name:        d.Name,
		Scope:       d.Scope,
		Prefix:      d.Prefix,
		Body:        []string(d.Body),
		Description: d.Description,
	}
}

func snippetData(filePath, origin string, s snippet.Snippet) SnippetData {
	body := s.Body
	if body == nil {
		body = []string{}
	}
	return SnippetData{
		ID:          s.ID,
		Name:        s.Name,
		Scope:       s.Scope,
		Prefix:      s.Prefix,
		Body:        Body(body),
		Description: s.Description,
		FilePath:    filePath,
		Origin:      origin,
	}
}

// PostData is posted to the panel whenever it shows a snippet.
type PostData struct {
	Snippet   SnippetData     `json:"snippet"`
	Languages []language.Item `json:"languages"`
	// Names are the other snippet names of the group, for duplicate checks.
	Names []string `json:"names"`
	// ShowScope is set for groups whose snippets carry an explicit scope.
	ShowScope bool `json:"showScope"`
}

type SavedData struct {
	Name     string `json:"name"`
	FilePath string `json:"filePath"`
	Added    bool   `json:"added"`
}

type ErrorData struct {
	Kind    string `json:"kind" jsonschema:"enum=cancelled,enum=validation,enum=not_found,enum=io,enum=internal,enum=closed,enum=session"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Schema returns the JSON schema of every panel payload keyed by message type.
func Schema() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	return map[string]*jsonschema.Schema{
		"message":   reflector.Reflect(&Message{}),
		TypeSave:    reflector.Reflect(&SnippetData{}),
		TypeSnippet: reflector.Reflect(&PostData{}),
		TypeSaved:   reflector.Reflect(&SavedData{}),
		TypeError:   reflector.Reflect(&ErrorData{}),
	}
}
