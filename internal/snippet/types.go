package snippet

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the storage scope of a group file.
type Kind int

const (
	KindLanguage Kind = iota + 1
	KindGlobal
	KindWorkspace
)

const (
	SuffixJSON         = ".json"
	SuffixCodeSnippets = ".code-snippets"
)

// Location identifies the directory a group kind is stored in.
type Location int

const (
	LocationUserDir Location = iota + 1
	LocationWorkspace
)

type kindInfo struct {
	name          string
	label         string
	suffix        string
	location      Location
	explicitScope bool
}

var kinds = map[Kind]kindInfo{
	KindLanguage:  {name: "language", label: "Language", suffix: SuffixJSON, location: LocationUserDir, explicitScope: false},
	KindGlobal:    {name: "global", label: "Global", suffix: SuffixCodeSnippets, location: LocationUserDir, explicitScope: true},
	KindWorkspace: {name: "workspace", label: "Workspace", suffix: SuffixCodeSnippets, location: LocationWorkspace, explicitScope: true},
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.name
	}
	return "unknown"
}

// Label is the human readable name shown in pickers and the tree.
func (k Kind) Label() string {
	if info, ok := kinds[k]; ok {
		return info.label
	}
	return "Unknown"
}

// Suffix returns the file suffix a group of this kind is stored with.
func (k Kind) Suffix() string {
	return kinds[k].suffix
}

func (k Kind) Location() Location {
	return kinds[k].location
}

// ExplicitScope reports whether snippets of this kind carry their own scope field.
// Language groups are implicitly scoped to the group's language.
func (k Kind) ExplicitScope() bool {
	return kinds[k].explicitScope
}

func (k Kind) Valid() bool {
	_, ok := kinds[k]
	return ok
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *Kind) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseKind(raw)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind resolves a kind from its name.
func ParseKind(value string) (Kind, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for kind, info := range kinds {
		if info.name == value {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown group kind %q (supported: language, global, workspace)", value)
}

// Field is a snippet property the manager does not interpret. It is kept so
// rewriting a group file does not drop it.
type Field struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Snippet is one reusable template inside a group.
type Snippet struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Scope       string   `json:"scope,omitempty"`
	Prefix      string   `json:"prefix"`
	Body        []string `json:"body"`
	Description string   `json:"description,omitempty"`
	Extra       []Field  `json:"extra,omitempty"`
}

// Clone returns a deep copy of the snippet.
func (s Snippet) Clone() Snippet {
	out := s
	if s.Body != nil {
		out.Body = append([]string(nil), s.Body...)
	}
	if s.Extra != nil {
		out.Extra = make([]Field, len(s.Extra))
		for i, field := range s.Extra {
			out.Extra[i] = Field{Key: field.Key, Value: append(json.RawMessage(nil), field.Value...)}
		}
	}
	return out
}

// Group is one on-disk snippet file and the snippets parsed from it.
// Groups handed out by the store are shared snapshots and must not be mutated.
type Group struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	FilePath string    `json:"file_path"`
	FileName string    `json:"file_name"`
	Kind     Kind      `json:"kind"`
	Snippets []Snippet `json:"snippets"`
	Raw      string    `json:"-"`
	JSONC    bool      `json:"jsonc,omitempty"`
	ParseErr error     `json:"-"`
	// Warnings lists fields of unexpected type that were converted to text.
	Warnings []string  `json:"warnings,omitempty"`
}

func (g *Group) IsLanguage() bool {
	return g != nil && g.Kind == KindLanguage
}

// Find returns the index of the snippet with the given name, or -1.
func (g *Group) Find(name string) int {
	if g == nil {
		return -1
	}
	for i := range g.Snippets {
		if g.Snippets[i].Name == name {
			return i
		}
	}
	return -1
}

// FindByID returns the index of the snippet whose current id matches, or -1.
func (g *Group) FindByID(id string) int {
	if g == nil {
		return -1
	}
	for i := range g.Snippets {
		if g.Snippets[i].ID == id {
			return i
		}
	}
	return -1
}

// Names lists snippet names in display order.
func (g *Group) Names() []string {
	if g == nil {
		return nil
	}
	names := make([]string, 0, len(g.Snippets))
	for _, s := range g.Snippets {
		names = append(names, s.Name)
	}
	return names
}

// CloneSnippets returns a deep copy of the group's snippet sequence.
func (g *Group) CloneSnippets() []Snippet {
	if g == nil {
		return nil
	}
	out := make([]Snippet, len(g.Snippets))
	for i, s := range g.Snippets {
		out[i] = s.Clone()
	}
	return out
}

// Language returns the language a language group is scoped to.
func (g *Group) Language() string {
	if g.IsLanguage() {
		return g.Name
	}
	return ""
}
