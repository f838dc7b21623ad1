// Package language orders language ids for pickers and picks the highlighting
// language of a snippet.
package language

import (
	"sort"
	"strings"

	"github.com/snipdeck/snipdeck/internal/fileutil"
	"github.com/snipdeck/snipdeck/internal/snippet"
)

const plaintext = "plaintext"

// scriptFamily is the order JS/TS family members are offered in.
var scriptFamily = []string{"typescript", "javascript", "typescriptreact", "javascriptreact"}

// reactPreference is the order highlighting prefers family members in.
var reactPreference = []string{"typescriptreact", "typescript", "javascriptreact", "javascript"}

// Item is one entry of a language picker.
type Item struct {
	Lang    string `json:"lang"`
	Current bool   `json:"current,omitempty"`
	Fixed   bool   `json:"fixed,omitempty"`
	Used    bool   `json:"used,omitempty"`
}

// Tag renders the markers shown next to an item.
func (i Item) Tag() string {
	tags := make([]string, 0, 3)
	if i.Current {
		tags = append(tags, "current")
	}
	if i.Used {
		tags = append(tags, "used")
	}
	if i.Fixed {
		tags = append(tags, "fixed")
	}
	return strings.Join(tags, " / ")
}

// Sources are the inputs the picker order is built from.
type Sources struct {
	// Current is the language of the active editor, if any.
	Current string
	Fixed   []string
	Used    []string
	// Scope narrows the catalog when the picker is for snippet scopes.
	Scope []string
	// Catalog overrides the built-in language catalog.
	Catalog []string
}

func isScriptFamily(id string) bool {
	return strings.HasPrefix(id, "javascript") || strings.HasPrefix(id, "typescript")
}

// ExpandFamily replaces JS/TS family members with the whole family, in both
// directions: any javascript* or typescript* id pulls in all four ids.
func ExpandFamily(ids []string) []string {
	out := make([]string, 0, len(ids)+len(scriptFamily))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if isScriptFamily(id) {
			out = append(out, scriptFamily...)
			continue
		}
		out = append(out, id)
	}
	return fileutil.DedupeStrings(out)
}

// CurrentLanguages returns the ids the active editor language stands for.
func CurrentLanguages(current string) []string {
	current = strings.TrimSpace(current)
	if current == "" || current == plaintext {
		return nil
	}
	return ExpandFamily([]string{current})
}

// List orders languages for a picker: selected, current, fixed and used ids
// first, then the remaining catalog sorted.
func List(src Sources, selected []string, showScope bool) []Item {
	var langs []string
	if showScope {
		langs = append(langs, src.Scope...)
	}
	if len(langs) == 0 {
		langs = src.Catalog
		if len(langs) == 0 {
			langs = Catalog()
		}
	}
	langs = append(append([]string(nil), langs...), selected...)

	current := CurrentLanguages(src.Current)
	first := fileutil.DedupeStrings(concat(ExpandFamily(selected), current, src.Fixed, src.Used))
	firstSet := fileutil.ToSet(first)

	rest := make([]string, 0, len(langs))
	for _, lang := range fileutil.DedupeStrings(langs) {
		lang = strings.TrimSpace(lang)
		if lang == "" || firstSet[lang] {
			continue
		}
		rest = append(rest, lang)
	}
	sort.Strings(rest)

	currentSet := fileutil.ToSet(current)
	fixedSet := fileutil.ToSet(src.Fixed)
	usedSet := fileutil.ToSet(src.Used)

	items := make([]Item, 0, len(first)+len(rest))
	for _, lang := range append(first, rest...) {
		if lang == "" {
			continue
		}
		items = append(items, Item{
			Lang:    lang,
			Current: currentSet[lang],
			Fixed:   fixedSet[lang],
			Used:    usedSet[lang],
		})
	}
	return items
}

func concat(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// SnippetLanguage picks the highlighting language for a scope. JS/TS family
// members win in react-first order; otherwise the first scope entry is used.
func SnippetLanguage(scope string) string {
	langs := snippet.ScopeTokens(scope)
	if len(langs) == 0 {
		return ""
	}
	set := fileutil.ToSet(langs)
	for _, id := range reactPreference {
		if set[id] {
			return fixHighlight(id)
		}
	}
	return fixHighlight(langs[0])
}

func fixHighlight(lang string) string {
	if lang == "svg" {
		return "html"
	}
	return lang
}

// ForSnippet returns the highlighting language of s inside g.
func ForSnippet(g *snippet.Group, s snippet.Snippet) string {
	if g.IsLanguage() {
		return fixHighlight(g.Name)
	}
	return SnippetLanguage(s.Scope)
}
