package engine

import (
	"strings"

	"github.com/snipdeck/snipdeck/internal/snippet"
)

// ValidateGroupName checks a user supplied group name before any file is
// touched.
func ValidateGroupName(name string) error {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return snippet.Invalid("name", "must not be empty")
	case name == "." || name == "..":
		return snippet.Invalid("name", "%q is not a valid group name", name)
	case strings.ContainsAny(name, `/\`):
		return snippet.Invalid("name", "must not contain path separators")
	case strings.HasSuffix(name, snippet.SuffixJSON) || strings.HasSuffix(name, snippet.SuffixCodeSnippets):
		return snippet.Invalid("name", "must not include the file suffix")
	}
	return nil
}

// ValidateSnippetName checks name against the snippets of g. origin is the
// current name of the snippet being renamed, or empty for new snippets.
func ValidateSnippetName(g *snippet.Group, name, origin string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return snippet.Invalid("name", "must not be empty")
	}
	if name == origin {
		return nil
	}
	if g.Find(name) >= 0 {
		return snippet.Invalid("name", "snippet %q already exists in %s", name, g.Name)
	}
	return nil
}

func ValidatePrefix(prefix string) error {
	if len(snippet.PrefixTokens(prefix)) == 0 {
		return snippet.Invalid("prefix", "must not be empty")
	}
	return nil
}

// ValidateScope requires at least one language for kinds with explicit scope.
func ValidateScope(kind snippet.Kind, scope string) error {
	if kind.ExplicitScope() && len(snippet.ScopeTokens(scope)) == 0 {
		return snippet.Invalid("scope", "select at least one language")
	}
	return nil
}

func validateSnippet(g *snippet.Group, s snippet.Snippet, origin string) error {
	if err := ValidateSnippetName(g, s.Name, origin); err != nil {
		return err
	}
	if err := ValidatePrefix(s.Prefix); err != nil {
		return err
	}
	return ValidateScope(g.Kind, s.Scope)
}
