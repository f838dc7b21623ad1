package snippet

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

const idLength = 12

// GroupID derives the handle of a group from its file base name (without suffix).
// Groups of different kinds may share a base name; FilePath stays the write key.
func GroupID(baseName string) string {
	return shortHash("group|" + baseName)
}

// SnippetID derives the handle of a snippet from its name. It changes on every
// rename, so holders must re-resolve after a save that renamed the snippet.
func SnippetID(name string) string {
	return shortHash("snippet|" + name)
}

func shortHash(value string) string {
	sum := sha1.Sum([]byte(value))
	return hex.EncodeToString(sum[:])[:idLength]
}

// GroupBaseName strips the kind suffix from a group file name.
func GroupBaseName(fileName, suffix string) string {
	return strings.TrimSuffix(fileName, suffix)
}

// PrefixTokens splits a comma separated prefix into trimmed, non-empty,
// first-occurrence-deduplicated tokens.
func PrefixTokens(raw string) []string {
	return splitTokens(raw)
}

// JoinPrefix renders prefix tokens in their canonical in-memory form.
func JoinPrefix(tokens []string) string {
	return strings.Join(splitTokens(strings.Join(tokens, ",")), ",")
}

// NormalizePrefix canonicalizes a comma separated prefix.
func NormalizePrefix(raw string) string {
	return strings.Join(splitTokens(raw), ",")
}

// ScopeTokens splits a comma separated scope into language ids.
func ScopeTokens(raw string) []string {
	return splitTokens(raw)
}

// NormalizeScope canonicalizes a comma separated scope.
func NormalizeScope(raw string) string {
	return strings.Join(splitTokens(raw), ",")
}

func splitTokens(raw string) []string {
	parts := strings.Split(raw, ",")
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		token := strings.TrimSpace(part)
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}

// SplitLines splits text into body lines with line endings normalized to \n.
// Empty text is an empty body.
func SplitLines(text string) []string {
	text = NormalizeNewlines(text)
	if text == "" {
		return []string{}
	}
	return strings.Split(text, "\n")
}

// JoinLines is the inverse of SplitLines for canonical bodies.
func JoinLines(lines []string) string {
	return strings.Join(lines, "\n")
}

// NormalizeBody returns the canonical form of a body: line endings inside
// elements are split out. An empty body and a body of one empty line are both
// kept as they are.
func NormalizeBody(lines []string) []string {
	if len(lines) == 0 {
		return []string{}
	}
	return strings.Split(NormalizeNewlines(JoinLines(lines)), "\n")
}

func NormalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// EqualBody reports whether two bodies are the same after canonicalization.
func EqualBody(a, b []string) bool {
	return JoinLines(NormalizeBody(a)) == JoinLines(NormalizeBody(b))
}

// Normalize returns a copy of s with canonical prefix, scope and body and a
// freshly derived id. Scope is dropped for kinds without explicit scope.
func Normalize(s Snippet, kind Kind) Snippet {
	out := s.Clone()
	out.Name = strings.TrimSpace(out.Name)
	out.ID = SnippetID(out.Name)
	out.Prefix = NormalizePrefix(out.Prefix)
	out.Body = NormalizeBody(out.Body)
	if kind.ExplicitScope() {
		out.Scope = NormalizeScope(out.Scope)
	} else {
		out.Scope = ""
	}
	return out
}
