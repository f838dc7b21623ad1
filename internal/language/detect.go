package language

import (
	"context"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

type grammar struct {
	id       string
	language func() *sitter.Language
}

// grammars are tried in order; earlier entries win ties.
var grammars = []grammar{
	{id: "go", language: golang.GetLanguage},
	{id: "python", language: python.GetLanguage},
	{id: "typescript", language: typescript.GetLanguage},
	{id: "javascript", language: javascript.GetLanguage},
	{id: "ruby", language: ruby.GetLanguage},
}

var (
	placeholderPattern = regexp.MustCompile(`\$\{\d+(?::([^}]*))?\}`)
	choicePattern      = regexp.MustCompile(`\$\{\d+\|([^,|}]*)[^}]*\|\}`)
	tabstopPattern     = regexp.MustCompile(`\$\d+`)
)

// Detect guesses the language of a snippet body by parsing it with each known
// grammar and picking the one with the fewest syntax errors. It returns ""
// when no grammar parses the body cleanly.
func Detect(ctx context.Context, body string) string {
	source := []byte(stripPlaceholders(body))
	if strings.TrimSpace(string(source)) == "" {
		return ""
	}

	best := ""
	bestErrors := -1
	for _, g := range grammars {
		errs, ok := parseErrors(ctx, g, source)
		if !ok {
			continue
		}
		if bestErrors < 0 || errs < bestErrors {
			best = g.id
			bestErrors = errs
		}
	}
	if bestErrors != 0 {
		return ""
	}
	return best
}

func parseErrors(ctx context.Context, g grammar, source []byte) (int, bool) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(g.language())

	tree, err := p.ParseCtx(ctx, nil, source)
	if err != nil {
		return 0, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.NamedChildCount() == 0 {
		return 0, false
	}
	return countErrors(root), true
}

func countErrors(node *sitter.Node) int {
	count := 0
	if node.Type() == "ERROR" || node.IsMissing() {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrors(node.Child(i))
	}
	return count
}

// stripPlaceholders replaces snippet tab stops with plain identifiers or their
// default text so grammars see ordinary code.
func stripPlaceholders(body string) string {
	body = choicePattern.ReplaceAllString(body, "$1")
	body = placeholderPattern.ReplaceAllStringFunc(body, func(match string) string {
		parts := placeholderPattern.FindStringSubmatch(match)
		if len(parts) > 1 && parts[1] != "" {
			return parts[1]
		}
		return "x"
	})
	return tabstopPattern.ReplaceAllString(body, "x")
}
