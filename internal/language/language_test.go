package language

import (
	"context"
	"reflect"
	"testing"

	"github.com/snipdeck/snipdeck/internal/snippet"
)

func TestExpandFamilyIsSymmetric(t *testing.T) {
	want := []string{"typescript", "javascript", "typescriptreact", "javascriptreact"}
	for _, id := range want {
		if got := ExpandFamily([]string{id}); !reflect.DeepEqual(got, want) {
			t.Fatalf("expected %s to expand to %v, got %v", id, want, got)
		}
	}

	got := ExpandFamily([]string{"go", "javascriptreact", "typescript", "go"})
	if !reflect.DeepEqual(got, []string{"go", "typescript", "javascript", "typescriptreact", "javascriptreact"}) {
		t.Fatalf("unexpected expansion %v", got)
	}
}

func TestCurrentLanguages(t *testing.T) {
	if got := CurrentLanguages("plaintext"); got != nil {
		t.Fatalf("expected plaintext to contribute nothing, got %v", got)
	}
	if got := CurrentLanguages("rust"); !reflect.DeepEqual(got, []string{"rust"}) {
		t.Fatalf("unexpected current languages %v", got)
	}
	if got := CurrentLanguages("javascript"); len(got) != 4 {
		t.Fatalf("expected family expansion, got %v", got)
	}
}

func TestListOrdering(t *testing.T) {
	src := Sources{
		Current: "python",
		Fixed:   []string{"go"},
		Used:    []string{"rust", "go"},
		Catalog: []string{"c", "zig", "python", "go", "rust", "lua"},
	}
	items := List(src, []string{"lua"}, false)

	var langs []string
	for _, item := range items {
		langs = append(langs, item.Lang)
	}
	want := []string{"lua", "python", "go", "rust", "c", "zig"}
	if !reflect.DeepEqual(langs, want) {
		t.Fatalf("expected %v, got %v", want, langs)
	}
	if !items[1].Current || items[1].Tag() != "current" {
		t.Fatalf("expected python tagged current, got %#v", items[1])
	}
	if items[2].Tag() != "used / fixed" {
		t.Fatalf("expected go tagged used and fixed, got %q", items[2].Tag())
	}
	if items[4].Tag() != "" {
		t.Fatalf("expected untagged catalog entry, got %q", items[4].Tag())
	}
}

func TestListScopeLanguages(t *testing.T) {
	src := Sources{Scope: []string{"go", "python"}, Catalog: []string{"c"}}
	items := List(src, nil, true)
	if len(items) != 2 || items[0].Lang != "go" || items[1].Lang != "python" {
		t.Fatalf("expected scope languages to replace the catalog, got %#v", items)
	}

	items = List(src, nil, false)
	if len(items) != 1 || items[0].Lang != "c" {
		t.Fatalf("expected catalog when scope is not requested, got %#v", items)
	}
}

func TestSnippetLanguage(t *testing.T) {
	cases := map[string]string{
		"":                           "",
		"go":                         "go",
		"python, go":                 "python",
		"javascript,typescriptreact": "typescriptreact",
		"css,javascript":             "javascript",
		"svg":                        "html",
	}
	for scope, want := range cases {
		if got := SnippetLanguage(scope); got != want {
			t.Fatalf("scope %q: expected %q, got %q", scope, want, got)
		}
	}

	g := &snippet.Group{Name: "ruby", Kind: snippet.KindLanguage}
	if got := ForSnippet(g, snippet.Snippet{}); got != "ruby" {
		t.Fatalf("expected group language, got %q", got)
	}
}

func TestDetect(t *testing.T) {
	ctx := context.Background()
	goBody := "func main() {\n\tfmt.Println(${1:\"hi\"})\n}"
	if got := Detect(ctx, goBody); got != "go" {
		t.Fatalf("expected go, got %q", got)
	}
	pyBody := "def greet(name):\n    return name.upper()\n"
	if got := Detect(ctx, pyBody); got != "python" {
		t.Fatalf("expected python, got %q", got)
	}
	if got := Detect(ctx, "   "); got != "" {
		t.Fatalf("expected no guess for blank body, got %q", got)
	}
}

func TestStripPlaceholders(t *testing.T) {
	got := stripPlaceholders("a(${1:value}, $2, ${3|one,two|}, ${4})")
	if got != "a(value, x, one, x)" {
		t.Fatalf("unexpected stripped body %q", got)
	}
}
