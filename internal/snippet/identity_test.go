package snippet

import (
	"errors"
	"reflect"
	"testing"
)

func TestPrefixTokensNormalization(t *testing.T) {
	cases := []struct {
		raw  string
		want []string
	}{
		{raw: "pr", want: []string{"pr"}},
		{raw: " pr , log ,pr,, ", want: []string{"pr", "log"}},
		{raw: "", want: []string{}},
		{raw: " , ,", want: []string{}},
		{raw: "a,A,a", want: []string{"a", "A"}},
	}
	for _, tc := range cases {
		got := PrefixTokens(tc.raw)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("PrefixTokens(%q) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestPrefixCanonicalizationIsIdempotent(t *testing.T) {
	for _, raw := range []string{"pr", "a, b ,a", " x ,, y , z ", "", "dup,dup"} {
		once := PrefixTokens(raw)
		twice := PrefixTokens(JoinPrefix(once))
		if !reflect.DeepEqual(once, twice) {
			t.Fatalf("expected idempotent canonicalization for %q: %#v vs %#v", raw, once, twice)
		}
	}
}

func TestBodyRoundTrip(t *testing.T) {
	bodies := [][]string{
		{},
		{"print($1)"},
		{"func ${1:name}() {", "\t$0", "}"},
		{"", "", "x"},
		{"trailing", ""},
	}
	for _, body := range bodies {
		got := SplitLines(JoinLines(body))
		if !reflect.DeepEqual(got, body) {
			t.Fatalf("round trip changed body %#v -> %#v", body, got)
		}
	}
}

func TestSplitLinesNormalizesLineEndings(t *testing.T) {
	got := SplitLines("a\r\nb\rc\n")
	want := []string{"a", "b", "c", ""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %#v, got %#v", want, got)
	}
}

func TestNormalizeBodyKeepsLoneEmptyLine(t *testing.T) {
	cases := []struct {
		in   []string
		want []string
	}{
		{nil, []string{}},
		{[]string{}, []string{}},
		{[]string{""}, []string{""}},
		{[]string{"a\r\nb", ""}, []string{"a", "b", ""}},
	}
	for _, tc := range cases {
		if got := NormalizeBody(tc.in); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("NormalizeBody(%#v) = %#v, want %#v", tc.in, got, tc.want)
		}
	}
	if !EqualBody([]string{""}, []string{}) {
		t.Fatalf("expected an empty line and an empty body to compare equal")
	}
}

func TestIDsAreDeterministicAndNameDerived(t *testing.T) {
	if SnippetID("foo") != SnippetID("foo") {
		t.Fatalf("expected stable snippet id")
	}
	if SnippetID("foo") == SnippetID("bar") {
		t.Fatalf("expected rename to change snippet id")
	}
	if GroupID("python") == GroupID("Python") {
		t.Fatalf("expected case-sensitive group ids")
	}
	if len(GroupID("python")) != idLength {
		t.Fatalf("unexpected id length %d", len(GroupID("python")))
	}
}

func TestNormalizeDropsScopeForLanguageKind(t *testing.T) {
	s := Snippet{Name: " log ", Prefix: "lg, lg", Scope: "go", Body: []string{"a\r\nb"}}

	lang := Normalize(s, KindLanguage)
	if lang.Scope != "" {
		t.Fatalf("expected scope stripped for language group, got %q", lang.Scope)
	}
	if lang.Name != "log" || lang.ID != SnippetID("log") {
		t.Fatalf("unexpected name/id %q/%q", lang.Name, lang.ID)
	}
	if lang.Prefix != "lg" {
		t.Fatalf("expected deduped prefix, got %q", lang.Prefix)
	}
	if !reflect.DeepEqual(lang.Body, []string{"a", "b"}) {
		t.Fatalf("unexpected body %#v", lang.Body)
	}

	global := Normalize(Snippet{Name: "x", Prefix: "x", Scope: " go , python,go"}, KindGlobal)
	if global.Scope != "go,python" {
		t.Fatalf("expected normalized scope, got %q", global.Scope)
	}
}

func TestErrorKind(t *testing.T) {
	cases := map[string]error{
		"cancelled":  ErrCancelled,
		"validation": Invalid("name", "required"),
		"not_found":  SnippetNotFound("x"),
		"io":         &IOError{Op: "write", Path: "/tmp/x", Err: errors.New("disk full")},
		"internal":   errors.New("boom"),
	}
	for want, err := range cases {
		if got := ErrorKind(err); got != want {
			t.Fatalf("ErrorKind(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestKindBehaviorTable(t *testing.T) {
	if KindLanguage.Suffix() != SuffixJSON || KindGlobal.Suffix() != SuffixCodeSnippets {
		t.Fatalf("unexpected suffixes")
	}
	if KindLanguage.ExplicitScope() || !KindWorkspace.ExplicitScope() {
		t.Fatalf("unexpected scope semantics")
	}
	if KindWorkspace.Location() != LocationWorkspace {
		t.Fatalf("expected workspace groups under workspace folders")
	}
	kind, err := ParseKind(" Global ")
	if err != nil || kind != KindGlobal {
		t.Fatalf("ParseKind failed: %v %v", kind, err)
	}
}
