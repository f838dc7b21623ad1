package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestWriteAtomicCreatesParentsAndReadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "go.json")
	if err := WriteAtomic(path, []byte("{}\n")); err != nil {
		t.Fatalf("WriteAtomic failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected file to exist: %v", err)
	}
	if info.Mode().Perm()&0044 == 0 {
		t.Fatalf("expected new file to be group/world readable, got %v", info.Mode().Perm())
	}
	data, _ := os.ReadFile(path)
	if string(data) != "{}\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestWriteIfChangedTrackedSkipsEqualContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	changed, err := WriteIfChangedTracked(path, []byte("a: 1\n"))
	if err != nil || !changed {
		t.Fatalf("expected first write, got changed=%v err=%v", changed, err)
	}
	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(path, past, past); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	changed, err = WriteIfChangedTracked(path, []byte("a: 1\n"))
	if err != nil || changed {
		t.Fatalf("expected equal content to be skipped, got changed=%v err=%v", changed, err)
	}
	info, _ := os.Stat(path)
	if !info.ModTime().Equal(past) {
		t.Fatalf("expected modification time to be preserved")
	}

	if err := WriteIfChanged(path, []byte("a: 2\n")); err != nil {
		t.Fatalf("WriteIfChanged failed: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "a: 2\n" {
		t.Fatalf("unexpected content %q", data)
	}
}

func TestStringHelpers(t *testing.T) {
	if got := DedupeStrings([]string{"go", "rust", "go"}); !reflect.DeepEqual(got, []string{"go", "rust"}) {
		t.Fatalf("unexpected dedupe result %v", got)
	}
	if got := MapKeysSorted(map[string]bool{"b": true, "a": true}); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Fatalf("unexpected sorted keys %v", got)
	}
	if set := ToSet([]string{"x"}); !set["x"] || set["y"] {
		t.Fatalf("unexpected set %v", set)
	}
	if got := EnsureTrailingNewline([]byte("x")); string(got) != "x\n" {
		t.Fatalf("expected newline appended, got %q", got)
	}
}

func TestJSONOutputDoesNotEscapeHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintJSON(&buf, map[string]string{"body": "<div>&</div>"}); err != nil {
		t.Fatalf("PrintJSON failed: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"<div>&</div>"`)) {
		t.Fatalf("expected raw markup, got %s", buf.String())
	}

	data, err := EncodeJSONL([]map[string]int{{"a": 1}, {"b": 2}})
	if err != nil {
		t.Fatalf("EncodeJSONL failed: %v", err)
	}
	if string(data) != "{\"a\":1}\n{\"b\":2}\n" {
		t.Fatalf("unexpected jsonl %q", data)
	}
}
