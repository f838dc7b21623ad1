package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/snipdeck/snipdeck/internal/store"
)

type recordingFS struct {
	store.OSFileSystem
	writes map[string]int
	failOn map[string]error
}

func newRecordingFS() *recordingFS {
	return &recordingFS{writes: make(map[string]int), failOn: make(map[string]error)}
}

func (f *recordingFS) WriteFile(name string, data []byte) error {
	if err := f.failOn[name]; err != nil {
		return err
	}
	f.writes[name]++
	return f.OSFileSystem.WriteFile(name, data)
}

type countingCloser struct {
	calls int
}

func (c *countingCloser) CloseAll(context.Context) error {
	c.calls++
	return nil
}

type fixture struct {
	engine    *Engine
	store     *store.Store
	fs        *recordingFS
	closer    *countingCloser
	userDir   string
	workspace string
	notified  [][]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	f := &fixture{
		fs:        newRecordingFS(),
		closer:    &countingCloser{},
		userDir:   filepath.Join(root, "user"),
		workspace: filepath.Join(root, "project"),
	}
	if err := os.MkdirAll(f.userDir, 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	f.store = store.New(f.fs, store.Layout{
		UserDir: f.userDir,
		Folders: store.StaticFolders{{Name: "project", Root: f.workspace}},
	})
	f.engine = New(f.store,
		WithCloser(f.closer),
		WithNotifier(NotifierFunc(func(paths []string) { f.notified = append(f.notified, paths) })),
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }),
	)
	return f
}

func (f *fixture) file(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
}

func (f *fixture) rescan(t *testing.T) {
	t.Helper()
	if _, err := f.store.RescanAll(context.Background()); err != nil {
		t.Fatalf("RescanAll failed: %v", err)
	}
}

func (f *fixture) group(t *testing.T, path string) *snippet.Group {
	t.Helper()
	g, ok := f.store.ByPath(path)
	if !ok {
		t.Fatalf("expected group at %s", path)
	}
	return g
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	return string(data)
}

func TestCopySnippet(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.userDir, "python.json")
	f.file(t, path, `{"print": {"prefix": "pr", "body": ["print($1)"]}}`)
	f.rescan(t)

	copied, err := f.engine.CopySnippet(context.Background(), path, "print")
	if err != nil {
		t.Fatalf("CopySnippet failed: %v", err)
	}
	if copied.Name != "print-1700000000000" {
		t.Fatalf("unexpected copy name %q", copied.Name)
	}
	if copied.ID != snippet.SnippetID(copied.Name) {
		t.Fatalf("expected fresh id for copy")
	}

	g := f.group(t, path)
	if len(g.Snippets) != 2 {
		t.Fatalf("expected two snippets, got %d", len(g.Snippets))
	}
	if g.Snippets[1].Prefix != "pr" || !reflect.DeepEqual(g.Snippets[1].Body, []string{"print($1)"}) {
		t.Fatalf("expected identical prefix and body, got %#v", g.Snippets[1])
	}
	if !strings.Contains(readFile(t, path), `"print-1700000000000"`) {
		t.Fatalf("expected copy on disk")
	}

	again, err := f.engine.CopySnippet(context.Background(), path, "print")
	if err != nil {
		t.Fatalf("second CopySnippet failed: %v", err)
	}
	if again.Name != "print-1700000000000-2" {
		t.Fatalf("expected uniquified name, got %q", again.Name)
	}
}

func TestRenameSnippetRejectsDuplicate(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.userDir, "go.json")
	content := `{"foo": {"prefix": "f", "body": []}, "bar": {"prefix": "b", "body": []}}`
	f.file(t, path, content)
	f.rescan(t)

	_, err := f.engine.RenameSnippet(context.Background(), path, "foo", "bar")
	if !errors.Is(err, snippet.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if readFile(t, path) != content {
		t.Fatalf("expected file to be unchanged")
	}
	if f.fs.writes[path] != 0 {
		t.Fatalf("expected no write, got %d", f.fs.writes[path])
	}
}

func TestRenameSnippetKeepsPosition(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.userDir, "go.json")
	f.file(t, path, `{"a": {"prefix": "a", "body": []}, "b": {"prefix": "b", "body": []}, "c": {"prefix": "c", "body": []}}`)
	f.rescan(t)

	renamed, err := f.engine.RenameSnippet(context.Background(), path, "b", "beta")
	if err != nil {
		t.Fatalf("RenameSnippet failed: %v", err)
	}
	if renamed.ID != snippet.SnippetID("beta") {
		t.Fatalf("expected id to follow the new name")
	}
	if names := f.group(t, path).Names(); !reflect.DeepEqual(names, []string{"a", "beta", "c"}) {
		t.Fatalf("expected position to be kept, got %v", names)
	}
	if f.closer.calls != 1 {
		t.Fatalf("expected editors to be closed before rename")
	}
}

func TestMoveBetweenLanguageAndWorkspaceGroups(t *testing.T) {
	f := newFixture(t)
	langPath := filepath.Join(f.userDir, "python.json")
	wsPath := filepath.Join(f.workspace, ".vscode", "team.code-snippets")
	f.file(t, langPath, `{"print": {"prefix": "pr", "body": ["print($1)"]}}`)
	f.file(t, wsPath, `{}`)
	f.rescan(t)

	result, err := f.engine.MoveSnippet(context.Background(), Drop{SourcePath: langPath, Snippet: "print", TargetPath: wsPath})
	if err != nil {
		t.Fatalf("MoveSnippet failed: %v", err)
	}
	if !result.Moved || result.Snippet.Scope != "python" {
		t.Fatalf("expected scope to be synthesized, got %#v", result)
	}
	if len(f.group(t, langPath).Snippets) != 0 {
		t.Fatalf("expected snippet to leave the language group")
	}
	if ws := f.group(t, wsPath); len(ws.Snippets) != 1 || ws.Snippets[0].Scope != "python" {
		t.Fatalf("expected scoped snippet in workspace group, got %#v", ws.Snippets)
	}
	if !strings.Contains(readFile(t, wsPath), `"scope": "python"`) {
		t.Fatalf("expected scope on disk")
	}

	if _, err := f.engine.MoveSnippet(context.Background(), Drop{SourcePath: wsPath, Snippet: "print", TargetPath: langPath}); err != nil {
		t.Fatalf("MoveSnippet back failed: %v", err)
	}
	lang := f.group(t, langPath)
	if len(lang.Snippets) != 1 || lang.Snippets[0].Scope != "" {
		t.Fatalf("expected scope to be stripped, got %#v", lang.Snippets)
	}
	if strings.Contains(readFile(t, langPath), "scope") {
		t.Fatalf("expected no scope on disk")
	}
}

func TestMoveWithinGroup(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.userDir, "go.json")
	f.file(t, path, `{"a": {"prefix": "a", "body": []}, "b": {"prefix": "b", "body": []}, "c": {"prefix": "c", "body": []}}`)
	f.rescan(t)
	ctx := context.Background()

	if _, err := f.engine.MoveSnippet(ctx, Drop{SourcePath: path, Snippet: "c", TargetPath: path}); err != nil {
		t.Fatalf("MoveSnippet failed: %v", err)
	}
	if names := f.group(t, path).Names(); !reflect.DeepEqual(names, []string{"c", "a", "b"}) {
		t.Fatalf("expected drop on group to prepend, got %v", names)
	}

	if _, err := f.engine.MoveSnippet(ctx, Drop{SourcePath: path, Snippet: "c", TargetPath: path, TargetSnippet: "a"}); err != nil {
		t.Fatalf("MoveSnippet failed: %v", err)
	}
	if names := f.group(t, path).Names(); !reflect.DeepEqual(names, []string{"a", "c", "b"}) {
		t.Fatalf("expected drop on snippet to insert after it, got %v", names)
	}

	writes := f.fs.writes[path]
	result, err := f.engine.MoveSnippet(ctx, Drop{SourcePath: path, Snippet: "c", TargetPath: path, TargetSnippet: "c"})
	if err != nil || result.Moved {
		t.Fatalf("expected drop on itself to be a no-op, got %#v %v", result, err)
	}
	if f.fs.writes[path] != writes {
		t.Fatalf("expected no write for a no-op drop")
	}
}

func TestMoveOntoSingleSnippetGroupIsNoop(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.userDir, "go.json")
	f.file(t, path, `{"a": {"prefix": "a", "body": []}}`)
	f.rescan(t)

	result, err := f.engine.MoveSnippet(context.Background(), Drop{SourcePath: path, Snippet: "a", TargetPath: path})
	if err != nil || result.Moved {
		t.Fatalf("expected no-op, got %#v %v", result, err)
	}
	if f.fs.writes[path] != 0 {
		t.Fatalf("expected no write")
	}
}

func TestMoveSecondWriteFailureResynchronizes(t *testing.T) {
	f := newFixture(t)
	src := filepath.Join(f.userDir, "a.code-snippets")
	dst := filepath.Join(f.userDir, "b.code-snippets")
	f.file(t, src, `{"x": {"scope": "go", "prefix": "x", "body": []}}`)
	f.file(t, dst, `{}`)
	f.rescan(t)
	f.fs.failOn[src] = errors.New("disk full")

	_, err := f.engine.MoveSnippet(context.Background(), Drop{SourcePath: src, Snippet: "x", TargetPath: dst})
	var ioErr *snippet.IOError
	if !errors.As(err, &ioErr) || ioErr.Path != src {
		t.Fatalf("expected IO error for the source, got %v", err)
	}
	if len(f.group(t, dst).Snippets) != 1 {
		t.Fatalf("expected memory to reflect the written destination")
	}
	if len(f.group(t, src).Snippets) != 1 {
		t.Fatalf("expected memory to reflect the unchanged source")
	}
}

func TestMoveRejectsDuplicateInTarget(t *testing.T) {
	f := newFixture(t)
	src := filepath.Join(f.userDir, "go.json")
	dst := filepath.Join(f.userDir, "shared.code-snippets")
	f.file(t, src, `{"x": {"prefix": "x", "body": []}}`)
	f.file(t, dst, `{"x": {"scope": "go", "prefix": "y", "body": []}}`)
	f.rescan(t)

	_, err := f.engine.MoveSnippet(context.Background(), Drop{SourcePath: src, Snippet: "x", TargetPath: dst})
	if !errors.Is(err, snippet.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteGroupRemovesFileAndClosesEditors(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.userDir, "go.json")
	f.file(t, path, `{"a": {"prefix": "a", "body": []}}`)
	f.rescan(t)

	if err := f.engine.DeleteGroup(context.Background(), path); err != nil {
		t.Fatalf("DeleteGroup failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, got %v", err)
	}
	if _, ok := f.store.ByPath(path); ok {
		t.Fatalf("expected group to leave the collection")
	}
	if f.closer.calls != 1 {
		t.Fatalf("expected editors to be closed once, got %d", f.closer.calls)
	}
	if len(f.notified) == 0 || f.notified[len(f.notified)-1] != nil {
		t.Fatalf("expected whole-tree notification")
	}

	if err := f.engine.DeleteGroup(context.Background(), path); !errors.Is(err, snippet.ErrNotFound) {
		t.Fatalf("expected not found for stale group, got %v", err)
	}
}

func TestUpdateBodySkipsUnchangedBody(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.userDir, "go.json")
	f.file(t, path, `{"a": {"prefix": "a", "body": ["one", "two"]}}`)
	f.rescan(t)
	id := snippet.SnippetID("a")

	changed, err := f.engine.UpdateBody(context.Background(), path, id, snippet.SplitLines("one\r\ntwo"))
	if err != nil || changed {
		t.Fatalf("expected unchanged body to skip the write, got %v %v", changed, err)
	}
	if f.fs.writes[path] != 0 {
		t.Fatalf("expected no write")
	}

	changed, err = f.engine.UpdateBody(context.Background(), path, id, []string{"three"})
	if err != nil || !changed {
		t.Fatalf("expected write, got %v %v", changed, err)
	}
	if body := f.group(t, path).Snippets[0].Body; !reflect.DeepEqual(body, []string{"three"}) {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestSaveSnippetValidation(t *testing.T) {
	f := newFixture(t)
	langPath := filepath.Join(f.userDir, "go.json")
	globalPath := filepath.Join(f.userDir, "all.code-snippets")
	f.file(t, langPath, `{"a": {"prefix": "a", "body": []}}`)
	f.file(t, globalPath, `{}`)
	f.rescan(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		path  string
		input snippet.Snippet
		field string
	}{
		{"empty name", langPath, snippet.Snippet{Name: "  ", Prefix: "x"}, "name"},
		{"duplicate name", langPath, snippet.Snippet{Name: "a", Prefix: "x"}, "name"},
		{"empty prefix", langPath, snippet.Snippet{Name: "b", Prefix: " , "}, "prefix"},
		{"missing scope", globalPath, snippet.Snippet{Name: "b", Prefix: "b"}, "scope"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.engine.AddSnippet(ctx, tc.path, tc.input)
			var verr *snippet.ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected %s validation error, got %v", tc.field, err)
			}
		})
	}

	saved, err := f.engine.AddSnippet(ctx, langPath, snippet.Snippet{Name: " b ", Prefix: "b, b,bb", Scope: "go", Body: []string{"x\r\ny"}})
	if err != nil {
		t.Fatalf("AddSnippet failed: %v", err)
	}
	if saved.Name != "b" || saved.Prefix != "b,bb" || saved.Scope != "" || !reflect.DeepEqual(saved.Body, []string{"x", "y"}) {
		t.Fatalf("expected normalized snippet, got %#v", saved)
	}

	edited, err := f.engine.SaveSnippet(ctx, langPath, "a", snippet.Snippet{Name: "alpha", Prefix: "al"})
	if err != nil {
		t.Fatalf("SaveSnippet failed: %v", err)
	}
	if names := f.group(t, langPath).Names(); !reflect.DeepEqual(names, []string{"alpha", "b"}) {
		t.Fatalf("expected edit in place, got %v", names)
	}
	if edited.ID != snippet.SnippetID("alpha") {
		t.Fatalf("expected id derived from the new name")
	}
}

func TestAddRenameGroup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.engine.AddGroup(ctx, snippet.KindWorkspace, "team", "")
	if err != nil {
		t.Fatalf("AddGroup failed: %v", err)
	}
	wantPath := filepath.Join(f.workspace, ".vscode", "team.code-snippets")
	if g.FilePath != wantPath || readFile(t, wantPath) != "{}\n" {
		t.Fatalf("unexpected group %#v", g)
	}

	if _, err := f.engine.AddGroup(ctx, snippet.KindWorkspace, "team", ""); !errors.Is(err, snippet.ErrValidation) {
		t.Fatalf("expected duplicate group to be rejected, got %v", err)
	}
	if _, err := f.engine.AddGroup(ctx, snippet.KindGlobal, "a/b", ""); !errors.Is(err, snippet.ErrValidation) {
		t.Fatalf("expected path separator to be rejected, got %v", err)
	}

	renamed, err := f.engine.RenameGroup(ctx, wantPath, "shared")
	if err != nil {
		t.Fatalf("RenameGroup failed: %v", err)
	}
	newPath := filepath.Join(f.workspace, ".vscode", "shared.code-snippets")
	if renamed.FilePath != newPath || renamed.ID != snippet.GroupID("shared") {
		t.Fatalf("unexpected renamed group %#v", renamed)
	}
	if _, ok := f.store.ByPath(wantPath); ok {
		t.Fatalf("expected old path to be gone")
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Fatalf("expected renamed file: %v", err)
	}
}

func TestCommandsReportStaleReferences(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.userDir, "go.json")
	f.file(t, path, `{}`)
	f.rescan(t)
	ctx := context.Background()

	if _, err := f.engine.CopySnippet(ctx, path, "missing"); !errors.Is(err, snippet.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := f.engine.UpdateBody(ctx, filepath.Join(f.userDir, "gone.json"), "x", nil); !errors.Is(err, snippet.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddSnippetKeepsEntriesWithOddFieldTypes(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(f.userDir, "go.json")
	f.file(t, path, `{"keep":{"prefix":"kp","body":["keep me"]},"odd":{"prefix":"od","body":["x",1]}}`)
	f.rescan(t)

	g := f.group(t, path)
	if g.ParseErr != nil || len(g.Warnings) != 1 {
		t.Fatalf("expected a loadable group with one warning, got err=%v warnings=%v", g.ParseErr, g.Warnings)
	}
	if _, err := f.engine.AddSnippet(context.Background(), path, snippet.Snippet{Name: "new", Prefix: "nw"}); err != nil {
		t.Fatalf("AddSnippet failed: %v", err)
	}
	if names := f.group(t, path).Names(); !reflect.DeepEqual(names, []string{"keep", "odd", "new"}) {
		t.Fatalf("expected existing snippets to survive the write, got %v", names)
	}
	if content := readFile(t, path); !strings.Contains(content, `"keep me"`) {
		t.Fatalf("expected existing body on disk:\n%s", content)
	}
}

func TestCommandsRefuseGroupsThatFailedToParse(t *testing.T) {
	f := newFixture(t)
	broken := filepath.Join(f.userDir, "go.json")
	partial := filepath.Join(f.userDir, "all.code-snippets")
	brokenText := `{"keep": {"prefix": "kp", "body": ["keep me"]},`
	partialText := `{"keep": {"scope": "go", "prefix": "kp", "body": []}, "bad": "text"}`
	f.file(t, broken, brokenText)
	f.file(t, partial, partialText)
	f.rescan(t)
	ctx := context.Background()

	if f.group(t, partial).Find("keep") < 0 {
		t.Fatalf("expected the readable entry to be listed")
	}

	cases := []struct {
		name string
		run  func() error
	}{
		{"add", func() error {
			_, err := f.engine.AddSnippet(ctx, broken, snippet.Snippet{Name: "new", Prefix: "nw"})
			return err
		}},
		{"copy", func() error {
			_, err := f.engine.CopySnippet(ctx, partial, "keep")
			return err
		}},
		{"delete", func() error {
			return f.engine.DeleteSnippet(ctx, partial, "keep")
		}},
		{"save", func() error {
			_, err := f.engine.SaveSnippet(ctx, partial, "keep", snippet.Snippet{Name: "keep", Scope: "go", Prefix: "k2"})
			return err
		}},
		{"move", func() error {
			_, err := f.engine.MoveSnippet(ctx, Drop{SourcePath: partial, Snippet: "keep", TargetPath: broken})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.run()
			var verr *snippet.ValidationError
			if !errors.As(err, &verr) || verr.Field != "group" {
				t.Fatalf("expected group validation error, got %v", err)
			}
		})
	}

	if readFile(t, broken) != brokenText || readFile(t, partial) != partialText {
		t.Fatalf("expected unparsed group files to stay byte for byte")
	}
	if len(f.fs.writes) != 0 || f.closer.calls != 0 {
		t.Fatalf("expected no writes and no closed editors, got %v writes and %d closes", f.fs.writes, f.closer.calls)
	}
}
