// Package store discovers snippet group files and holds the in-memory group
// collection. The collection is replaced by a single pointer swap, so readers
// never observe a partially rescanned state.
package store

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/snipdeck/snipdeck/internal/codec"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultConfigSubdir = ".vscode"
	loadConcurrency     = 8
)

// Workspace is one workspace folder that may hold workspace groups.
type Workspace struct {
	Name string `json:"name"`
	Root string `json:"root"`
}

// FolderLister enumerates the current workspace folders.
type FolderLister interface {
	WorkspaceFolders() []Workspace
}

// StaticFolders is a fixed list of workspace folders.
type StaticFolders []Workspace

func (f StaticFolders) WorkspaceFolders() []Workspace {
	return append([]Workspace(nil), f...)
}

// Layout describes where group files live.
type Layout struct {
	UserDir      string
	ConfigSubdir string
	Folders      FolderLister
}

// WorkspaceDir returns the directory workspace groups of root are stored in.
func (l Layout) WorkspaceDir(root string) string {
	subdir := l.ConfigSubdir
	if subdir == "" {
		subdir = DefaultConfigSubdir
	}
	return filepath.Join(root, subdir)
}

func (l Layout) workspaces() []Workspace {
	if l.Folders == nil {
		return nil
	}
	return l.Folders.WorkspaceFolders()
}

// Store owns the group collection. Mutations are serialized by mu; reads are
// lock-free snapshots.
type Store struct {
	fs     FileSystem
	layout Layout

	mu     sync.Mutex
	groups atomic.Pointer[[]*snippet.Group]

	diagMu   sync.Mutex
	reported map[string]string
}

func New(fsys FileSystem, layout Layout) *Store {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	s := &Store{
		fs:       fsys,
		layout:   layout,
		reported: make(map[string]string),
	}
	empty := []*snippet.Group{}
	s.groups.Store(&empty)
	return s
}

func (s *Store) FS() FileSystem {
	return s.fs
}

func (s *Store) Layout() Layout {
	return s.layout
}

// Groups returns the current collection. The slice and the groups in it are
// shared and must be treated as read-only.
func (s *Store) Groups() []*snippet.Group {
	return *s.groups.Load()
}

// ByPath returns the group backed by path.
func (s *Store) ByPath(path string) (*snippet.Group, bool) {
	for _, g := range s.Groups() {
		if SamePath(g.FilePath, path) {
			return g, true
		}
	}
	return nil, false
}

// ByID returns every group whose id matches. Groups of different kinds can
// share an id, so callers that need one group should prefer ByPath.
func (s *Store) ByID(id string) []*snippet.Group {
	var out []*snippet.Group
	for _, g := range s.Groups() {
		if g.ID == id {
			out = append(out, g)
		}
	}
	return out
}

// Diagnostics lists groups whose backing file failed to parse.
func (s *Store) Diagnostics() []*snippet.Group {
	var out []*snippet.Group
	for _, g := range s.Groups() {
		if g.ParseErr != nil {
			out = append(out, g)
		}
	}
	return out
}

type candidate struct {
	dir      string
	fileName string
	kind     snippet.Kind
}

// RescanAll rediscovers every group file and replaces the collection.
// Order: global groups, workspace groups (folder order), language groups;
// file name order within each.
func (s *Store) RescanAll(ctx context.Context) ([]*snippet.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	candidates := s.candidates()
	loaded := make([]*snippet.Group, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(loadConcurrency)
	for i, c := range candidates {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			loaded[i] = s.load(c.dir, c.fileName, c.kind)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return s.Groups(), err
	}

	s.groups.Store(&loaded)
	return loaded, nil
}

// RescanOne re-reads the group backed by path. Unknown paths leave the
// collection unchanged; new files are only discovered by RescanAll.
func (s *Store) RescanOne(ctx context.Context, path string) ([]*snippet.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return s.Groups(), err
	}

	current := s.Groups()
	idx := indexOf(current, path)
	if idx < 0 {
		return current, nil
	}

	old := current[idx]
	fresh := s.load(filepath.Dir(old.FilePath), old.FileName, old.Kind)
	updated := *old
	updated.Snippets = fresh.Snippets
	updated.Raw = fresh.Raw
	updated.JSONC = fresh.JSONC
	updated.ParseErr = fresh.ParseErr
	updated.Warnings = fresh.Warnings

	next := make([]*snippet.Group, len(current))
	copy(next, current)
	next[idx] = &updated
	s.groups.Store(&next)
	return next, nil
}

// Relocate re-keys the group at oldPath after its file was renamed to newPath.
// Name and id follow the new base name; snippets are kept until the next rescan.
func (s *Store) Relocate(oldPath, newPath string) ([]*snippet.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.Groups()
	idx := indexOf(current, oldPath)
	if idx < 0 {
		return current, false
	}

	updated := *current[idx]
	updated.FilePath = newPath
	updated.FileName = filepath.Base(newPath)
	updated.Name = snippet.GroupBaseName(updated.FileName, updated.Kind.Suffix())
	updated.ID = snippet.GroupID(updated.Name)

	next := make([]*snippet.Group, len(current))
	copy(next, current)
	next[idx] = &updated
	s.groups.Store(&next)
	return next, true
}

// Drop removes the group backed by path from the collection.
func (s *Store) Drop(path string) []*snippet.Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.Groups()
	idx := indexOf(current, path)
	if idx < 0 {
		return current
	}
	next := make([]*snippet.Group, 0, len(current)-1)
	next = append(next, current[:idx]...)
	next = append(next, current[idx+1:]...)
	s.groups.Store(&next)
	s.forget(path)
	return next
}

func (s *Store) candidates() []candidate {
	out := make([]candidate, 0)
	userDir := s.layout.UserDir
	userFiles := s.listFiles(userDir)

	for _, name := range userFiles {
		if strings.HasSuffix(name, snippet.SuffixCodeSnippets) {
			out = append(out, candidate{dir: userDir, fileName: name, kind: snippet.KindGlobal})
		}
	}
	for _, ws := range s.layout.workspaces() {
		dir := s.layout.WorkspaceDir(ws.Root)
		for _, name := range s.listFiles(dir) {
			if strings.HasSuffix(name, snippet.SuffixCodeSnippets) {
				out = append(out, candidate{dir: dir, fileName: name, kind: snippet.KindWorkspace})
			}
		}
	}
	for _, name := range userFiles {
		if strings.HasSuffix(name, snippet.SuffixJSON) {
			out = append(out, candidate{dir: userDir, fileName: name, kind: snippet.KindLanguage})
		}
	}
	return out
}

func (s *Store) listFiles(dir string) []string {
	if strings.TrimSpace(dir) == "" {
		return nil
	}
	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to list snippet directory", slog.String("dir", dir), slog.String("error", err.Error()))
		}
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

func (s *Store) load(dir, fileName string, kind snippet.Kind) *snippet.Group {
	path := filepath.Join(dir, fileName)
	name := snippet.GroupBaseName(fileName, kind.Suffix())
	group := &snippet.Group{
		ID:       snippet.GroupID(name),
		Name:     name,
		FilePath: path,
		FileName: fileName,
		Kind:     kind,
		Snippets: []snippet.Snippet{},
	}

	raw, err := s.fs.ReadFile(path)
	if err != nil {
		slog.Warn("failed to read snippet file", slog.String("path", path), slog.String("error", err.Error()))
		return group
	}
	group.Raw = string(raw)
	group.JSONC = codec.IsJSONC(raw)

	doc, parseErr := codec.Decode(raw)
	group.Snippets = doc.Snippets
	for _, w := range doc.Warnings {
		group.Warnings = append(group.Warnings, w.String())
	}
	if parseErr != nil {
		group.ParseErr = parseErr
		s.reportParse(path, parseErr)
	} else {
		s.forget(path)
	}
	return group
}

// reportParse surfaces a parse failure once per distinct error and file.
func (s *Store) reportParse(path string, err error) {
	s.diagMu.Lock()
	defer s.diagMu.Unlock()
	msg := err.Error()
	if s.reported[path] == msg {
		slog.Debug("snippet file still malformed", slog.String("path", path), slog.String("error", msg))
		return
	}
	s.reported[path] = msg
	slog.Warn("snippet file is malformed; group is read-only until it is fixed", slog.String("path", path), slog.String("error", msg))
}

func (s *Store) forget(path string) {
	s.diagMu.Lock()
	delete(s.reported, path)
	s.diagMu.Unlock()
}

func indexOf(groups []*snippet.Group, path string) int {
	for i, g := range groups {
		if SamePath(g.FilePath, path) {
			return i
		}
	}
	return -1
}

// SamePath compares file paths the way the host file system does.
func SamePath(a, b string) bool {
	a = filepath.Clean(a)
	b = filepath.Clean(b)
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
