// Package bridge projects one snippet body into a scratch file for free-text
// editing and folds saves of that file back into the owning group.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/snipdeck/snipdeck/internal/fileutil"
	"github.com/snipdeck/snipdeck/internal/language"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/snipdeck/snipdeck/internal/state"
	"github.com/snipdeck/snipdeck/internal/store"
)

const (
	Suffix    = ".snippet"
	Retention = 30 * 24 * time.Hour
)

// Documents is the host's document lifecycle for scratch files.
type Documents interface {
	// Open shows path to the user. language is a highlighting hint.
	Open(ctx context.Context, path, language string) error
	// OpenPaths lists the documents currently open in the host.
	OpenPaths() []string
	Close(ctx context.Context, path string) error
}

// BodyUpdater writes a new body into a group file.
type BodyUpdater interface {
	UpdateBody(ctx context.Context, path, snippetID string, body []string) (bool, error)
}

// SaveResult describes what a scratch file save did.
type SaveResult struct {
	// Handled is false when the saved file is not a known edit buffer.
	Handled   bool   `json:"handled"`
	Changed   bool   `json:"changed"`
	GroupPath string `json:"group_path,omitempty"`
	Snippet   string `json:"snippet,omitempty"`
	Diff      string `json:"diff,omitempty"`
}

type Config struct {
	Dir      string
	Store    *store.Store
	Updater  BodyUpdater
	Docs     Documents
	Sessions *state.Manager
	Now      func() time.Time
}

type Bridge struct {
	dir      string
	store    *store.Store
	updater  BodyUpdater
	docs     Documents
	sessions *state.Manager
	now      func() time.Time
}

func New(cfg Config) *Bridge {
	b := &Bridge{
		dir:      filepath.Clean(cfg.Dir),
		store:    cfg.Store,
		updater:  cfg.Updater,
		docs:     cfg.Docs,
		sessions: cfg.Sessions,
		now:      cfg.Now,
	}
	if b.sessions == nil {
		b.sessions = state.NewManager(nil)
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

func (b *Bridge) Dir() string {
	return b.dir
}

// TempPath is the scratch file a snippet always maps to.
func (b *Bridge) TempPath(groupID, snippetID string) string {
	return filepath.Join(b.dir, fmt.Sprintf("%s.%s%s", groupID, snippetID, Suffix))
}

// Owns reports whether path lies inside the scratch directory.
func (b *Bridge) Owns(path string) bool {
	rel, err := filepath.Rel(b.dir, filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

// Open writes the body of s into its scratch file, records the pointer back to
// the snippet and shows the file.
func (b *Bridge) Open(ctx context.Context, g *snippet.Group, s snippet.Snippet) (string, error) {
	path := b.TempPath(g.ID, s.ID)
	if err := fileutil.WriteAtomic(path, []byte(snippet.JoinLines(s.Body))); err != nil {
		return "", fmt.Errorf("failed to write edit buffer: %w", err)
	}

	pointer := state.Pointer{
		GroupID:   g.ID,
		SnippetID: s.ID,
		FilePath:  g.FilePath,
		OpenedAt:  b.now(),
	}
	if err := b.sessions.Update(func(sess *state.Session) bool {
		sess.SetPointer(path, pointer)
		return true
	}); err != nil {
		return "", fmt.Errorf("failed to record edit buffer: %w", err)
	}

	if b.docs != nil {
		if err := b.docs.Open(ctx, path, language.ForSnippet(g, s)); err != nil {
			return path, fmt.Errorf("failed to open edit buffer: %w", err)
		}
	}
	return path, nil
}

// OnSave folds the saved text of a scratch file back into its snippet. Files
// without a pointer, and pointers whose snippet is gone, are ignored.
func (b *Bridge) OnSave(ctx context.Context, path, text string) (SaveResult, error) {
	var (
		pointer state.Pointer
		ok      bool
	)
	b.sessions.View(func(sess *state.Session) {
		pointer, ok = sess.Pointer(path)
	})
	if !ok {
		return SaveResult{}, nil
	}

	g := b.resolveGroup(pointer)
	if g == nil {
		slog.Debug("edit buffer points at a missing group", slog.String("path", path), slog.String("group", pointer.GroupID))
		return SaveResult{}, nil
	}
	idx := g.FindByID(pointer.SnippetID)
	if idx < 0 {
		slog.Debug("edit buffer points at a missing snippet", slog.String("path", path), slog.String("snippet", pointer.SnippetID))
		return SaveResult{}, nil
	}

	current := g.Snippets[idx]
	lines := snippet.SplitLines(text)
	result := SaveResult{Handled: true, GroupPath: g.FilePath, Snippet: current.Name}
	if snippet.EqualBody(current.Body, lines) {
		return result, nil
	}

	changed, err := b.updater.UpdateBody(ctx, g.FilePath, pointer.SnippetID, lines)
	if err != nil {
		return result, err
	}
	result.Changed = changed
	if changed {
		result.Diff = bodyDiff(current.Name, current.Body, lines)
	}
	return result, nil
}

func (b *Bridge) resolveGroup(p state.Pointer) *snippet.Group {
	if p.FilePath != "" {
		g, ok := b.store.ByPath(p.FilePath)
		if ok && g.ID == p.GroupID {
			return g
		}
		return nil
	}
	if matches := b.store.ByID(p.GroupID); len(matches) == 1 {
		return matches[0]
	}
	return nil
}

func bodyDiff(name string, before, after []string) string {
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(snippet.JoinLines(before) + "\n"),
		B:        difflib.SplitLines(snippet.JoinLines(after) + "\n"),
		FromFile: name,
		ToFile:   name,
		Context:  3,
	})
	if err != nil {
		slog.Debug("failed to diff snippet body", slog.String("error", err.Error()))
		return ""
	}
	return diff
}

// SnippetRenamed points the edit buffers of oldID in g at newID.
func (b *Bridge) SnippetRenamed(_ context.Context, g *snippet.Group, oldID, newID string) error {
	return b.sessions.Update(func(sess *state.Session) bool {
		changed := false
		for _, path := range sess.PointerPaths() {
			p, _ := sess.Pointer(path)
			if p.GroupID != g.ID || p.SnippetID != oldID {
				continue
			}
			if p.FilePath != "" && !store.SamePath(p.FilePath, g.FilePath) {
				continue
			}
			p.SnippetID = newID
			sess.SetPointer(path, p)
			changed = true
		}
		return changed
	})
}

// CloseAll closes every host document inside the scratch directory and drops
// the pointers of those documents.
func (b *Bridge) CloseAll(ctx context.Context) error {
	var closeErrs []error
	closed := make([]string, 0)
	if b.docs != nil {
		for _, path := range b.docs.OpenPaths() {
			if !b.Owns(path) {
				continue
			}
			if err := b.docs.Close(ctx, path); err != nil {
				closeErrs = append(closeErrs, fmt.Errorf("close %s: %w", path, err))
				continue
			}
			closed = append(closed, path)
		}
	}

	if err := b.sessions.Update(func(sess *state.Session) bool {
		for _, path := range closed {
			sess.RemovePointer(path)
		}
		return len(closed) > 0
	}); err != nil {
		closeErrs = append(closeErrs, err)
	}
	return errors.Join(closeErrs...)
}

// Sweep removes scratch files older than the retention window together with
// their pointers. Failures are logged; it returns the number of removed files.
func (b *Bridge) Sweep(now time.Time) int {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to list edit buffers", slog.String("dir", b.dir), slog.String("error", err.Error()))
		}
		return 0
	}

	cutoff := now.Add(-Retention)
	removed := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), Suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			slog.Warn("failed to inspect edit buffer", slog.String("name", entry.Name()), slog.String("error", err.Error()))
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(b.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			slog.Warn("failed to remove edit buffer", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		removed = append(removed, path)
	}

	if err := b.sessions.Update(func(sess *state.Session) bool {
		dropped := false
		for _, path := range removed {
			if _, ok := sess.Pointer(path); ok {
				sess.RemovePointer(path)
				dropped = true
			}
		}
		return dropped
	}); err != nil {
		slog.Warn("failed to save session", slog.String("error", err.Error()))
	}

	slog.Debug("swept edit buffers", slog.Int("removed", len(removed)))
	return len(removed)
}
