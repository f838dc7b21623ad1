// Package engine implements every mutating snippet and group command. Each
// command resolves its target, validates, mutates a working copy, serializes
// and writes the affected files, rescans those paths and notifies the tree.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/snipdeck/snipdeck/internal/codec"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/snipdeck/snipdeck/internal/store"
)

// Notifier receives tree change notifications. A nil path list means the whole
// tree changed.
type Notifier interface {
	TreeChanged(paths []string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(paths []string)

func (f NotifierFunc) TreeChanged(paths []string) {
	f(paths)
}

// Closer closes editing surfaces (edit buffers, panels) that could write a
// stale snippet back after a destructive command.
type Closer interface {
	CloseAll(ctx context.Context) error
}

// Rekeyer is implemented by closers whose editors can follow a snippet that
// was renamed while open.
type Rekeyer interface {
	SnippetRenamed(ctx context.Context, g *snippet.Group, oldID, newID string) error
}

// UsageRecorder remembers languages the user scoped snippets to.
type UsageRecorder interface {
	RecordUsed(languages ...string)
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

func WithCloser(c Closer) Option {
	return func(e *Engine) {
		e.closers = append(e.closers, c)
	}
}

func WithUsageRecorder(r UsageRecorder) Option {
	return func(e *Engine) {
		e.usage = r
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// Engine is the single writer of group files.
type Engine struct {
	store *store.Store
	fs    store.FileSystem

	mu       sync.Mutex
	notifier Notifier
	closers  []Closer
	usage    UsageRecorder
	now      func() time.Time
}

func New(st *store.Store, opts ...Option) *Engine {
	e := &Engine{
		store: st,
		fs:    st.FS(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddCloser registers a closer created after the engine.
func (e *Engine) AddCloser(c Closer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closers = append(e.closers, c)
}

func (e *Engine) Store() *store.Store {
	return e.store
}

func (e *Engine) group(path string) (*snippet.Group, error) {
	g, ok := e.store.ByPath(path)
	if !ok {
		return nil, snippet.GroupNotFound(path)
	}
	return g, nil
}

// writable resolves a group whose snippet list may be rewritten. A group that
// failed to parse holds only part of its file and is refused.
func (e *Engine) writable(path string) (*snippet.Group, error) {
	g, err := e.group(path)
	if err != nil {
		return nil, err
	}
	if g.ParseErr != nil {
		return nil, snippet.Invalid("group", "%s could not be parsed (%v); fix it with snipdeck group open first", g.FileName, g.ParseErr)
	}
	return g, nil
}

func (e *Engine) closeAll(ctx context.Context) {
	for _, c := range e.closers {
		if err := c.CloseAll(ctx); err != nil {
			slog.Warn("failed to close editors", slog.String("error", err.Error()))
		}
	}
}

func (e *Engine) rekey(ctx context.Context, g *snippet.Group, oldID, newID string) {
	for _, c := range e.closers {
		r, ok := c.(Rekeyer)
		if !ok {
			continue
		}
		if err := r.SnippetRenamed(ctx, g, oldID, newID); err != nil {
			slog.Warn("failed to follow renamed snippet", slog.String("snippet", newID), slog.String("error", err.Error()))
		}
	}
}

// write persists snippets as the new content of g. On failure memory is
// resynchronized with whatever is on disk.
func (e *Engine) write(ctx context.Context, g *snippet.Group, snippets []snippet.Snippet) error {
	data, err := codec.Serialize(snippets)
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", g.FilePath, err)
	}
	if err := e.fs.WriteFile(g.FilePath, data); err != nil {
		e.resync(ctx, g.FilePath)
		return &snippet.IOError{Op: "write", Path: g.FilePath, Err: err}
	}
	return nil
}

// commit rescans the written paths and notifies the tree.
func (e *Engine) commit(ctx context.Context, paths ...string) {
	for _, path := range paths {
		e.resync(ctx, path)
	}
	e.notify(paths)
}

func (e *Engine) resync(ctx context.Context, path string) {
	if _, err := e.store.RescanOne(context.WithoutCancel(ctx), path); err != nil {
		slog.Warn("failed to rescan group", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (e *Engine) rescanAll(ctx context.Context) {
	if _, err := e.store.RescanAll(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("failed to rescan groups", slog.String("error", err.Error()))
	}
}

func (e *Engine) notify(paths []string) {
	if e.notifier == nil {
		return
	}
	e.notifier.TreeChanged(paths)
}

func (e *Engine) recordUsage(g *snippet.Group, s snippet.Snippet) {
	if e.usage == nil || !g.Kind.ExplicitScope() {
		return
	}
	e.usage.RecordUsed(snippet.ScopeTokens(s.Scope)...)
}
