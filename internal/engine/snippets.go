package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/snipdeck/snipdeck/internal/snippet"
)

// AddSnippet appends s to the group at path.
func (e *Engine) AddSnippet(ctx context.Context, path string, s snippet.Snippet) (snippet.Snippet, error) {
	return e.SaveSnippet(ctx, path, "", s)
}

// SaveSnippet stores a snippet edited in the structured form. origin is the
// name the snippet had when the form was opened; empty means a new snippet.
// Edits keep the snippet's position even when the name changes; open edit
// buffers of a renamed snippet are re-keyed rather than closed.
func (e *Engine) SaveSnippet(ctx context.Context, path, origin string, s snippet.Snippet) (snippet.Snippet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return snippet.Snippet{}, err
	}
	g, err := e.writable(path)
	if err != nil {
		return snippet.Snippet{}, err
	}

	saved := snippet.Normalize(s, g.Kind)
	if err := validateSnippet(g, saved, origin); err != nil {
		return snippet.Snippet{}, err
	}

	working := g.CloneSnippets()
	oldID := ""
	if origin == "" {
		working = append(working, saved)
	} else {
		idx := g.Find(origin)
		if idx < 0 {
			return snippet.Snippet{}, snippet.SnippetNotFound(origin)
		}
		if saved.Extra == nil {
			saved.Extra = working[idx].Extra
		}
		oldID = working[idx].ID
		working[idx] = saved
	}

	if err := e.write(ctx, g, working); err != nil {
		return snippet.Snippet{}, err
	}
	e.recordUsage(g, saved)
	e.commit(ctx, g.FilePath)
	if oldID != "" && oldID != saved.ID {
		e.rekey(ctx, g, oldID, saved.ID)
	}
	return saved, nil
}

// RenameSnippet renames oldName to newName in place.
func (e *Engine) RenameSnippet(ctx context.Context, path, oldName, newName string) (snippet.Snippet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return snippet.Snippet{}, err
	}
	g, err := e.writable(path)
	if err != nil {
		return snippet.Snippet{}, err
	}
	idx := g.Find(oldName)
	if idx < 0 {
		return snippet.Snippet{}, snippet.SnippetNotFound(oldName)
	}
	if err := ValidateSnippetName(g, newName, oldName); err != nil {
		return snippet.Snippet{}, err
	}
	newName = strings.TrimSpace(newName)
	if newName == oldName {
		return g.Snippets[idx], nil
	}

	e.closeAll(ctx)

	working := g.CloneSnippets()
	working[idx].Name = newName
	working[idx].ID = snippet.SnippetID(newName)

	if err := e.write(ctx, g, working); err != nil {
		return snippet.Snippet{}, err
	}
	e.commit(ctx, g.FilePath)
	return working[idx], nil
}

// UpdateBody replaces the body of the snippet with the given id. It reports
// whether the file was written; an unchanged body is not written.
func (e *Engine) UpdateBody(ctx context.Context, path, snippetID string, body []string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return false, err
	}
	g, err := e.writable(path)
	if err != nil {
		return false, err
	}
	idx := g.FindByID(snippetID)
	if idx < 0 {
		return false, snippet.SnippetNotFound(snippetID)
	}
	if snippet.EqualBody(g.Snippets[idx].Body, body) {
		return false, nil
	}

	working := g.CloneSnippets()
	working[idx].Body = snippet.NormalizeBody(body)

	if err := e.write(ctx, g, working); err != nil {
		return false, err
	}
	e.commit(ctx, g.FilePath)
	return true, nil
}

// DeleteSnippet removes the named snippet.
func (e *Engine) DeleteSnippet(ctx context.Context, path, name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	g, err := e.writable(path)
	if err != nil {
		return err
	}
	idx := g.Find(name)
	if idx < 0 {
		return snippet.SnippetNotFound(name)
	}

	e.closeAll(ctx)

	working := g.CloneSnippets()
	working = append(working[:idx], working[idx+1:]...)

	if err := e.write(ctx, g, working); err != nil {
		return err
	}
	e.commit(ctx, g.FilePath)
	return nil
}

// CopySnippet appends a clone of the named snippet under a fresh
// "<name>-<unix millis>" name.
func (e *Engine) CopySnippet(ctx context.Context, path, name string) (snippet.Snippet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return snippet.Snippet{}, err
	}
	g, err := e.writable(path)
	if err != nil {
		return snippet.Snippet{}, err
	}
	idx := g.Find(name)
	if idx < 0 {
		return snippet.Snippet{}, snippet.SnippetNotFound(name)
	}

	clone := g.Snippets[idx].Clone()
	clone.Name = uniqueName(g, fmt.Sprintf("%s-%d", name, e.now().UnixMilli()))
	clone.ID = snippet.SnippetID(clone.Name)

	working := append(g.CloneSnippets(), clone)
	if err := e.write(ctx, g, working); err != nil {
		return snippet.Snippet{}, err
	}
	e.commit(ctx, g.FilePath)
	return clone, nil
}

func uniqueName(g *snippet.Group, base string) string {
	if g.Find(base) < 0 {
		return base
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d", base, n)
		if g.Find(candidate) < 0 {
			return candidate
		}
	}
}
