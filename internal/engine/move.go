package engine

import (
	"context"
	"slices"

	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/snipdeck/snipdeck/internal/store"
)

// Drop describes a drag and drop of one snippet. An empty TargetSnippet means
// the snippet was dropped on the target group itself.
type Drop struct {
	SourcePath    string
	Snippet       string
	TargetPath    string
	TargetSnippet string
}

// MoveResult reports where a moved snippet ended up.
type MoveResult struct {
	Snippet  snippet.Snippet
	Path     string
	Position int
	Moved    bool
}

// MoveSnippet applies a drop. Dropping on the group prepends; dropping on a
// snippet inserts right after it. Crossing between language and non-language
// groups strips or synthesizes the scope.
func (e *Engine) MoveSnippet(ctx context.Context, drop Drop) (MoveResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return MoveResult{}, err
	}
	src, err := e.writable(drop.SourcePath)
	if err != nil {
		return MoveResult{}, err
	}
	dst, err := e.writable(drop.TargetPath)
	if err != nil {
		return MoveResult{}, err
	}
	idx := src.Find(drop.Snippet)
	if idx < 0 {
		return MoveResult{}, snippet.SnippetNotFound(drop.Snippet)
	}
	if drop.TargetSnippet != "" && dst.Find(drop.TargetSnippet) < 0 {
		return MoveResult{}, snippet.SnippetNotFound(drop.TargetSnippet)
	}

	if src == dst || store.SamePath(src.FilePath, dst.FilePath) {
		return e.reorder(ctx, src, idx, drop.TargetSnippet)
	}

	moved := src.Snippets[idx].Clone()
	if err := ValidateSnippetName(dst, moved.Name, ""); err != nil {
		return MoveResult{}, err
	}
	switch {
	case src.IsLanguage() && !dst.IsLanguage():
		moved.Scope = src.Name
	case !src.IsLanguage() && dst.IsLanguage():
		moved.Scope = ""
	}

	dstWorking := dst.CloneSnippets()
	pos := insertPosition(dstWorking, drop.TargetSnippet)
	dstWorking = slices.Insert(dstWorking, pos, moved)

	srcWorking := src.CloneSnippets()
	srcWorking = slices.Delete(srcWorking, idx, idx+1)

	e.closeAll(ctx)

	if err := e.write(ctx, dst, dstWorking); err != nil {
		return MoveResult{}, err
	}
	if err := e.write(ctx, src, srcWorking); err != nil {
		// The destination already holds the snippet on disk.
		e.resync(ctx, dst.FilePath)
		e.notify([]string{src.FilePath, dst.FilePath})
		return MoveResult{}, err
	}

	e.commit(ctx, src.FilePath, dst.FilePath)
	return MoveResult{Snippet: moved, Path: dst.FilePath, Position: pos, Moved: true}, nil
}

func (e *Engine) reorder(ctx context.Context, g *snippet.Group, idx int, target string) (MoveResult, error) {
	current := g.Snippets[idx]
	noop := MoveResult{Snippet: current, Path: g.FilePath, Position: idx}
	if target == current.Name || (target == "" && len(g.Snippets) <= 1) {
		return noop, nil
	}

	working := g.CloneSnippets()
	working = slices.Delete(working, idx, idx+1)
	pos := insertPosition(working, target)
	if pos == idx {
		return noop, nil
	}
	working = slices.Insert(working, pos, current.Clone())

	if err := e.write(ctx, g, working); err != nil {
		return MoveResult{}, err
	}
	e.commit(ctx, g.FilePath)
	return MoveResult{Snippet: current, Path: g.FilePath, Position: pos, Moved: true}, nil
}

func insertPosition(snippets []snippet.Snippet, target string) int {
	if target == "" {
		return 0
	}
	for i := range snippets {
		if snippets[i].Name == target {
			return i + 1
		}
	}
	return len(snippets)
}
