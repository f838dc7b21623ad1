package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/snipdeck/snipdeck/internal/bridge"
	"github.com/snipdeck/snipdeck/internal/editorhost"
	"github.com/snipdeck/snipdeck/internal/engine"
	"github.com/snipdeck/snipdeck/internal/language"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/spf13/cobra"
)

// RunSnippetAdd appends a snippet to a group. Values not given as flags are
// asked for; --from-clipboard takes the body from the clipboard and guesses
// the scope from it.
func RunSnippetAdd(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	g, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}

	var s snippet.Snippet
	if s.Name, err = OptionalStringFlag(cmd, "name"); err != nil {
		return err
	}
	if s.Prefix, err = OptionalStringFlag(cmd, "prefix"); err != nil {
		return err
	}
	if s.Scope, err = OptionalStringFlag(cmd, "scope"); err != nil {
		return err
	}
	if s.Description, err = OptionalStringFlag(cmd, "description"); err != nil {
		return err
	}
	body, err := snippetBodyInput(cmd)
	if err != nil {
		return err
	}
	s.Body = snippet.SplitLines(body)

	if s.Name == "" {
		validate := func(name string) error { return engine.ValidateSnippetName(g, name, "") }
		if s.Name, err = a.prompter.Input("Snippet name", "", validate); err != nil {
			return err
		}
	}
	if s.Prefix == "" {
		if s.Prefix, err = a.prompter.Input("Prefix", s.Name, engine.ValidatePrefix); err != nil {
			return err
		}
	}
	if g.Kind.ExplicitScope() && s.Scope == "" {
		var selected []string
		if detected := language.Detect(ctx, body); detected != "" {
			slog.Debug("detected snippet language", slog.String("language", detected))
			selected = []string{detected}
		}
		if s.Scope, err = a.pickLanguage("scope", selected, true); err != nil {
			return err
		}
	}

	added, err := a.engine.AddSnippet(ctx, g.FilePath, s)
	if err != nil {
		return err
	}

	edit, err := OptionalBoolFlag(cmd, "edit", false)
	if err != nil {
		return err
	}
	summary := ActionSummary{Action: "snippet added", Group: g.Name, Path: g.FilePath, Snippet: added.Name, Changed: true}
	if edit {
		result, err := a.editSnippet(ctx, g.FilePath, added)
		if err != nil {
			return err
		}
		summary.Diff = result.Diff
	}
	return PrintActionSummary(a.out, summary, asJSON)
}

func snippetBodyInput(cmd *cobra.Command) (string, error) {
	fromClipboard, err := OptionalBoolFlag(cmd, "from-clipboard", false)
	if err != nil {
		return "", err
	}
	if fromClipboard {
		text, err := readClipboard()
		if err != nil {
			return "", fmt.Errorf("failed to read clipboard: %w", err)
		}
		return snippet.NormalizeNewlines(text), nil
	}
	if cmd == nil || cmd.Flags().Lookup("body") == nil {
		return "", nil
	}
	return cmd.Flags().GetString("body")
}

// RunSnippetEdit opens the snippet body in the editor and folds the saved
// text back into the group.
func RunSnippetEdit(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	g, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}
	s, err := a.resolveSnippet(g, argAt(args, 1))
	if err != nil {
		return err
	}

	result, err := a.editSnippet(ctx, g.FilePath, s)
	if err != nil {
		return err
	}
	return PrintActionSummary(a.out, ActionSummary{
		Action:  "snippet edited",
		Group:   g.Name,
		Path:    g.FilePath,
		Snippet: s.Name,
		Changed: result.Changed,
		Diff:    result.Diff,
	}, asJSON)
}

func (a *app) editSnippet(ctx context.Context, groupPath string, s snippet.Snippet) (bridge.SaveResult, error) {
	g, ok := a.store.ByPath(groupPath)
	if !ok {
		return bridge.SaveResult{}, snippet.GroupNotFound(groupPath)
	}
	buffer, err := a.bridge.Open(ctx, g, s)
	if err != nil {
		return bridge.SaveResult{}, err
	}
	return a.foldBuffer(ctx, buffer)
}

func (a *app) foldBuffer(ctx context.Context, path string) (bridge.SaveResult, error) {
	text, err := editorhost.ReadBuffer(path)
	if err != nil {
		return bridge.SaveResult{}, fmt.Errorf("failed to read edit buffer: %w", err)
	}
	return a.bridge.OnSave(ctx, path, text)
}

// RunSave handles a save of an edit buffer by an outside editor.
func RunSave(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	path, err := filepath.Abs(argAt(args, 0))
	if err != nil {
		return fmt.Errorf("invalid path %s: %w", argAt(args, 0), err)
	}
	if !a.bridge.Owns(path) {
		slog.Debug("ignoring save outside the edit buffer directory", slog.String("path", path))
		return PrintActionSummary(a.out, ActionSummary{Action: "save", Path: path, Detail: "not an edit buffer"}, asJSON)
	}

	result, err := a.foldBuffer(ctx, path)
	if err != nil {
		return err
	}
	summary := ActionSummary{Action: "save", Path: result.GroupPath, Snippet: result.Snippet, Changed: result.Changed, Diff: result.Diff}
	if !result.Handled {
		slog.Warn("edit buffer no longer points at a snippet; changes were not saved", slog.String("path", path))
		summary.Path = path
		summary.Detail = "edit buffer no longer points at a snippet; changes were not saved"
	}
	return PrintActionSummary(a.out, summary, asJSON)
}

func RunSnippetRename(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	g, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}
	s, err := a.resolveSnippet(g, argAt(args, 1))
	if err != nil {
		return err
	}
	name := argAt(args, 2)
	if name == "" {
		validate := func(value string) error { return engine.ValidateSnippetName(g, value, s.Name) }
		if name, err = a.prompter.Input("New snippet name", s.Name, validate); err != nil {
			return err
		}
	}

	renamed, err := a.engine.RenameSnippet(ctx, g.FilePath, s.Name, name)
	if err != nil {
		return err
	}
	return PrintActionSummary(a.out, ActionSummary{
		Action:  "snippet renamed",
		Group:   g.Name,
		Path:    g.FilePath,
		Snippet: renamed.Name,
		Changed: renamed.Name != s.Name,
	}, asJSON)
}

func RunSnippetDelete(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	yes, err := OptionalBoolFlag(cmd, "yes", false)
	if err != nil {
		return err
	}
	g, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}
	s, err := a.resolveSnippet(g, argAt(args, 1))
	if err != nil {
		return err
	}
	if !yes {
		ok, err := a.prompter.Confirm(fmt.Sprintf("Delete snippet %s from %s?", s.Name, g.Name))
		if err != nil {
			return err
		}
		if !ok {
			return snippet.ErrCancelled
		}
	}

	if err := a.engine.DeleteSnippet(ctx, g.FilePath, s.Name); err != nil {
		return err
	}
	return PrintActionSummary(a.out, ActionSummary{Action: "snippet deleted", Group: g.Name, Path: g.FilePath, Snippet: s.Name, Changed: true}, asJSON)
}

func RunSnippetCopy(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	g, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}
	s, err := a.resolveSnippet(g, argAt(args, 1))
	if err != nil {
		return err
	}

	clone, err := a.engine.CopySnippet(ctx, g.FilePath, s.Name)
	if err != nil {
		return err
	}
	return PrintActionSummary(a.out, ActionSummary{Action: "snippet copied", Group: g.Name, Path: g.FilePath, Snippet: clone.Name, Changed: true}, asJSON)
}

// RunSnippetMove drops a snippet onto a group, or after --after inside it.
func RunSnippetMove(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	src, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}
	s, err := a.resolveSnippet(src, argAt(args, 1))
	if err != nil {
		return err
	}
	to, err := OptionalStringFlag(cmd, "to")
	if err != nil {
		return err
	}
	after, err := OptionalStringFlag(cmd, "after")
	if err != nil {
		return err
	}
	dst := src
	if to != "" || after == "" {
		if dst, err = a.resolveGroup(to); err != nil {
			return err
		}
	}

	result, err := a.engine.MoveSnippet(ctx, engine.Drop{
		SourcePath:    src.FilePath,
		Snippet:       s.Name,
		TargetPath:    dst.FilePath,
		TargetSnippet: after,
	})
	if err != nil {
		return err
	}
	return PrintActionSummary(a.out, ActionSummary{
		Action:   "snippet moved",
		Group:    src.Name,
		Target:   dst.Name,
		Path:     result.Path,
		Snippet:  result.Snippet.Name,
		Position: result.Position,
		Changed:  result.Moved,
	}, asJSON)
}

// RunSnippetBody prints the body of a snippet, or copies it with --copy.
func RunSnippetBody(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	g, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}
	s, err := a.resolveSnippet(g, argAt(args, 1))
	if err != nil {
		return err
	}
	copyBody, err := OptionalBoolFlag(cmd, "copy", false)
	if err != nil {
		return err
	}

	text := snippet.JoinLines(s.Body)
	if copyBody {
		if err := writeClipboard(text); err != nil {
			return fmt.Errorf("failed to write clipboard: %w", err)
		}
		slog.Debug("copied snippet body", slog.String("snippet", s.Name))
		return nil
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err = fmt.Fprint(a.out, text)
	return err
}

func RunSweep(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	removed := a.bridge.Sweep(time.Now())
	return PrintActionSummary(a.out, ActionSummary{
		Action:  "sweep",
		Path:    a.bridge.Dir(),
		Changed: removed > 0,
		Detail:  fmt.Sprintf("removed %d edit buffers", removed),
	}, asJSON)
}
