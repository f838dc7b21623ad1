package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/snipdeck/snipdeck/internal/editorhost"
	"github.com/snipdeck/snipdeck/internal/fileutil"
	"github.com/snipdeck/snipdeck/internal/state"
	"github.com/spf13/cobra"
)

// RunDoctor checks directories, group files and edit buffers.
func RunDoctor(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}

	layout := a.store.Layout()
	summary := DoctorSummary{
		Mode:    "doctor",
		Home:    a.cfg.Home,
		UserDir: layout.UserDir,
		Editor:  editorhost.ResolveEditor(a.cfg.Editor, os.Getenv),
	}
	if layout.Folders != nil {
		for _, folder := range layout.Folders.WorkspaceFolders() {
			summary.Workspaces = append(summary.Workspaces, folder.Root)
		}
	}

	if info, err := os.Stat(layout.UserDir); err != nil || !info.IsDir() {
		summary.Missing = append(summary.Missing, "user snippet directory")
		summary.Suggestions = append(summary.Suggestions, "set userDir in "+a.cfg.SettingsPath()+" or pass --user-dir")
	}

	groups := a.store.Groups()
	summary.Groups = len(groups)
	for _, g := range groups {
		summary.Snippets += len(g.Snippets)
		if g.JSONC {
			summary.JSONC = append(summary.JSONC, g.FilePath)
		}
		for _, warning := range g.Warnings {
			slog.Debug("coerced snippet field", slog.String("path", g.FilePath), slog.String("warning", warning))
		}
		if len(g.Warnings) > 0 {
			summary.Coerced = append(summary.Coerced, g.FilePath)
		}
	}
	for _, g := range a.store.Diagnostics() {
		summary.Invalid = append(summary.Invalid, g.FilePath)
	}
	if len(summary.Invalid) > 0 {
		summary.Suggestions = append(summary.Suggestions, "fix invalid group files with snipdeck group open")
	}
	if len(summary.Coerced) > 0 {
		summary.Suggestions = append(summary.Suggestions, "fields of unexpected type are written back as text; check them with snipdeck group open")
	}
	if len(summary.JSONC) > 0 {
		summary.Suggestions = append(summary.Suggestions, "comments in JSONC group files are dropped when snipdeck rewrites them")
	}

	var buffers []string
	a.sessions.View(func(sess *state.Session) {
		buffers = sess.PointerPaths()
	})
	summary.Buffers = len(buffers)
	for _, path := range buffers {
		if _, err := os.Stat(path); err != nil {
			summary.StaleBuffers++
		}
	}
	if summary.StaleBuffers > 0 {
		summary.Suggestions = append(summary.Suggestions, "run snipdeck sweep")
	}

	summary.Missing = fileutil.DedupeStrings(summary.Missing)
	sort.Strings(summary.Missing)
	summary.Suggestions = fileutil.DedupeStrings(summary.Suggestions)
	sort.Strings(summary.Suggestions)
	summary.Healthy = len(summary.Missing) == 0 && len(summary.Invalid) == 0

	if asJSON {
		return fileutil.PrintJSON(a.out, summary)
	}

	status := "issues"
	if summary.Healthy {
		status = "ok"
	}
	w := a.out
	fmt.Fprintf(w, "doctor: %s\n", status)
	fmt.Fprintf(w, "user dir: %s\n", summary.UserDir)
	if len(summary.Workspaces) > 0 {
		fmt.Fprintf(w, "workspaces (%d): %s\n", len(summary.Workspaces), SummarizePaths(summary.Workspaces, 4))
	}
	fmt.Fprintf(w, "groups: %d snippets=%d\n", summary.Groups, summary.Snippets)
	fmt.Fprintf(w, "edit buffers: %d stale=%d editor=%s\n", summary.Buffers, summary.StaleBuffers, summary.Editor)
	if len(summary.Invalid) > 0 {
		fmt.Fprintf(w, "invalid (%d): %s\n", len(summary.Invalid), SummarizePaths(summary.Invalid, 5))
	}
	if len(summary.Coerced) > 0 {
		fmt.Fprintf(w, "coerced (%d): %s\n", len(summary.Coerced), SummarizePaths(summary.Coerced, 5))
	}
	if len(summary.JSONC) > 0 {
		fmt.Fprintf(w, "jsonc (%d): %s\n", len(summary.JSONC), SummarizePaths(summary.JSONC, 5))
	}
	if len(summary.Missing) > 0 {
		fmt.Fprintf(w, "missing (%d): %s\n", len(summary.Missing), strings.Join(summary.Missing, ", "))
	}
	for _, suggestion := range summary.Suggestions {
		fmt.Fprintf(w, "next: %s\n", suggestion)
	}
	return nil
}
