// Package editorhost hosts edit buffers in an external terminal editor.
package editorhost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

// Host opens scratch files in the user's editor. A buffer counts as open
// while its file exists in Dir; closing it removes the file.
type Host struct {
	// Editor is the configured editor command; VISUAL and EDITOR are used
	// when it is empty.
	Editor string
	Dir    string
	Suffix string
	Getenv func(string) string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	run func(*exec.Cmd) error
}

func New(editor, dir, suffix string) *Host {
	return &Host{
		Editor: editor,
		Dir:    dir,
		Suffix: suffix,
		Getenv: os.Getenv,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// ResolveEditor picks the editor command.
func ResolveEditor(configured string, getenv func(string) string) string {
	if editor := strings.TrimSpace(configured); editor != "" {
		return editor
	}
	if getenv != nil {
		if visual := strings.TrimSpace(getenv("VISUAL")); visual != "" {
			return visual
		}
		if editor := strings.TrimSpace(getenv("EDITOR")); editor != "" {
			return editor
		}
	}
	return "vi"
}

// Command builds the shell command that edits path. Vim style editors get a
// filetype hint for language.
func Command(ctx context.Context, editor, path, language string) *exec.Cmd {
	line := editor
	if language != "" && isVimLike(editor) {
		line += " -c " + strconv.Quote("set filetype="+language)
	}
	line += " " + strconv.Quote(path)
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", line)
	}
	return exec.CommandContext(ctx, "sh", "-lc", line)
}

func isVimLike(editor string) bool {
	fields := strings.Fields(editor)
	if len(fields) == 0 {
		return false
	}
	switch filepath.Base(fields[0]) {
	case "vi", "vim", "nvim", "gvim", "mvim":
		return true
	}
	return false
}

// Open runs the editor on path and waits for it to exit.
func (h *Host) Open(ctx context.Context, path, language string) error {
	getenv := h.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	editor := ResolveEditor(h.Editor, getenv)
	cmd := Command(ctx, editor, path, language)
	cmd.Stdin = h.Stdin
	cmd.Stdout = h.Stdout
	cmd.Stderr = h.Stderr

	slog.Debug("opening editor", slog.String("editor", editor), slog.String("path", path), slog.String("language", language))
	run := h.run
	if run == nil {
		run = (*exec.Cmd).Run
	}
	if err := run(cmd); err != nil {
		return fmt.Errorf("editor %s failed: %w", editor, err)
	}
	return nil
}

// OpenPaths lists the buffers present in Dir.
func (h *Host) OpenPaths() []string {
	entries, err := os.ReadDir(h.Dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("failed to list edit buffers", slog.String("dir", h.Dir), slog.String("error", err.Error()))
		}
		return nil
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || (h.Suffix != "" && !strings.HasSuffix(entry.Name(), h.Suffix)) {
			continue
		}
		paths = append(paths, filepath.Join(h.Dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths
}

func (h *Host) Close(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// ReadBuffer returns the saved text of an edit buffer. The single trailing
// newline most editors append on save is dropped.
func ReadBuffer(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	if strings.HasSuffix(text, "\r\n") {
		return strings.TrimSuffix(text, "\r\n"), nil
	}
	return strings.TrimSuffix(text, "\n"), nil
}
