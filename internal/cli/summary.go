package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/snipdeck/snipdeck/internal/fileutil"
)

// ActionSummary describes the outcome of one mutating command.
type ActionSummary struct {
	Action   string `json:"action"`
	Group    string `json:"group,omitempty"`
	Path     string `json:"path,omitempty"`
	Snippet  string `json:"snippet,omitempty"`
	Target   string `json:"target,omitempty"`
	Position int    `json:"position,omitempty"`
	Changed  bool   `json:"changed"`
	Diff     string `json:"diff,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

type DoctorSummary struct {
	Mode         string   `json:"mode"`
	Home         string   `json:"home"`
	UserDir      string   `json:"user_dir"`
	Workspaces   []string `json:"workspaces,omitempty"`
	Editor       string   `json:"editor"`
	Healthy      bool     `json:"healthy"`
	Groups       int      `json:"groups"`
	Snippets     int      `json:"snippets"`
	Invalid      []string `json:"invalid,omitempty"`
	JSONC        []string `json:"jsonc,omitempty"`
	Coerced      []string `json:"coerced,omitempty"`
	Buffers      int      `json:"buffers"`
	StaleBuffers int      `json:"stale_buffers"`
	Missing      []string `json:"missing,omitempty"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

func PrintActionSummary(w io.Writer, summary ActionSummary, asJSON bool) error {
	if asJSON {
		return fileutil.PrintJSON(w, summary)
	}

	parts := []string{summary.Action + ":"}
	if summary.Snippet != "" {
		parts = append(parts, fmt.Sprintf("snippet=%s", summary.Snippet))
	}
	if summary.Group != "" {
		parts = append(parts, fmt.Sprintf("group=%s", summary.Group))
	}
	if summary.Target != "" {
		parts = append(parts, fmt.Sprintf("target=%s", summary.Target))
	}
	if !summary.Changed {
		parts = append(parts, "unchanged")
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
	if summary.Path != "" {
		fmt.Fprintf(w, "file: %s\n", summary.Path)
	}
	if summary.Detail != "" {
		fmt.Fprintln(w, summary.Detail)
	}
	if summary.Diff != "" {
		fmt.Fprint(w, summary.Diff)
	}
	return nil
}

func SummarizePaths(paths []string, max int) string {
	if len(paths) <= max {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s ... (+%d more)", strings.Join(paths[:max], ", "), len(paths)-max)
}
