package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/snipdeck/snipdeck/internal/snippet"
)

var (
	groupStyle   = lipgloss.NewStyle().Bold(true)
	kindStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	prefixStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("109"))
	invalidStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
)

type TreeOptions struct {
	// Collapsed hides the snippets of every group.
	Collapsed bool
	// Workspaces maps workspace group paths to their folder name.
	Workspaces map[string]string
}

// RenderTree draws groups in collection order with their snippets below.
func RenderTree(groups []*snippet.Group, opts TreeOptions) string {
	if len(groups) == 0 {
		return hintStyle.Render("no snippet groups found") + "\n"
	}

	var b strings.Builder
	for _, g := range groups {
		b.WriteString(groupLine(g, opts))
		b.WriteString("\n")
		if opts.Collapsed {
			continue
		}
		for i, s := range g.Snippets {
			branch := "├─ "
			if i == len(g.Snippets)-1 {
				branch = "└─ "
			}
			b.WriteString(branch)
			b.WriteString(snippetLine(g, s))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func groupLine(g *snippet.Group, opts TreeOptions) string {
	kind := g.Kind.Label()
	if folder := opts.Workspaces[g.FilePath]; folder != "" {
		kind += " · " + folder
	}
	line := fmt.Sprintf("%s %s", groupStyle.Render(g.Name), kindStyle.Render(fmt.Sprintf("(%s, %d)", kind, len(g.Snippets))))
	if g.ParseErr != nil {
		line += " " + invalidStyle.Render("invalid: "+g.ParseErr.Error())
	}
	return line
}

func snippetLine(g *snippet.Group, s snippet.Snippet) string {
	line := s.Name
	if s.Prefix != "" {
		line += "  " + prefixStyle.Render(s.Prefix)
	}
	if g.Kind.ExplicitScope() && s.Scope != "" {
		line += "  " + kindStyle.Render("["+s.Scope+"]")
	}
	return line
}
