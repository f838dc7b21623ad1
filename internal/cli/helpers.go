package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/snipdeck/snipdeck/internal/language"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/snipdeck/snipdeck/internal/store"
)

func IsCorruptStateError(err error) bool {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return true
	}
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &typeErr)
}

// resolveGroup finds a group by path, file name or name. An empty ref asks
// the user to pick one.
func (a *app) resolveGroup(ref string) (*snippet.Group, error) {
	groups := a.store.Groups()
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if len(groups) == 0 {
			return nil, errors.New("no snippet groups found; create one with `snipdeck group add`")
		}
		labels := make([]string, len(groups))
		for i, g := range groups {
			labels[i] = fmt.Sprintf("%s (%s)", g.Name, g.Kind.Label())
		}
		idx, err := a.prompter.Pick("group", labels, func(i int) string { return groups[i].FilePath })
		if err != nil {
			return nil, err
		}
		return groups[idx], nil
	}

	if abs, err := filepath.Abs(ref); err == nil {
		if g, ok := a.store.ByPath(abs); ok {
			return g, nil
		}
	}

	var matches []*snippet.Group
	for _, g := range groups {
		if g.FileName == ref || g.Name == ref {
			matches = append(matches, g)
		}
	}
	switch len(matches) {
	case 0:
		return nil, snippet.GroupNotFound(ref)
	case 1:
		return matches[0], nil
	default:
		paths := make([]string, len(matches))
		for i, g := range matches {
			paths[i] = g.FilePath
		}
		return nil, fmt.Errorf("group %q is ambiguous; use a path: %s", ref, SummarizePaths(paths, 4))
	}
}

// resolveSnippet finds a snippet of g by name or id. An empty ref asks the
// user to pick one.
func (a *app) resolveSnippet(g *snippet.Group, ref string) (snippet.Snippet, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		if len(g.Snippets) == 0 {
			return snippet.Snippet{}, fmt.Errorf("group %s has no snippets", g.Name)
		}
		labels := make([]string, len(g.Snippets))
		for i, s := range g.Snippets {
			labels[i] = s.Name
			if s.Prefix != "" {
				labels[i] += "  " + s.Prefix
			}
		}
		idx, err := a.prompter.Pick("snippet", labels, func(i int) string {
			return snippet.JoinLines(g.Snippets[i].Body)
		})
		if err != nil {
			return snippet.Snippet{}, err
		}
		return g.Snippets[idx], nil
	}

	if idx := g.Find(ref); idx >= 0 {
		return g.Snippets[idx], nil
	}
	if idx := g.FindByID(ref); idx >= 0 {
		return g.Snippets[idx], nil
	}
	return snippet.Snippet{}, snippet.SnippetNotFound(ref)
}

// workspaceNames maps workspace group paths to their folder name.
func (a *app) workspaceNames() map[string]string {
	layout := a.store.Layout()
	if layout.Folders == nil {
		return nil
	}
	names := make(map[string]string)
	for _, folder := range layout.Folders.WorkspaceFolders() {
		dir := layout.WorkspaceDir(folder.Root)
		for _, g := range a.store.Groups() {
			if g.Kind == snippet.KindWorkspace && store.SamePath(filepath.Dir(g.FilePath), dir) {
				names[g.FilePath] = folder.Name
			}
		}
	}
	return names
}

// pickLanguage offers the language list, selected scopes first.
func (a *app) pickLanguage(title string, selected []string, showScope bool) (string, error) {
	items := language.List(a.languageSources(), selected, showScope)
	labels := make([]string, len(items))
	for i, item := range items {
		labels[i] = item.Lang
		if tag := item.Tag(); tag != "" {
			labels[i] += "  (" + tag + ")"
		}
	}
	idx, err := a.prompter.Pick(title, labels, nil)
	if err != nil {
		return "", err
	}
	return items[idx].Lang, nil
}
