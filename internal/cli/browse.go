package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/snipdeck/snipdeck/internal/fileutil"
	"github.com/snipdeck/snipdeck/internal/language"
	"github.com/snipdeck/snipdeck/internal/search"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/snipdeck/snipdeck/internal/tui"
	"github.com/spf13/cobra"
)

// SnippetRecord is one snippet in machine readable listings.
type SnippetRecord struct {
	Group       string   `json:"group"`
	Kind        string   `json:"kind"`
	FilePath    string   `json:"file_path"`
	Name        string   `json:"name"`
	Prefix      string   `json:"prefix"`
	Scope       string   `json:"scope,omitempty"`
	Description string   `json:"description,omitempty"`
	Body        []string `json:"body,omitempty"`
	Score       float64  `json:"score,omitempty"`
}

func snippetRecord(g *snippet.Group, s snippet.Snippet) SnippetRecord {
	return SnippetRecord{
		Group:       g.Name,
		Kind:        g.Kind.String(),
		FilePath:    g.FilePath,
		Name:        s.Name,
		Prefix:      s.Prefix,
		Scope:       s.Scope,
		Description: s.Description,
		Body:        s.Body,
	}
}

// RunList prints the snippet tree.
func RunList(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	asJSONL, err := OptionalBoolFlag(cmd, "jsonl", false)
	if err != nil {
		return err
	}
	collapsed, err := OptionalBoolFlag(cmd, "collapsed", false)
	if err != nil {
		return err
	}

	groups := a.store.Groups()
	switch {
	case asJSON:
		return fileutil.PrintJSON(a.out, groups)
	case asJSONL:
		records := make([]SnippetRecord, 0)
		for _, g := range groups {
			for _, s := range g.Snippets {
				records = append(records, snippetRecord(g, s))
			}
		}
		data, err := fileutil.EncodeJSONL(records)
		if err != nil {
			return fmt.Errorf("failed to encode snippets: %w", err)
		}
		_, err = a.out.Write(data)
		return err
	}

	_, err = fmt.Fprint(a.out, tui.RenderTree(groups, tui.TreeOptions{
		Collapsed:  collapsed,
		Workspaces: a.workspaceNames(),
	}))
	return err
}

// RunSearch ranks snippets against a query.
func RunSearch(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	limit, err := OptionalIntFlag(cmd, "limit", 10)
	if err != nil {
		return err
	}
	query := strings.TrimSpace(strings.Join(args, " "))
	if query == "" {
		return fmt.Errorf("search query must not be empty")
	}

	groups := a.store.Groups()
	index := search.Build(groups)
	records := make([]SnippetRecord, 0, limit)
	for _, result := range search.Search(index, query, limit) {
		doc, ok := index.Document(result.ID)
		if !ok {
			continue
		}
		g, ok := a.store.ByPath(doc.FilePath)
		if !ok {
			continue
		}
		idx := g.Find(doc.Name)
		if idx < 0 {
			continue
		}
		record := snippetRecord(g, g.Snippets[idx])
		record.Score = result.Score
		records = append(records, record)
	}

	if asJSON {
		return fileutil.PrintJSON(a.out, records)
	}
	if len(records) == 0 {
		fmt.Fprintf(a.out, "no snippets match %q\n", query)
		return nil
	}
	for _, record := range records {
		fmt.Fprintf(a.out, "%-24s %-16s %s (%s)\n", record.Name, record.Prefix, record.Group, record.Kind)
	}
	return nil
}

// RunLanguages prints the language picker order.
func RunLanguages(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	showScope, err := OptionalBoolFlag(cmd, "scope", false)
	if err != nil {
		return err
	}
	selected, err := stringSliceFlag(cmd, "selected")
	if err != nil {
		return err
	}

	fix, err := stringSliceFlag(cmd, "fix")
	if err != nil {
		return err
	}
	unfix, err := stringSliceFlag(cmd, "unfix")
	if err != nil {
		return err
	}
	if len(fix) > 0 || len(unfix) > 0 {
		if err := a.cfg.UpdateFixedLanguages(fix, unfix); err != nil {
			return err
		}
		slog.Debug("updated fixed languages", slog.Any("fixed", a.cfg.FixedLanguages))
	}

	items := language.List(a.languageSources(), selected, showScope)
	if asJSON {
		return fileutil.PrintJSON(a.out, items)
	}
	for _, item := range items {
		if tag := item.Tag(); tag != "" {
			fmt.Fprintf(a.out, "%s (%s)\n", item.Lang, tag)
			continue
		}
		fmt.Fprintln(a.out, item.Lang)
	}
	return nil
}
