package cli

import (
	"context"
	"fmt"

	"github.com/snipdeck/snipdeck/internal/fileutil"
	"github.com/snipdeck/snipdeck/internal/language"
	"github.com/snipdeck/snipdeck/internal/panel"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/spf13/cobra"
)

// RunPanel serves the editing panel over stdin and stdout as JSON lines.
// Without a snippet argument the panel opens on a new snippet.
func RunPanel(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	g, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}
	var (
		s      snippet.Snippet
		origin string
	)
	if ref := argAt(args, 1); ref != "" {
		if s, err = a.resolveSnippet(g, ref); err != nil {
			return err
		}
		origin = s.Name
	}

	p := panel.New(panel.Config{
		Store: a.store,
		Saver: a.engine,
		Languages: func(selected []string, showScope bool) []language.Item {
			return language.List(a.languageSources(), selected, showScope)
		},
		Out: a.out,
	})
	a.engine.AddCloser(p)

	if _, err := p.Show(g, s, origin); err != nil {
		return err
	}
	return p.Serve(ctx, cmd.InOrStdin())
}

// RunSchema prints the JSON schema of the panel messages.
func RunSchema(cmd *cobra.Command, args []string) error {
	schemas := panel.Schema()
	if len(args) == 0 {
		return fileutil.PrintJSON(cmd.OutOrStdout(), schemas)
	}
	schema, ok := schemas[args[0]]
	if !ok {
		return fmt.Errorf("unknown message type %q (supported: %s)", args[0], SummarizePaths(schemaKeys(schemas), 8))
	}
	return fileutil.PrintJSON(cmd.OutOrStdout(), schema)
}

func schemaKeys[V any](m map[string]V) []string {
	keys := make(map[string]bool, len(m))
	for key := range m {
		keys[key] = true
	}
	return fileutil.MapKeysSorted(keys)
}
