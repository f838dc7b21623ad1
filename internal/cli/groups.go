package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/snipdeck/snipdeck/internal/engine"
	"github.com/snipdeck/snipdeck/internal/snippet"
	"github.com/spf13/cobra"
)

var groupKinds = []snippet.Kind{snippet.KindLanguage, snippet.KindGlobal, snippet.KindWorkspace}

// RunGroupAdd creates an empty group. Missing kind and name are asked for.
func RunGroupAdd(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	kind, err := ParseKindFlag(cmd)
	if err != nil {
		return err
	}
	root, err := OptionalStringFlag(cmd, "root")
	if err != nil {
		return err
	}

	if kind == 0 {
		labels := make([]string, len(groupKinds))
		for i, k := range groupKinds {
			labels[i] = k.Label()
		}
		idx, err := a.prompter.Pick("kind", labels, nil)
		if err != nil {
			return err
		}
		kind = groupKinds[idx]
	}

	name := ""
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if name == "" {
		if kind == snippet.KindLanguage {
			name, err = a.pickLanguage("language", nil, false)
		} else {
			name, err = a.prompter.Input("Group name", "", engine.ValidateGroupName)
		}
		if err != nil {
			return err
		}
	}

	g, err := a.engine.AddGroup(ctx, kind, name, root)
	if err != nil {
		return err
	}
	return PrintActionSummary(a.out, ActionSummary{Action: "group added", Group: g.Name, Path: g.FilePath, Changed: true}, asJSON)
}

func RunGroupRename(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	asJSON, err := OptionalBoolFlag(cmd, "json", false)
	if err != nil {
		return err
	}
	g, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}
	name := argAt(args, 1)
	if name == "" {
		name, err = a.prompter.Input("New group name", g.Name, engine.ValidateGroupName)
		if err != nil {
			return err
		}
	}

	renamed, err := a.engine.RenameGroup(ctx, g.FilePath, name)
	if err != nil {
		return err
	}
	return PrintActionSummary(a.out, ActionSummary{
		Action:  "group renamed",
		Group:   renamed.Name,
		Path:    renamed.FilePath,
		Changed: renamed.FilePath != g.FilePath,
	}, asJSON)
}

func RunGroupDelete(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
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
	if !yes {
		ok, err := a.prompter.Confirm(fmt.Sprintf("Delete group %s and its %d snippets?", g.Name, len(g.Snippets)))
		if err != nil {
			return err
		}
		if !ok {
			return snippet.ErrCancelled
		}
	}

	if err := a.engine.DeleteGroup(ctx, g.FilePath); err != nil {
		return err
	}
	return PrintActionSummary(a.out, ActionSummary{Action: "group deleted", Group: g.Name, Path: g.FilePath, Changed: true}, asJSON)
}

// RunGroupOpen edits the group file itself and reloads it afterwards.
func RunGroupOpen(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	g, err := a.resolveGroup(argAt(args, 0))
	if err != nil {
		return err
	}
	if a.docs == nil {
		fmt.Fprintln(a.out, g.FilePath)
		return nil
	}
	if err := a.docs.Open(ctx, g.FilePath, "jsonc"); err != nil {
		return err
	}
	if _, err := a.store.RescanOne(ctx, g.FilePath); err != nil {
		return err
	}
	if reloaded, ok := a.store.ByPath(g.FilePath); ok && reloaded.ParseErr != nil {
		return fmt.Errorf("group %s is not valid after editing: %w", g.Name, reloaded.ParseErr)
	}
	return nil
}

func argAt(args []string, i int) string {
	if i < len(args) {
		return strings.TrimSpace(args[i])
	}
	return ""
}
