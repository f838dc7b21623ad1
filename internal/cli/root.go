package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "snipdeck",
		Short: "Manage editor code snippets from the terminal",
		Long: `Snipdeck manages VS Code style snippet files: language groups in the user
snippet directory, global .code-snippets groups next to them and workspace
groups inside each workspace's .vscode directory.

Group files are rewritten in place; snippet bodies can be edited in your
$EDITOR or through the JSON-lines editing panel.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
	}
	rootCmd.PersistentFlags().String("user-dir", "", "User snippet directory (default: the editor's user snippets dir)")
	rootCmd.PersistentFlags().StringSlice("workspace", []string{}, "Workspace folder roots (default: configured workspaces or the current directory)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// Browse Commands
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show snippet groups and their snippets",
		Args:  cobra.NoArgs,
		RunE:  run(RunList),
	}
	listCmd.Flags().Bool("collapsed", false, "Show groups only")
	listCmd.Flags().Bool("json", false, "Print groups as JSON")
	listCmd.Flags().Bool("jsonl", false, "Print one JSON line per snippet")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search snippets by name, prefix, description and body",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run(RunSearch),
	}
	searchCmd.Flags().Int("limit", 10, "Maximum number of results")
	searchCmd.Flags().Bool("json", false, "Print machine-readable results")

	languagesCmd := &cobra.Command{
		Use:   "languages",
		Short: "Show the language picker order",
		Args:  cobra.NoArgs,
		RunE:  run(RunLanguages),
	}
	languagesCmd.Flags().StringSlice("selected", []string{}, "Languages already selected")
	languagesCmd.Flags().Bool("scope", false, "List languages for a snippet scope")
	languagesCmd.Flags().Bool("json", false, "Print machine-readable items")
	languagesCmd.Flags().StringSlice("fix", []string{}, "Pin languages to the top of the picker")
	languagesCmd.Flags().StringSlice("unfix", []string{}, "Unpin languages")

	// Group Commands
	groupCmd := &cobra.Command{
		Use:   "group",
		Short: "Add, rename, delete or open snippet groups",
	}

	groupAddCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Create an empty snippet group",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run(RunGroupAdd),
	}
	groupAddCmd.Flags().String("kind", "", "Group kind: language|global|workspace")
	groupAddCmd.Flags().String("root", "", "Workspace folder for workspace groups")
	groupAddCmd.Flags().Bool("json", false, "Print machine-readable summary")

	groupRenameCmd := &cobra.Command{
		Use:   "rename [group] [new-name]",
		Short: "Rename a snippet group file",
		Args:  cobra.MaximumNArgs(2),
		RunE:  run(RunGroupRename),
	}
	groupRenameCmd.Flags().Bool("json", false, "Print machine-readable summary")

	groupDeleteCmd := &cobra.Command{
		Use:   "delete [group]",
		Short: "Delete a snippet group file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run(RunGroupDelete),
	}
	groupDeleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	groupDeleteCmd.Flags().Bool("json", false, "Print machine-readable summary")

	groupOpenCmd := &cobra.Command{
		Use:   "open [group]",
		Short: "Edit a group file in your editor",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run(RunGroupOpen),
	}

	groupCmd.AddCommand(groupAddCmd, groupRenameCmd, groupDeleteCmd, groupOpenCmd)

	// Snippet Commands
	snippetCmd := &cobra.Command{
		Use:   "snippet",
		Short: "Add, edit, rename, copy, move or delete snippets",
	}

	snippetAddCmd := &cobra.Command{
		Use:   "add [group]",
		Short: "Add a snippet to a group",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run(RunSnippetAdd),
	}
	snippetAddCmd.Flags().String("name", "", "Snippet name")
	snippetAddCmd.Flags().String("prefix", "", "Comma separated trigger prefixes")
	snippetAddCmd.Flags().String("scope", "", "Comma separated language ids (global and workspace groups)")
	snippetAddCmd.Flags().String("description", "", "Snippet description")
	snippetAddCmd.Flags().String("body", "", "Snippet body")
	snippetAddCmd.Flags().Bool("from-clipboard", false, "Take the body from the clipboard")
	snippetAddCmd.Flags().Bool("edit", false, "Open the body in your editor after adding")
	snippetAddCmd.Flags().Bool("json", false, "Print machine-readable summary")

	snippetEditCmd := &cobra.Command{
		Use:   "edit [group] [snippet]",
		Short: "Edit a snippet body in your editor",
		Args:  cobra.MaximumNArgs(2),
		RunE:  run(RunSnippetEdit),
	}
	snippetEditCmd.Flags().Bool("json", false, "Print machine-readable summary")

	snippetRenameCmd := &cobra.Command{
		Use:   "rename [group] [snippet] [new-name]",
		Short: "Rename a snippet in place",
		Args:  cobra.MaximumNArgs(3),
		RunE:  run(RunSnippetRename),
	}
	snippetRenameCmd.Flags().Bool("json", false, "Print machine-readable summary")

	snippetDeleteCmd := &cobra.Command{
		Use:   "delete [group] [snippet]",
		Short: "Delete a snippet",
		Args:  cobra.MaximumNArgs(2),
		RunE:  run(RunSnippetDelete),
	}
	snippetDeleteCmd.Flags().BoolP("yes", "y", false, "Do not ask for confirmation")
	snippetDeleteCmd.Flags().Bool("json", false, "Print machine-readable summary")

	snippetCopyCmd := &cobra.Command{
		Use:   "copy [group] [snippet]",
		Short: "Duplicate a snippet under a fresh name",
		Args:  cobra.MaximumNArgs(2),
		RunE:  run(RunSnippetCopy),
	}
	snippetCopyCmd.Flags().Bool("json", false, "Print machine-readable summary")

	snippetMoveCmd := &cobra.Command{
		Use:   "move [group] [snippet]",
		Short: "Move a snippet to another group or position",
		Args:  cobra.MaximumNArgs(2),
		RunE:  run(RunSnippetMove),
	}
	snippetMoveCmd.Flags().String("to", "", "Target group (default: ask, or the source group with --after)")
	snippetMoveCmd.Flags().String("after", "", "Place the snippet after this snippet of the target group")
	snippetMoveCmd.Flags().Bool("json", false, "Print machine-readable summary")

	snippetBodyCmd := &cobra.Command{
		Use:   "body [group] [snippet]",
		Short: "Print a snippet body",
		Args:  cobra.MaximumNArgs(2),
		RunE:  run(RunSnippetBody),
	}
	snippetBodyCmd.Flags().Bool("copy", false, "Copy the body to the clipboard instead")

	snippetCmd.AddCommand(snippetAddCmd, snippetEditCmd, snippetRenameCmd, snippetDeleteCmd, snippetCopyCmd, snippetMoveCmd, snippetBodyCmd)

	// Editor Integration Commands
	saveCmd := &cobra.Command{
		Use:   "save <path>",
		Short: "Fold a saved edit buffer back into its snippet",
		Args:  cobra.ExactArgs(1),
		RunE:  run(RunSave),
	}
	saveCmd.Flags().Bool("json", false, "Print machine-readable summary")

	panelCmd := &cobra.Command{
		Use:   "panel [group] [snippet]",
		Short: "Serve the snippet editing panel as JSON lines on stdin/stdout",
		Args:  cobra.MaximumNArgs(2),
		RunE:  run(RunPanel),
	}

	schemaCmd := &cobra.Command{
		Use:   "schema [type]",
		Short: "Print the JSON schema of the panel messages",
		Args:  cobra.MaximumNArgs(1),
		RunE:  RunSchema,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Remove edit buffers older than 30 days",
		Args:  cobra.NoArgs,
		RunE:  run(RunSweep),
	}
	sweepCmd.Flags().Bool("json", false, "Print machine-readable summary")

	// Additional Commands
	doctorCmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check snippet directories, group files and edit buffers",
		Args:  cobra.NoArgs,
		RunE:  run(RunDoctor),
	}
	doctorCmd.Flags().Bool("json", false, "Print machine-readable doctor output")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snipdeck %s\n", version)
		},
	}

	rootCmd.AddCommand(
		listCmd,
		searchCmd,
		languagesCmd,
		groupCmd,
		snippetCmd,
		saveCmd,
		panelCmd,
		schemaCmd,
		sweepCmd,
		doctorCmd,
		versionCmd,
	)

	return rootCmd
}
