package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"refero-cli/internal/actions"
)

func newCollectionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "Collection commands",
	}
	cmd.AddCommand(newCollectionsListCmd(app))
	cmd.AddCommand(newCollectionsCreateCmd(app))
	cmd.AddCommand(newCollectionsRenameCmd(app))
	cmd.AddCommand(newCollectionsDeleteCmd(app))
	cmd.AddCommand(newCollectionsExportCmd(app))
	return cmd
}

func newCollectionsListCmd(app *App) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the library's collections as an indented tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := scope.applyLibraryOnly(cmd, st); err != nil {
				return writeErr(cmd, err)
			}

			snap := st.Snapshot()
			if snap.TreeError != "" {
				return writeErr(cmd, errors.New(snap.TreeError))
			}
			type row struct {
				Key     string `json:"key"`
				Name    string `json:"name"`
				Level   int    `json:"level"`
				Version int    `json:"version"`
			}
			rows := make([]row, 0, len(snap.FlatCollections))
			for _, f := range snap.FlatCollections {
				rows = append(rows, row{
					Key:     f.Key,
					Name:    strings.Repeat("  ", f.Level) + f.Data.Name,
					Level:   f.Level,
					Version: f.Version,
				})
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}

	scope.registerLibrary(cmd)
	return cmd
}

func newCollectionsCreateCmd(app *App) *cobra.Command {
	var scope scopeFlags
	var name, parent string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := scope.applyLibraryOnly(cmd, st); err != nil {
				return writeErr(cmd, err)
			}

			act := actions.CollectionActions{App: st}
			res := act.Create(cmd.Context(), name, parent)
			return writeResult(cmd, app, res)
		},
	}

	scope.registerLibrary(cmd)
	cmd.Flags().StringVar(&name, "name", "", "Collection name")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent collection key (default: top level)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCollectionsRenameCmd(app *App) *cobra.Command {
	var scope scopeFlags
	var name string

	cmd := &cobra.Command{
		Use:   "rename <collection-key>",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := scope.applyLibraryOnly(cmd, st); err != nil {
				return writeErr(cmd, err)
			}
			col, ok := findCollection(st.Snapshot().Collections, args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("no collection with key %s", args[0]))
			}

			act := actions.CollectionActions{App: st}
			res := act.Rename(cmd.Context(), col, name)
			return writeResult(cmd, app, res)
		},
	}

	scope.registerLibrary(cmd)
	cmd.Flags().StringVar(&name, "name", "", "New collection name")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCollectionsDeleteCmd(app *App) *cobra.Command {
	var scope scopeFlags
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <collection-key>",
		Short: "Delete a collection (requires --yes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := scope.applyLibraryOnly(cmd, st); err != nil {
				return writeErr(cmd, err)
			}
			col, ok := findCollection(st.Snapshot().Collections, args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("no collection with key %s", args[0]))
			}

			act := actions.CollectionActions{
				App:     st,
				Confirm: actions.ConfirmFunc(func(string) bool { return yes }),
			}
			res := act.Delete(cmd.Context(), col)
			if res.Cancelled {
				return writeErr(cmd, errors.New("refusing to delete without --yes"))
			}
			return writeResult(cmd, app, res)
		},
	}

	scope.registerLibrary(cmd)
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

func newCollectionsExportCmd(app *App) *cobra.Command {
	var scope scopeFlags
	var out string

	cmd := &cobra.Command{
		Use:   "export <collection-key>",
		Short: "Export a collection's items as a BibTeX file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := scope.applyLibraryOnly(cmd, st); err != nil {
				return writeErr(cmd, err)
			}
			col, ok := findCollection(st.Snapshot().Collections, args[0])
			if !ok {
				return writeErr(cmd, fmt.Errorf("no collection with key %s", args[0]))
			}

			act := actions.CollectionActions{App: st, Files: actions.DirFileSaver{Dir: out}}
			res := act.Export(cmd.Context(), col)
			return writeResult(cmd, app, res)
		},
	}

	scope.registerLibrary(cmd)
	cmd.Flags().StringVar(&out, "out", ".", "Directory to write the .bib file into")
	return cmd
}

// writeResult maps an action result onto CLI output: successes become a
// data/message payload, failures an error exit.
func writeResult(cmd *cobra.Command, app *App, res actions.Result) error {
	if !res.OK {
		return writeErr(cmd, errors.New(res.Message))
	}
	return writeOut(cmd, app, map[string]any{"data": map[string]any{"message": res.Message}})
}
