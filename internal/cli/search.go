package cli

import (
	"github.com/spf13/cobra"
)

func newSearchCmd(app *App) *cobra.Command {
	var scope scopeFlags
	var history bool

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the selected collection by title or author",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}

			if history {
				return writeOut(cmd, app, map[string]any{"data": st.SearchHistory(cmd.Context())})
			}

			if err := scope.apply(cmd, st); err != nil {
				return writeErr(cmd, err)
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			st.SetSearchQuery(cmd.Context(), query)

			snap := st.Snapshot()
			return writeOut(cmd, app, map[string]any{
				"data": itemRows(snap.SortedItems),
				"meta": map[string]any{
					"collection": snap.SelectedCollection.String(),
					"query":      snap.SearchQuery,
					"total":      len(snap.Items),
				},
			})
		},
	}

	scope.register(cmd)
	cmd.Flags().BoolVar(&history, "history", false, "Show recent searches instead of searching")
	return cmd
}
