package cli

import (
	"github.com/spf13/cobra"
)

func newLibrariesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "libraries",
		Short: "Library commands",
	}
	cmd.AddCommand(newLibrariesListCmd(app))
	return cmd
}

func newLibrariesListCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the personal and group libraries the key can reach",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			type row struct {
				ID   int64  `json:"id"`
				Name string `json:"name"`
				Type string `json:"type"`
			}
			snap := st.Snapshot()
			rows := make([]row, 0, len(snap.Libraries))
			for _, lib := range snap.Libraries {
				rows = append(rows, row{ID: lib.ID, Name: lib.Name, Type: string(lib.Type)})
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}
	return cmd
}
