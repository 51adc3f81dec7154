package cli

import (
	"github.com/spf13/cobra"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
	}
	cmd.AddCommand(newAuthLoginCmd(app))
	cmd.AddCommand(newAuthStatusCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	return cmd
}

func newAuthLoginCmd(app *App) *cobra.Command {
	var key string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Verify an API key and store it for future sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := st.Authenticate(cmd.Context(), key, false); err != nil {
				return writeErr(cmd, err)
			}
			snap := st.Snapshot()
			return writeOut(cmd, app, map[string]any{"data": map[string]any{
				"userID":    st.Client().UserID(),
				"libraries": len(snap.Libraries),
			}})
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "API key")
	_ = cmd.MarkFlagRequired("key")
	return cmd
}

func newAuthStatusCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether a stored session is usable",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			snap := st.Snapshot()
			out := map[string]any{
				"authenticated": snap.Authenticated,
			}
			if snap.Authenticated {
				out["userID"] = st.Client().UserID()
				out["libraries"] = len(snap.Libraries)
				if snap.SelectedLibrary != nil {
					out["library"] = snap.SelectedLibrary.Name
				}
			}
			return writeOut(cmd, app, map[string]any{"data": out})
		},
	}
	return cmd
}

// newLogoutCmd is also mounted at the root so `refero logout` works without
// the auth prefix.
func newLogoutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored key and session state",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := loadSession(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			st.Logout(cmd.Context())
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"loggedOut": true}})
		},
	}
	return cmd
}
