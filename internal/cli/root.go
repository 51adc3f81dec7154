package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"refero-cli/internal/api"
	appstate "refero-cli/internal/app"
	"refero-cli/internal/format"
	"refero-cli/internal/logging"
	"refero-cli/internal/store"
	"refero-cli/internal/tui"
)

type App struct {
	BaseURL    string
	DataDir    string
	APIKey     string
	LogLevel   string
	LogFile    string
	PrettyJSON bool
	Format     string
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "refero",
		Short:        "Refero reference manager CLI + TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive TUI
  refero

  # Scriptable commands
  refero items list

  # Search the current collection
  refero search "turing"

  # Export a collection as BibTeX
  refero collections export <collection-key>
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVar(&app.BaseURL, "base-url", envOr("REFERO_BASE_URL", api.DefaultBaseURL), "API base URL")
	cmd.PersistentFlags().StringVar(&app.DataDir, "data-dir", envOr("REFERO_DIR", ""), "Path to preferences dir (default: ~/.refero)")
	cmd.PersistentFlags().StringVar(&app.APIKey, "api-key", envOr("REFERO_API_KEY", ""), "API key (overrides the stored key)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("REFERO_LOG_LEVEL", "warn"), "Log level (debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", envOr("REFERO_LOG_FILE", ""), "Also write JSON logs to this file")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("REFERO_FORMAT", "json"), "Output format (json|text)")

	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newAuthCmd(app))
	cmd.AddCommand(newLibrariesCmd(app))
	cmd.AddCommand(newCollectionsCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newSearchCmd(app))
	cmd.AddCommand(newLogoutCmd(app))

	return cmd
}

func runTUI(cmd *cobra.Command, app *App) error {
	st, err := loadSession(cmd, app)
	if err != nil {
		return err
	}
	return tui.Run(st)
}

// loadSession builds the application store and restores the persisted
// session (key, library, collection). It does not require authentication;
// commands that do call requireAuth.
func loadSession(cmd *cobra.Command, app *App) (*appstate.Store, error) {
	log := logging.New(logging.Config{Level: app.LogLevel, File: app.LogFile})

	dir := app.DataDir
	if dir == "" {
		d, err := store.ConfigDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	prefs := store.Store{Dir: dir, Log: log}
	if err := prefs.Ensure(); err != nil {
		log.Warn("preferences dir unavailable", "dir", dir, "error", err)
	}

	client := api.New(app.BaseURL, log)
	st := appstate.NewStore(client, prefs, log)
	st.Init(cmd.Context())

	if app.APIKey != "" && !st.Snapshot().Authenticated {
		if err := st.Authenticate(cmd.Context(), app.APIKey, true); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func requireAuth(cmd *cobra.Command, app *App) (*appstate.Store, error) {
	st, err := loadSession(cmd, app)
	if err != nil {
		return nil, err
	}
	if !st.Snapshot().Authenticated {
		return nil, errors.New("not authenticated; run `refero auth login --key <api-key>` (or pass --api-key)")
	}
	return st, nil
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
