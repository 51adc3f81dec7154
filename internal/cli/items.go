package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"refero-cli/internal/actions"
	appstate "refero-cli/internal/app"
	"refero-cli/internal/derive"
	"refero-cli/internal/model"
)

func newItemsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "items",
		Short: "Item commands",
	}
	cmd.AddCommand(newItemsListCmd(app))
	cmd.AddCommand(newItemsShowCmd(app))
	cmd.AddCommand(newItemsCreateCmd(app))
	cmd.AddCommand(newItemsUpdateCmd(app))
	cmd.AddCommand(newItemsDeleteCmd(app))
	cmd.AddCommand(newItemsDuplicateCmd(app))
	cmd.AddCommand(newItemsExportCmd(app))
	cmd.AddCommand(newItemsTypesCmd(app))
	return cmd
}

type itemRow struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Author   string `json:"author,omitempty"`
	Date     string `json:"date,omitempty"`
	ItemType string `json:"itemType"`
	Version  int    `json:"version"`
}

func itemRows(items []model.Item) []itemRow {
	rows := make([]itemRow, 0, len(items))
	for _, it := range items {
		var author string
		if c, ok := it.Data.FirstCreator(); ok {
			author = strings.TrimSpace(c.FirstName + " " + c.LastName)
		}
		rows = append(rows, itemRow{
			Key:      it.Key,
			Title:    it.Data.Title,
			Author:   author,
			Date:     it.Data.Date,
			ItemType: it.Data.ItemType,
			Version:  it.Version,
		})
	}
	return rows
}

func newItemsListCmd(app *App) *cobra.Command {
	var scope scopeFlags
	var query string
	var sortBy, direction string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the items of a collection, filtered and sorted",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := scope.apply(cmd, st); err != nil {
				return writeErr(cmd, err)
			}
			if query != "" {
				st.SetSearchQuery(cmd.Context(), query)
			}
			if sortBy != "" {
				st.SetSort(cmd.Context(), model.SortColumn(sortBy), model.SortDirection(direction))
			}

			snap := st.Snapshot()
			return writeOut(cmd, app, map[string]any{
				"data": itemRows(snap.SortedItems),
				"meta": map[string]any{
					"collection": snap.SelectedCollection.String(),
					"total":      len(snap.Items),
				},
			})
		},
	}

	scope.register(cmd)
	cmd.Flags().StringVar(&query, "query", "", "Filter by title or author substring")
	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort column (title|author|modified|type)")
	cmd.Flags().StringVar(&direction, "direction", "asc", "Sort direction (asc|desc)")
	return cmd
}

func newItemsShowCmd(app *App) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "show <item-key>",
		Short: "Show an item's full record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, item, err := loadScopedItem(cmd, app, &scope, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": item})
		},
	}

	scope.register(cmd)
	return cmd
}

func newItemsCreateCmd(app *App) *cobra.Command {
	var scope scopeFlags
	var fields itemFieldFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item in the selected collection",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := scope.apply(cmd, st); err != nil {
				return writeErr(cmd, err)
			}

			data := model.DefaultItemData()
			data.Creators = nil
			fields.applyTo(cmd, &data)

			key, err := st.CreateItem(cmd.Context(), data)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"key": key}})
		},
	}

	scope.register(cmd)
	fields.register(cmd)
	return cmd
}

func newItemsUpdateCmd(app *App) *cobra.Command {
	var scope scopeFlags
	var fields itemFieldFlags

	cmd := &cobra.Command{
		Use:   "update <item-key>",
		Short: "Update an item's fields, conditional on its version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, item, err := loadScopedItem(cmd, app, &scope, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			data := item.Data.Clone()
			fields.applyTo(cmd, &data)

			if err := st.UpdateItem(cmd.Context(), item, data); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"key": item.Key}})
		},
	}

	scope.register(cmd)
	fields.register(cmd)
	return cmd
}

func newItemsDeleteCmd(app *App) *cobra.Command {
	var scope scopeFlags
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <item-key>",
		Short: "Move an item to trash (requires --yes)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, item, err := loadScopedItem(cmd, app, &scope, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			act := actions.ItemActions{
				App:     st,
				Confirm: actions.ConfirmFunc(func(string) bool { return yes }),
			}
			res := act.Delete(cmd.Context(), item)
			if res.Cancelled {
				return writeErr(cmd, errors.New("refusing to delete without --yes"))
			}
			return writeResult(cmd, app, res)
		},
	}

	scope.register(cmd)
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm the deletion")
	return cmd
}

func newItemsDuplicateCmd(app *App) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "duplicate <item-key>",
		Short: "Create a copy of an item in the same collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, item, err := loadScopedItem(cmd, app, &scope, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			act := actions.ItemActions{App: st}
			res := act.Duplicate(cmd.Context(), item)
			return writeResult(cmd, app, res)
		},
	}

	scope.register(cmd)
	return cmd
}

func newItemsExportCmd(app *App) *cobra.Command {
	var scope scopeFlags

	cmd := &cobra.Command{
		Use:   "export [item-key]",
		Short: "Print BibTeX for one item, or for the whole collection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := requireAuth(cmd, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := scope.apply(cmd, st); err != nil {
				return writeErr(cmd, err)
			}

			snap := st.Snapshot()
			if len(args) == 1 {
				item, ok := itemByKey(snap.Items, args[0])
				if !ok {
					return writeErr(cmd, fmt.Errorf("no item with key %s in the selected collection", args[0]))
				}
				fmt.Fprintln(cmd.OutOrStdout(), derive.BibTeX(item))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), derive.BibTeXAll(snap.SortedItems))
			return nil
		},
	}

	scope.register(cmd)
	return cmd
}

func newItemsTypesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "List the supported item types and their fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			type row struct {
				Name   string   `json:"name"`
				Label  string   `json:"label"`
				Fields []string `json:"fields"`
			}
			names := model.ItemTypeNames()
			rows := make([]row, 0, len(names))
			for _, name := range names {
				def := model.ItemTypes[name]
				rows = append(rows, row{Name: name, Label: def.Label, Fields: def.Fields})
			}
			return writeOut(cmd, app, map[string]any{"data": rows})
		},
	}
	return cmd
}

// loadScopedItem resolves scope and looks up one item from the loaded
// collection by key.
func loadScopedItem(cmd *cobra.Command, app *App, scope *scopeFlags, key string) (*appstate.Store, model.Item, error) {
	st, err := requireAuth(cmd, app)
	if err != nil {
		return nil, model.Item{}, err
	}
	if err := scope.apply(cmd, st); err != nil {
		return nil, model.Item{}, err
	}
	item, ok := itemByKey(st.Snapshot().Items, key)
	if !ok {
		return nil, model.Item{}, fmt.Errorf("no item with key %s in the selected collection", key)
	}
	return st, item, nil
}

func itemByKey(items []model.Item, key string) (model.Item, bool) {
	for _, it := range items {
		if it.Key == key {
			return it, true
		}
	}
	return model.Item{}, false
}

// itemFieldFlags are the writable item fields shared by create and update.
// applyTo only touches fields whose flag was set on the command line.
type itemFieldFlags struct {
	itemType  string
	title     string
	authors   []string
	date      string
	url       string
	publisher string
	pubTitle  string
	abstract  string
	extra     string
}

func (f *itemFieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.itemType, "type", "", "Item type (see `refero items types`)")
	cmd.Flags().StringVar(&f.title, "title", "", "Title")
	cmd.Flags().StringArrayVar(&f.authors, "author", nil, "Author, as 'First Last' or 'Last, First' (repeatable)")
	cmd.Flags().StringVar(&f.date, "date", "", "Publication date")
	cmd.Flags().StringVar(&f.url, "url", "", "URL")
	cmd.Flags().StringVar(&f.publisher, "publisher", "", "Publisher")
	cmd.Flags().StringVar(&f.pubTitle, "publication", "", "Publication title (journal, book)")
	cmd.Flags().StringVar(&f.abstract, "abstract", "", "Abstract")
	cmd.Flags().StringVar(&f.extra, "extra", "", "Extra notes")
}

func (f *itemFieldFlags) applyTo(cmd *cobra.Command, data *model.ItemData) {
	set := cmd.Flags().Changed
	if set("type") {
		data.ItemType = f.itemType
	}
	if set("title") {
		data.Title = f.title
	}
	if set("author") {
		creators := make([]model.Creator, 0, len(f.authors))
		for _, a := range f.authors {
			creators = append(creators, parseAuthor(a))
		}
		data.Creators = creators
	}
	if set("date") {
		data.Date = f.date
	}
	if set("url") {
		data.URL = f.url
	}
	if set("publisher") {
		data.Publisher = f.publisher
	}
	if set("publication") {
		data.PublicationTitle = f.pubTitle
	}
	if set("abstract") {
		data.AbstractNote = f.abstract
	}
	if set("extra") {
		data.Extra = f.extra
	}
}

// parseAuthor accepts "Last, First" or "First Last"; a single token is
// treated as a last name.
func parseAuthor(s string) model.Creator {
	c := model.Creator{CreatorType: model.CreatorTypeAuthor}
	if before, after, ok := strings.Cut(s, ","); ok {
		c.LastName = strings.TrimSpace(before)
		c.FirstName = strings.TrimSpace(after)
		return c
	}
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return c
	}
	c.LastName = parts[len(parts)-1]
	c.FirstName = strings.Join(parts[:len(parts)-1], " ")
	return c
}
