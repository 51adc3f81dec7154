package actions

import (
	"context"
	"fmt"
	"strings"

	"refero-cli/internal/api"
	"refero-cli/internal/app"
	"refero-cli/internal/derive"
	"refero-cli/internal/model"
)

// CollectionActions handles the collection context-menu operations.
type CollectionActions struct {
	App     *app.Store
	Files   FileSaver
	Confirm Confirmer
}

func (a CollectionActions) library() (model.Library, bool) {
	st := a.App.Snapshot()
	if st.SelectedLibrary == nil {
		return model.Library{}, false
	}
	return *st.SelectedLibrary, true
}

// Create adds a collection, optionally under a parent, and refreshes the
// tree.
func (a CollectionActions) Create(ctx context.Context, name string, parentKey string) Result {
	lib, ok := a.library()
	if !ok {
		return failure("no library selected")
	}
	if strings.TrimSpace(name) == "" {
		return failure("collection name is required")
	}
	if _, err := a.App.Client().CreateCollection(ctx, api.Ref(lib), name, parentKey); err != nil {
		return failure("create failed: " + err.Error())
	}
	if err := a.App.ReloadCollections(ctx); err != nil {
		return failure("create succeeded but refresh failed: " + err.Error())
	}
	return success("Collection created")
}

// Rename changes a collection's name, conditional on its version.
func (a CollectionActions) Rename(ctx context.Context, col model.Collection, newName string) Result {
	lib, ok := a.library()
	if !ok {
		return failure("no library selected")
	}
	if strings.TrimSpace(newName) == "" {
		return failure("collection name is required")
	}
	if err := a.App.Client().RenameCollection(ctx, api.Ref(lib), col, newName); err != nil {
		return failure("rename failed: " + err.Error())
	}
	if err := a.App.ReloadCollections(ctx); err != nil {
		return failure("rename succeeded but refresh failed: " + err.Error())
	}
	return success("Collection renamed")
}

// Delete removes a collection after confirmation. If it was the selected
// collection the selection clears.
func (a CollectionActions) Delete(ctx context.Context, col model.Collection) Result {
	lib, ok := a.library()
	if !ok {
		return failure("no library selected")
	}
	prompt := fmt.Sprintf("Delete collection %q and all its items? This cannot be undone.", col.Data.Name)
	if !a.Confirm.Confirm(prompt) {
		return cancelled()
	}

	if err := a.App.Client().DeleteCollection(ctx, api.Ref(lib), col.Key, col.Version); err != nil {
		return failure("delete failed: " + err.Error())
	}
	if err := a.App.ReloadCollections(ctx); err != nil {
		return failure("delete succeeded but refresh failed: " + err.Error())
	}
	if a.App.Snapshot().SelectedCollection.Key() == col.Key {
		// Move off the deleted collection so its items disappear with it.
		next := model.CollectionRef{}
		if flat := a.App.Snapshot().FlatCollections; len(flat) > 0 {
			next = model.RealCollection(flat[0].Key)
		}
		_ = a.App.SelectCollection(ctx, next)
	}
	return success("Collection deleted")
}

// Duplicate creates a sibling copy of the collection (items are not copied;
// membership stays with the original, as on the server).
func (a CollectionActions) Duplicate(ctx context.Context, col model.Collection) Result {
	lib, ok := a.library()
	if !ok {
		return failure("no library selected")
	}
	name := col.Data.Name + " (Copy)"
	if _, err := a.App.Client().CreateCollection(ctx, api.Ref(lib), name, string(col.Data.ParentCollection)); err != nil {
		return failure("duplicate failed: " + err.Error())
	}
	if err := a.App.ReloadCollections(ctx); err != nil {
		return failure("duplicate succeeded but refresh failed: " + err.Error())
	}
	return success("Collection duplicated")
}

// Export fetches the collection's items and writes them as one .bib file.
func (a CollectionActions) Export(ctx context.Context, col model.Collection) Result {
	lib, ok := a.library()
	if !ok {
		return failure("no library selected")
	}
	items, err := a.App.Client().ListItems(ctx, api.Ref(lib), model.RealCollection(col.Key), api.ListOptions{})
	if err != nil {
		return failure("export failed: " + err.Error())
	}
	if err := a.Files.Save(col.Data.Name+".bib", []byte(derive.BibTeXAll(items))); err != nil {
		return failure("export failed: " + err.Error())
	}
	return success(fmt.Sprintf("Collection exported (%d items)", len(items)))
}

// Properties summarizes the collection for an info notification.
func (a CollectionActions) Properties(ctx context.Context, col model.Collection) Result {
	lib, ok := a.library()
	if !ok {
		return failure("no library selected")
	}
	items, err := a.App.Client().ListItems(ctx, api.Ref(lib), model.RealCollection(col.Key), api.ListOptions{})
	if err != nil {
		return failure("properties failed: " + err.Error())
	}

	lines := []string{
		"Name: " + col.Data.Name,
		fmt.Sprintf("Items: %d", len(items)),
		"Key: " + col.Key,
		fmt.Sprintf("Version: %d", col.Version),
	}
	if parent := string(col.Data.ParentCollection); parent != "" {
		for _, f := range a.App.Snapshot().FlatCollections {
			if f.Key == parent {
				lines = append(lines, "Parent: "+f.Data.Name)
				break
			}
		}
	}
	return Result{OK: true, Level: app.LevelInfo, Message: strings.Join(lines, "\n")}
}

// Refresh reloads the current item list.
func (a CollectionActions) Refresh(ctx context.Context) Result {
	if err := a.App.LoadItems(ctx); err != nil {
		return failure("refresh failed: " + err.Error())
	}
	return success("Items refreshed")
}
