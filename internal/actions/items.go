package actions

import (
	"context"
	"fmt"

	"refero-cli/internal/app"
	"refero-cli/internal/derive"
	"refero-cli/internal/model"
)

// ItemActions handles the item context-menu operations.
type ItemActions struct {
	App     *app.Store
	Clip    Clipboard
	Files   FileSaver
	Confirm Confirmer
}

// Duplicate creates a copy of the item in the current collection. The copy
// gets a marked title and starts a fresh server-side lifecycle (no key, no
// version, no dates).
func (a ItemActions) Duplicate(ctx context.Context, item model.Item) Result {
	data := item.Data.Clone()
	data.Title = data.Title + " (Copy)"
	data.DateAdded = ""
	data.DateModified = ""
	data.Collections = nil

	if _, err := a.App.CreateItem(ctx, data); err != nil {
		return failure("duplicate failed: " + err.Error())
	}
	return success("Item duplicated")
}

// Export renders the item as BibTeX and copies it to the clipboard, saving
// to a .bib file when no clipboard is available.
func (a ItemActions) Export(ctx context.Context, item model.Item) Result {
	bib := derive.BibTeX(item)

	if err := a.Clip.WriteText(bib); err == nil {
		return success("BibTeX citation copied to clipboard")
	}
	name := item.Data.Title
	if name == "" {
		name = "item"
	}
	if err := a.Files.Save(name+".bib", []byte(bib)); err != nil {
		return failure("export failed: " + err.Error())
	}
	return success("BibTeX citation saved to file")
}

func (a ItemActions) CopyTitle(item model.Item) Result {
	title := item.Data.Title
	if title == "" {
		title = "Untitled"
	}
	if err := a.Clip.WriteText(title); err != nil {
		return failure("copy failed: " + err.Error())
	}
	return success("Title copied")
}

func (a ItemActions) CopyURL(item model.Item) Result {
	if item.Data.URL == "" {
		return Result{Level: app.LevelWarning, Message: "No URL available"}
	}
	if err := a.Clip.WriteText(item.Data.URL); err != nil {
		return failure("copy failed: " + err.Error())
	}
	return success("URL copied")
}

// Delete removes the item after confirmation.
func (a ItemActions) Delete(ctx context.Context, item model.Item) Result {
	title := item.Data.Title
	if title == "" {
		title = "Untitled"
	}
	if !a.Confirm.Confirm(fmt.Sprintf("Delete %q? This cannot be undone.", title)) {
		return cancelled()
	}
	if err := a.App.DeleteItem(ctx, item); err != nil {
		return failure("delete failed: " + err.Error())
	}
	return success("Item deleted")
}
