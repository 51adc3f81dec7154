package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"refero-cli/internal/model"
)

type collectionRow struct {
	ref   model.CollectionRef
	name  string
	level int
	count int
}

func (r collectionRow) FilterValue() string { return r.name }

func (r collectionRow) Title() string {
	indent := strings.Repeat("  ", r.level)
	if r.ref.IsSpecial() {
		return indent + "· " + r.name
	}
	return indent + r.name
}

func (r collectionRow) Description() string {
	if r.ref.IsSpecial() {
		return "special"
	}
	return "collection"
}

type itemRow struct {
	item model.Item
}

func (r itemRow) FilterValue() string { return r.item.Data.Title }

func (r itemRow) Title() string {
	if r.item.Data.Title == "" {
		return "Untitled"
	}
	return r.item.Data.Title
}

func (r itemRow) Description() string {
	parts := []string{model.ItemTypeLabel(r.item.Data.ItemType)}
	if c, ok := r.item.Data.FirstCreator(); ok {
		if name := strings.TrimSpace(c.FirstName + " " + c.LastName); name != "" {
			parts = append(parts, name)
		}
	}
	if r.item.Data.Date != "" {
		parts = append(parts, r.item.Data.Date)
	}
	return strings.Join(parts, "  ")
}

func newList(items []list.Item) list.Model {
	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	// We render our own chrome (header, footer, flash), so keep the list
	// minimal. Filtering goes through the app store, not the bubble.
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)
	// ESC is "back/cancel" here, never quit.
	l.KeyMap.Quit.SetKeys("ctrl+c")
	// Emacs-style navigation aliases.
	cursorUpKeys := append([]string{}, l.KeyMap.CursorUp.Keys()...)
	cursorUpKeys = append(cursorUpKeys, "ctrl+p")
	l.KeyMap.CursorUp.SetKeys(cursorUpKeys...)

	cursorDownKeys := append([]string{}, l.KeyMap.CursorDown.Keys()...)
	cursorDownKeys = append(cursorDownKeys, "ctrl+n")
	l.KeyMap.CursorDown.SetKeys(cursorDownKeys...)
	return l
}

func selectCollectionRow(l *list.Model, ref model.CollectionRef) {
	for i, it := range l.Items() {
		if row, ok := it.(collectionRow); ok && row.ref == ref {
			l.Select(i)
			return
		}
	}
}

func selectItemRow(l *list.Model, key string) {
	for i, it := range l.Items() {
		if row, ok := it.(itemRow); ok && row.item.Key == key {
			l.Select(i)
			return
		}
	}
}
