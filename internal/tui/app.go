package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"refero-cli/internal/actions"
	appstate "refero-cli/internal/app"
	"refero-cli/internal/model"
)

type pane int

const (
	paneCollections pane = iota
	paneItems
)

type modalKind int

const (
	modalNone modalKind = iota
	modalNewCollection
	modalRenameCollection
	modalConfirmDeleteCollection
	modalConfirmDeleteItem
	modalItemForm
)

// Pane widths are stored in the original preference scale and mapped to
// terminal columns at render time. Resize steps and clamps follow the
// stored scale.
const (
	widthStep          = 10
	minCollectionsPref = 200
	maxCollectionsPref = 400
	minDetailsPref     = 250
	maxDetailsPref     = 500
)

type refreshTickMsg struct{}
type noticeClearMsg struct{ id string }
type resizeClearMsg struct{ seq int }

type appModel struct {
	app    *appstate.Store
	notify *appstate.Notifier

	width  int
	height int
	// The very first WindowSizeMsg is initial sizing, not a user resize.
	seenWindowSize bool

	pane            pane
	collectionsList list.Model
	itemsList       list.Model

	authInput   textinput.Model
	searchInput textinput.Model
	searching   bool

	modal    modalKind
	input    textinput.Model
	modalFor model.Collection
	form     itemForm

	// Pane-resize keys set resizing until the clear tick fires; repeated
	// keystrokes bump the sequence so the flag always clears after the
	// last one.
	resizing  bool
	resizeSeq int
}

func newAppModel(st *appstate.Store) appModel {
	m := appModel{
		app:    st,
		notify: appstate.NewNotifier(),
		pane:   paneCollections,
	}

	m.collectionsList = newList(nil)
	m.itemsList = newList(nil)

	m.authInput = textinput.New()
	m.authInput.Placeholder = "API key"
	m.authInput.EchoMode = textinput.EchoPassword
	m.authInput.Focus()

	m.searchInput = textinput.New()
	m.searchInput.Placeholder = "title or author"

	m.input = textinput.New()

	m.refreshFromState()
	return m
}

func (m appModel) Init() tea.Cmd { return tickRefresh() }

func tickRefresh() tea.Cmd {
	return tea.Tick(750*time.Millisecond, func(time.Time) tea.Msg { return refreshTickMsg{} })
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.seenWindowSize = true
		m.resizeLists()
		return m, nil

	case refreshTickMsg:
		m.refreshFromState()
		return m, tickRefresh()

	case noticeClearMsg:
		m.notify.Remove(msg.id)
		return m, nil

	case resizeClearMsg:
		if msg.seq == m.resizeSeq {
			m.resizing = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	snap := m.app.Snapshot()

	if snap.AuthPrompt {
		return m.handleAuthKey(msg)
	}
	if m.modal != modalNone {
		return m.handleModalKey(msg)
	}
	if m.searching {
		return m.handleSearchKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "tab":
		if m.pane == paneCollections {
			m.pane = paneItems
		} else {
			m.pane = paneCollections
		}
		return m, nil

	case "enter":
		if m.pane == paneCollections {
			if row, ok := m.collectionsList.SelectedItem().(collectionRow); ok {
				if err := m.app.SelectCollection(context.Background(), row.ref); err != nil {
					return m.flash(appstate.LevelError, err.Error())
				}
				m.refreshFromState()
			}
			return m, nil
		}
		if row, ok := m.itemsList.SelectedItem().(itemRow); ok {
			m.app.SelectItem(row.item)
			m.refreshFromState()
		}
		return m, nil

	case "/":
		m.searching = true
		m.searchInput.SetValue(snap.SearchQuery)
		m.searchInput.Focus()
		return m, nil

	case "s":
		m.app.SetSort(context.Background(), nextSortColumn(snap.SortColumn), snap.SortDirection)
		m.refreshFromState()
		return m, nil

	case "S":
		m.app.SetSort(context.Background(), snap.SortColumn, snap.SortDirection.Flip())
		m.refreshFromState()
		return m, nil

	case "n":
		m.form = newItemForm(model.Item{}, false)
		m.modal = modalItemForm
		return m, nil

	case "e":
		if row, ok := m.itemsList.SelectedItem().(itemRow); ok {
			m.app.EditItem(row.item)
			if buf := m.app.Snapshot().EditingItem; buf != nil {
				m.form = newItemForm(*buf, true)
				m.modal = modalItemForm
			}
		}
		return m, nil

	case "d":
		if row, ok := m.itemsList.SelectedItem().(itemRow); ok {
			m.app.SelectItem(row.item)
			m.modal = modalConfirmDeleteItem
		}
		return m, nil

	case "V":
		if row, ok := m.itemsList.SelectedItem().(itemRow); ok {
			res := m.itemActions().Duplicate(context.Background(), row.item)
			return m.finishAction(res)
		}
		return m, nil

	case "x":
		if row, ok := m.itemsList.SelectedItem().(itemRow); ok {
			res := m.itemActions().Export(context.Background(), row.item)
			return m.finishAction(res)
		}
		return m, nil

	case "y":
		if row, ok := m.itemsList.SelectedItem().(itemRow); ok {
			return m.finishAction(m.itemActions().CopyTitle(row.item))
		}
		return m, nil

	case "Y":
		if row, ok := m.itemsList.SelectedItem().(itemRow); ok {
			return m.finishAction(m.itemActions().CopyURL(row.item))
		}
		return m, nil

	case "c":
		m.input.SetValue("")
		m.input.Placeholder = "Collection name"
		m.input.Focus()
		m.modal = modalNewCollection
		return m, nil

	case "r":
		if col, ok := m.selectedRealCollection(); ok {
			m.modalFor = col
			m.input.SetValue(col.Data.Name)
			m.input.Placeholder = "New name"
			m.input.Focus()
			m.modal = modalRenameCollection
		}
		return m, nil

	case "D":
		if col, ok := m.selectedRealCollection(); ok {
			m.modalFor = col
			m.modal = modalConfirmDeleteCollection
		}
		return m, nil

	case "R":
		res := (actions.CollectionActions{App: m.app}).Refresh(context.Background())
		return m.finishAction(res)

	case "L":
		m.app.Logout(context.Background())
		m.authInput.SetValue("")
		m.authInput.Focus()
		m.refreshFromState()
		return m, nil

	case "<":
		return m.resizePane(true, -widthStep)
	case ">":
		return m.resizePane(true, +widthStep)
	case "[":
		return m.resizePane(false, -widthStep)
	case "]":
		return m.resizePane(false, +widthStep)
	}

	// Let the focused list handle navigation keys.
	var cmd tea.Cmd
	switch m.pane {
	case paneCollections:
		m.collectionsList, cmd = m.collectionsList.Update(msg)
	case paneItems:
		m.itemsList, cmd = m.itemsList.Update(msg)
		if row, ok := m.itemsList.SelectedItem().(itemRow); ok {
			m.app.SelectItem(row.item)
		}
	}
	return m, cmd
}

func (m appModel) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter":
		key := strings.TrimSpace(m.authInput.Value())
		if err := m.app.Authenticate(context.Background(), key, false); err != nil {
			return m.flash(appstate.LevelError, err.Error())
		}
		m.refreshFromState()
		return m.flash(appstate.LevelSuccess, "Connected")
	}
	var cmd tea.Cmd
	m.authInput, cmd = m.authInput.Update(msg)
	return m, cmd
}

func (m appModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.app.SetSearchQuery(context.Background(), "")
		m.refreshFromState()
		return m, nil
	case "enter":
		m.searching = false
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	// Live filter: every keystroke narrows the list.
	m.app.SetSearchQuery(context.Background(), m.searchInput.Value())
	m.refreshFromState()
	return m, cmd
}

func (m appModel) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "esc" {
		if m.modal == modalItemForm {
			m.app.ResetForm()
		}
		m.modal = modalNone
		return m, nil
	}

	switch m.modal {
	case modalNewCollection:
		if msg.String() == "enter" {
			res := (actions.CollectionActions{App: m.app}).Create(context.Background(), m.input.Value(), "")
			m.modal = modalNone
			return m.finishAction(res)
		}

	case modalRenameCollection:
		if msg.String() == "enter" {
			res := (actions.CollectionActions{App: m.app}).Rename(context.Background(), m.modalFor, m.input.Value())
			m.modal = modalNone
			return m.finishAction(res)
		}

	case modalConfirmDeleteCollection:
		switch msg.String() {
		case "y", "enter":
			act := actions.CollectionActions{App: m.app, Confirm: actions.AlwaysConfirm}
			res := act.Delete(context.Background(), m.modalFor)
			m.modal = modalNone
			return m.finishAction(res)
		case "n":
			m.modal = modalNone
		}
		return m, nil

	case modalConfirmDeleteItem:
		switch msg.String() {
		case "y", "enter":
			m.modal = modalNone
			if item := m.app.Snapshot().SelectedItem; item != nil {
				act := actions.ItemActions{App: m.app, Confirm: actions.AlwaysConfirm}
				return m.finishAction(act.Delete(context.Background(), *item))
			}
			return m, nil
		case "n":
			m.modal = modalNone
		}
		return m, nil

	case modalItemForm:
		done, submit := m.form.handleKey(msg)
		if !done {
			var cmd tea.Cmd
			m.form, cmd = m.form.update(msg)
			return m, cmd
		}
		m.modal = modalNone
		if !submit {
			m.app.ResetForm()
			return m, nil
		}
		return m.submitItemForm()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m appModel) submitItemForm() (tea.Model, tea.Cmd) {
	ctx := context.Background()
	data := m.form.itemData()

	if m.form.editing {
		buf := m.app.Snapshot().EditingItem
		if buf == nil {
			return m.flash(appstate.LevelWarning, "nothing to update")
		}
		if err := m.app.UpdateItem(ctx, *buf, data); err != nil {
			return m.flash(appstate.LevelError, err.Error())
		}
		m.refreshFromState()
		return m.flash(appstate.LevelSuccess, "Item updated")
	}

	if _, err := m.app.CreateItem(ctx, data); err != nil {
		return m.flash(appstate.LevelError, err.Error())
	}
	m.refreshFromState()
	return m.flash(appstate.LevelSuccess, "Item created")
}

func (m appModel) itemActions() actions.ItemActions {
	return actions.ItemActions{
		App:   m.app,
		Clip:  actions.SystemClipboard{},
		Files: actions.DirFileSaver{Dir: "."},
	}
}

// finishAction publishes the outcome to the notification center, where the
// status line picks it up.
func (m appModel) finishAction(res actions.Result) (tea.Model, tea.Cmd) {
	m.refreshFromState()
	if res.Cancelled {
		return m, nil
	}
	res.Publish(m.notify)
	if latest, ok := m.notify.Latest(); ok {
		return m, clearNotice(latest.ID)
	}
	return m, nil
}

func (m appModel) flash(level appstate.Level, text string) (tea.Model, tea.Cmd) {
	return m, clearNotice(m.notify.Push(level, text))
}

func clearNotice(id string) tea.Cmd {
	return tea.Tick(3*time.Second, func(time.Time) tea.Msg { return noticeClearMsg{id: id} })
}

func (m appModel) resizePane(collections bool, delta int) (tea.Model, tea.Cmd) {
	prefs := m.app.Snapshot().Preferences
	if collections {
		prefs.CollectionsWidth = clamp(prefs.CollectionsWidth+delta, minCollectionsPref, maxCollectionsPref)
	} else {
		prefs.DetailsWidth = clamp(prefs.DetailsWidth+delta, minDetailsPref, maxDetailsPref)
	}
	m.app.UpdatePreferences(context.Background(), prefs)

	m.resizing = true
	m.resizeSeq++
	seq := m.resizeSeq
	m.resizeLists()
	return m, tea.Tick(400*time.Millisecond, func(time.Time) tea.Msg { return resizeClearMsg{seq: seq} })
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nextSortColumn(c model.SortColumn) model.SortColumn {
	switch c {
	case model.SortByTitle:
		return model.SortByAuthor
	case model.SortByAuthor:
		return model.SortByModified
	case model.SortByModified:
		return model.SortByType
	default:
		return model.SortByTitle
	}
}

// refreshFromState rebuilds both list models from the current snapshot,
// keeping selections where the rows still exist.
func (m *appModel) refreshFromState() {
	snap := m.app.Snapshot()

	var colRows []list.Item
	for _, f := range snap.FlatCollections {
		colRows = append(colRows, collectionRow{
			ref:   model.RealCollection(f.Key),
			name:  f.Data.Name,
			level: f.Level,
		})
	}
	for _, kind := range []model.SpecialKind{model.SpecialDuplicates, model.SpecialUncategorized, model.SpecialTrash} {
		colRows = append(colRows, collectionRow{
			ref:  model.SpecialCollection(kind),
			name: specialLabel(kind),
		})
	}
	m.collectionsList.SetItems(colRows)
	if !snap.SelectedCollection.IsZero() {
		selectCollectionRow(&m.collectionsList, snap.SelectedCollection)
	}

	var itRows []list.Item
	for _, it := range snap.SortedItems {
		itRows = append(itRows, itemRow{item: it})
	}
	m.itemsList.SetItems(itRows)
	if snap.SelectedItem != nil {
		selectItemRow(&m.itemsList, snap.SelectedItem.Key)
	}

	m.resizeLists()
}

func specialLabel(kind model.SpecialKind) string {
	switch kind {
	case model.SpecialDuplicates:
		return "Duplicates"
	case model.SpecialUncategorized:
		return "Uncategorized"
	case model.SpecialTrash:
		return "Trash"
	default:
		return string(kind)
	}
}

func (m *appModel) selectedRealCollection() (model.Collection, bool) {
	row, ok := m.collectionsList.SelectedItem().(collectionRow)
	if !ok || row.ref.IsSpecial() {
		return model.Collection{}, false
	}
	for _, c := range m.app.Snapshot().Collections {
		if c.Key == row.ref.Key() {
			return c, true
		}
	}
	return model.Collection{}, false
}

// paneWidths maps the stored preference scale onto terminal columns.
func (m appModel) paneWidths() (collections, items, details int) {
	prefs := m.app.Snapshot().Preferences
	collections = clamp(prefs.CollectionsWidth/10, 18, m.width/3)
	details = clamp(prefs.DetailsWidth/10, 20, m.width/3)
	items = m.width - collections - details - 4
	if items < 20 {
		items = 20
	}
	return collections, items, details
}

func (m *appModel) resizeLists() {
	if m.width == 0 {
		return
	}
	h := m.height - 6
	if h < 8 {
		h = 8
	}
	cw, iw, _ := m.paneWidths()
	m.collectionsList.SetSize(cw, h)
	m.itemsList.SetSize(iw, h)
}

func (m appModel) View() string {
	snap := m.app.Snapshot()

	if snap.AuthPrompt {
		return m.viewAuth(snap)
	}
	if m.modal != modalNone {
		return m.viewModal()
	}

	header := headerStyle.Render(m.headerLine(snap))

	bodyHeight := m.height - 6
	if bodyHeight < 8 {
		bodyHeight = 8
	}
	cw, iw, dw := m.paneWidths()

	left := paneStyle(m.pane == paneCollections).Width(cw).Height(bodyHeight).Render(m.collectionsList.View())
	middle := paneStyle(m.pane == paneItems).Width(iw).Height(bodyHeight).Render(m.itemsList.View())
	right := detailStyle.Width(dw).Height(bodyHeight).Render(m.viewDetail(snap, dw))

	body := lipgloss.JoinHorizontal(lipgloss.Top, left, middle, right)

	var statusParts []string
	if m.searching {
		statusParts = append(statusParts, "search: "+m.searchInput.View())
	} else if snap.SearchQuery != "" {
		statusParts = append(statusParts, fmt.Sprintf("filter: %q", snap.SearchQuery))
	}
	if m.resizing {
		statusParts = append(statusParts, "resizing…")
	}
	if latest, ok := m.notify.Latest(); ok {
		statusParts = append(statusParts, noticeStyle(latest.Level).Render(latest.Message))
	} else if snap.LastError != "" {
		statusParts = append(statusParts, errorStyle.Render(snap.LastError))
	}
	status := strings.Join(statusParts, "  ")

	footer := footerStyle.Render("tab: pane  enter: select  /: search  s/S: sort  n/e/d: item  V: dup  x: bibtex  y/Y: copy  c/r/D: collection  R: reload  L: logout  q: quit")

	return strings.Join([]string{header, body, status, footer}, "\n")
}

func (m appModel) headerLine(snap appstate.State) string {
	lib := "-"
	if snap.SelectedLibrary != nil {
		lib = snap.SelectedLibrary.Name
	}
	sort := fmt.Sprintf("%s %s", snap.SortColumn, snap.SortDirection)
	return fmt.Sprintf("Refero  Library: %s  Collection: %s  Sort: %s  Items: %d",
		lib, collectionLabel(snap), sort, len(snap.SortedItems))
}

func collectionLabel(snap appstate.State) string {
	ref := snap.SelectedCollection
	if ref.IsZero() {
		return "-"
	}
	if ref.IsSpecial() {
		return specialLabel(ref.Special())
	}
	for _, c := range snap.Collections {
		if c.Key == ref.Key() {
			return c.Data.Name
		}
	}
	return ref.Key()
}

func (m appModel) viewAuth(snap appstate.State) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Refero"))
	b.WriteString("\n\n")
	b.WriteString("Enter your API key to connect.\n\n")
	b.WriteString(m.authInput.View())
	b.WriteString("\n\n")
	if latest, ok := m.notify.Latest(); ok {
		b.WriteString(noticeStyle(latest.Level).Render(latest.Message))
		b.WriteString("\n")
	} else if snap.LastError != "" {
		b.WriteString(errorStyle.Render(snap.LastError))
		b.WriteString("\n")
	}
	b.WriteString(footerStyle.Render("enter: connect  ctrl+c: quit"))
	return b.String()
}

func (m appModel) viewModal() string {
	var b strings.Builder
	switch m.modal {
	case modalNewCollection:
		b.WriteString("New collection\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n" + footerStyle.Render("enter: create  esc: cancel"))
	case modalRenameCollection:
		b.WriteString("Rename " + m.modalFor.Data.Name + "\n\n")
		b.WriteString(m.input.View())
		b.WriteString("\n\n" + footerStyle.Render("enter: rename  esc: cancel"))
	case modalConfirmDeleteCollection:
		fmt.Fprintf(&b, "Delete collection %q and all its items?\n\n", m.modalFor.Data.Name)
		b.WriteString(footerStyle.Render("y: delete  n/esc: keep"))
	case modalConfirmDeleteItem:
		title := "this item"
		if it := m.app.Snapshot().SelectedItem; it != nil && it.Data.Title != "" {
			title = fmt.Sprintf("%q", it.Data.Title)
		}
		fmt.Fprintf(&b, "Delete %s?\n\n", title)
		b.WriteString(footerStyle.Render("y: delete  n/esc: keep"))
	case modalItemForm:
		b.WriteString(m.form.view())
	}
	return modalStyle.Render(b.String())
}

func (m appModel) viewDetail(snap appstate.State, width int) string {
	it := snap.SelectedItem
	if it == nil {
		return "No item selected."
	}

	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(it.Data.Title))
	b.WriteString("\n\n")
	writeField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(fieldLabelStyle.Render(label+": ") + value + "\n")
	}
	writeField("Type", model.ItemTypeLabel(it.Data.ItemType))
	for _, c := range it.Data.Creators {
		writeField(creatorLabel(c.CreatorType), strings.TrimSpace(c.FirstName+" "+c.LastName))
	}
	writeField("Date", it.Data.Date)
	writeField("Publication", it.Data.PublicationTitle)
	writeField("Publisher", it.Data.Publisher)
	writeField("URL", it.Data.URL)
	writeField("Added", it.DateAdded)
	writeField("Modified", it.Data.DateModified)
	if it.Data.AbstractNote != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Width(width-2).Render(it.Data.AbstractNote))
	}
	return b.String()
}

func creatorLabel(creatorType string) string {
	if creatorType == "" {
		return "Creator"
	}
	return strings.ToUpper(creatorType[:1]) + creatorType[1:]
}
