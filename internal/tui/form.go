package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"refero-cli/internal/model"
)

// itemForm is the create/edit modal: a fixed set of the common fields, each
// backed by a textinput. The full field set per type stays available
// through the CLI.
type itemForm struct {
	editing bool
	base    model.ItemData

	inputs []textinput.Model
	labels []string
	focus  int
}

const (
	formFieldType = iota
	formFieldTitle
	formFieldAuthor
	formFieldDate
	formFieldPublication
	formFieldPublisher
	formFieldURL
	formFieldCount
)

func newItemForm(item model.Item, editing bool) itemForm {
	f := itemForm{
		editing: editing,
		base:    item.Data.Clone(),
		labels:  []string{"Type", "Title", "Author", "Date", "Publication", "Publisher", "URL"},
	}
	if !editing {
		f.base = model.DefaultItemData()
	}

	f.inputs = make([]textinput.Model, formFieldCount)
	for i := range f.inputs {
		f.inputs[i] = textinput.New()
	}
	f.inputs[formFieldType].SetValue(f.base.ItemType)
	f.inputs[formFieldType].Placeholder = strings.Join(model.ItemTypeNames(), "|")
	f.inputs[formFieldTitle].SetValue(f.base.Title)
	if c, ok := f.base.FirstCreator(); ok {
		f.inputs[formFieldAuthor].SetValue(strings.TrimSpace(c.FirstName + " " + c.LastName))
	}
	f.inputs[formFieldAuthor].Placeholder = "First Last"
	f.inputs[formFieldDate].SetValue(f.base.Date)
	f.inputs[formFieldPublication].SetValue(f.base.PublicationTitle)
	f.inputs[formFieldPublisher].SetValue(f.base.Publisher)
	f.inputs[formFieldURL].SetValue(f.base.URL)

	f.inputs[formFieldTitle].Focus()
	f.focus = formFieldTitle
	return f
}

// handleKey reports whether the form is finished and, if so, whether it was
// submitted (vs cancelled). Esc is handled by the caller.
func (f *itemForm) handleKey(msg tea.KeyMsg) (done, submit bool) {
	switch msg.String() {
	case "enter":
		return true, true
	case "tab", "down":
		f.setFocus((f.focus + 1) % formFieldCount)
	case "shift+tab", "up":
		f.setFocus((f.focus + formFieldCount - 1) % formFieldCount)
	}
	return false, false
}

func (f *itemForm) setFocus(i int) {
	f.inputs[f.focus].Blur()
	f.focus = i
	f.inputs[f.focus].Focus()
}

func (f itemForm) update(msg tea.Msg) (itemForm, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

// itemData merges the form fields back onto the base record, so fields the
// form does not surface survive an edit untouched.
func (f itemForm) itemData() model.ItemData {
	data := f.base.Clone()

	if v := strings.TrimSpace(f.inputs[formFieldType].Value()); v != "" {
		data.ItemType = v
	}
	data.Title = strings.TrimSpace(f.inputs[formFieldTitle].Value())
	if v := strings.TrimSpace(f.inputs[formFieldAuthor].Value()); v != "" {
		c := splitAuthor(v)
		if len(data.Creators) > 0 {
			data.Creators[0] = c
		} else {
			data.Creators = []model.Creator{c}
		}
	} else {
		data.Creators = nil
	}
	data.Date = strings.TrimSpace(f.inputs[formFieldDate].Value())
	data.PublicationTitle = strings.TrimSpace(f.inputs[formFieldPublication].Value())
	data.Publisher = strings.TrimSpace(f.inputs[formFieldPublisher].Value())
	data.URL = strings.TrimSpace(f.inputs[formFieldURL].Value())
	return data
}

func splitAuthor(s string) model.Creator {
	c := model.Creator{CreatorType: model.CreatorTypeAuthor}
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return c
	}
	c.LastName = parts[len(parts)-1]
	c.FirstName = strings.Join(parts[:len(parts)-1], " ")
	return c
}

func (f itemForm) view() string {
	var b strings.Builder
	if f.editing {
		b.WriteString("Edit item\n\n")
	} else {
		b.WriteString("New item\n\n")
	}
	for i, in := range f.inputs {
		label := f.labels[i]
		if i == f.focus {
			b.WriteString("> ")
		} else {
			b.WriteString("  ")
		}
		b.WriteString(fieldLabelStyle.Render(label+": ") + in.View() + "\n")
	}
	b.WriteString("\n" + footerStyle.Render("tab: next field  enter: save  esc: cancel"))
	return b.String()
}
