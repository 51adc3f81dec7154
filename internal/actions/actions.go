// Package actions maps user gestures (menu entries, key bindings, form
// submits) onto app-store actions and remote calls, translating every
// outcome into a user-facing notification. Errors never escape this
// boundary: each handler returns a Result for the notification center.
package actions

import (
	"refero-cli/internal/app"
)

// Result is the outcome of one user action.
type Result struct {
	OK        bool
	Cancelled bool
	// Level overrides the default warning/error level for failures.
	Level   app.Level
	Message string
}

func success(msg string) Result { return Result{OK: true, Message: msg} }

func failure(msg string) Result { return Result{Message: msg} }

func cancelled() Result { return Result{Cancelled: true} }

// Publish routes the result to the notification center: successes as
// success toasts, failures at their level (error unless overridden),
// cancellations silently.
func (r Result) Publish(n *app.Notifier) {
	switch {
	case r.Cancelled:
	case r.OK:
		n.Success(r.Message)
	case r.Level != "":
		n.Push(r.Level, r.Message)
	default:
		n.Error(r.Message)
	}
}

// Clipboard is the abstract copy-text capability.
type Clipboard interface {
	WriteText(s string) error
}

// FileSaver writes an export artifact somewhere the user can find it.
type FileSaver interface {
	Save(name string, data []byte) error
}

// Confirmer asks the user to approve an irreversible action.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a plain func to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm is used where the caller has already confirmed (e.g. a TUI
// modal answered before the handler runs).
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })
