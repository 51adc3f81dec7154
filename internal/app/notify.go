package app

import (
	"sync"

	"github.com/google/uuid"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a transient, user-facing message. Notifications are
// advisory only; dropping one never loses data.
type Notification struct {
	ID      string
	Level   Level
	Message string
}

const maxNotifications = 20

// Notifier is the in-memory notification center. Action handlers push
// outcomes here; the presentation layer subscribes and renders them.
type Notifier struct {
	mu    sync.Mutex
	items []Notification
	subs  map[int]func()
	next  int
}

func NewNotifier() *Notifier {
	return &Notifier{subs: map[int]func(){}}
}

func (n *Notifier) Push(level Level, message string) string {
	id := uuid.NewString()
	n.mu.Lock()
	n.items = append(n.items, Notification{ID: id, Level: level, Message: message})
	if len(n.items) > maxNotifications {
		n.items = n.items[len(n.items)-maxNotifications:]
	}
	subs := n.snapshotSubs()
	n.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
	return id
}

func (n *Notifier) Success(message string) string { return n.Push(LevelSuccess, message) }
func (n *Notifier) Info(message string) string    { return n.Push(LevelInfo, message) }
func (n *Notifier) Warning(message string) string { return n.Push(LevelWarning, message) }
func (n *Notifier) Error(message string) string   { return n.Push(LevelError, message) }

func (n *Notifier) Remove(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	kept := n.items[:0]
	for _, item := range n.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	n.items = kept
}

func (n *Notifier) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = nil
}

// List returns a copy of the pending notifications, oldest first.
func (n *Notifier) List() []Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Notification(nil), n.items...)
}

// Latest returns the most recent notification, if any.
func (n *Notifier) Latest() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return Notification{}, false
	}
	return n.items[len(n.items)-1], true
}

// Subscribe registers a callback invoked after every push. The returned
// cancel func unregisters it.
func (n *Notifier) Subscribe(fn func()) (cancel func()) {
	n.mu.Lock()
	id := n.next
	n.next++
	n.subs[id] = fn
	n.mu.Unlock()
	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}
}

func (n *Notifier) snapshotSubs() []func() {
	out := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		out = append(out, fn)
	}
	return out
}
