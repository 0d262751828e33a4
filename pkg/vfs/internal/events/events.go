// Package events implements the façade's small observer registry: two named
// events, "change" and "rename", dispatched to observers in registration
// order, with a panicking observer never suppressing delivery to the
// others.
package events

import (
	"sync"

	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
)

// ChangeHandler observes a change event. e is nil for a wholesale change;
// added and removed are only populated for directory changes that were
// diffed against a prior listing.
type ChangeHandler func(e *entry.Entry, added, removed []*entry.Entry)

// RenameHandler observes a rename event.
type RenameHandler func(oldPath, newPath string)

// Dispatcher is a registry of change and rename observers. It is safe for
// concurrent use.
type Dispatcher struct {
	mu      sync.Mutex
	changes []*changeEntry
	renames []*renameEntry
}

type changeEntry struct {
	handler ChangeHandler
}

type renameEntry struct {
	handler RenameHandler
}

// New creates an empty Dispatcher.
func New() *Dispatcher {
	return &Dispatcher{}
}

// OnChange registers a change observer and returns a token that can be
// passed to Off to deregister it.
func (d *Dispatcher) OnChange(handler ChangeHandler) interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := &changeEntry{handler: handler}
	d.changes = append(d.changes, entry)
	return entry
}

// OnRename registers a rename observer and returns a token that can be
// passed to Off to deregister it.
func (d *Dispatcher) OnRename(handler RenameHandler) interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry := &renameEntry{handler: handler}
	d.renames = append(d.renames, entry)
	return entry
}

// Off deregisters an observer previously registered with OnChange or
// OnRename.
func (d *Dispatcher) Off(token interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch t := token.(type) {
	case *changeEntry:
		for i, e := range d.changes {
			if e == t {
				d.changes = append(d.changes[:i], d.changes[i+1:]...)
				return
			}
		}
	case *renameEntry:
		for i, e := range d.renames {
			if e == t {
				d.renames = append(d.renames[:i], d.renames[i+1:]...)
				return
			}
		}
	}
}

// FireChange dispatches a change event to every registered observer, in
// registration order. A panicking observer is recovered so that it cannot
// suppress delivery to subsequent observers.
func (d *Dispatcher) FireChange(e *entry.Entry, added, removed []*entry.Entry) {
	d.mu.Lock()
	handlers := make([]ChangeHandler, len(d.changes))
	for i, ce := range d.changes {
		handlers[i] = ce.handler
	}
	d.mu.Unlock()

	for _, handler := range handlers {
		invokeChange(handler, e, added, removed)
	}
}

// FireRename dispatches a rename event to every registered observer, in
// registration order.
func (d *Dispatcher) FireRename(oldPath, newPath string) {
	d.mu.Lock()
	handlers := make([]RenameHandler, len(d.renames))
	for i, e := range d.renames {
		handlers[i] = e.handler
	}
	d.mu.Unlock()

	for _, handler := range handlers {
		invokeRename(handler, oldPath, newPath)
	}
}

func invokeChange(handler ChangeHandler, e *entry.Entry, added, removed []*entry.Entry) {
	defer func() { recover() }()
	handler(e, added, removed)
}

func invokeRename(handler RenameHandler, oldPath, newPath string) {
	defer func() { recover() }()
	handler(oldPath, newPath)
}
