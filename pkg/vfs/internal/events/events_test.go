package events

import (
	"testing"

	"github.com/watchfs/watchfs/pkg/vfs/internal/entry"
)

func TestChangeObserversFireInRegistrationOrder(t *testing.T) {
	d := New()
	var order []int
	d.OnChange(func(e *entry.Entry, added, removed []*entry.Entry) { order = append(order, 1) })
	d.OnChange(func(e *entry.Entry, added, removed []*entry.Entry) { order = append(order, 2) })
	d.OnChange(func(e *entry.Entry, added, removed []*entry.Entry) { order = append(order, 3) })

	d.FireChange(nil, nil, nil)

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Fatalf("observers fired out of registration order: %v", order)
	}
}

func TestPanickingObserverDoesNotSuppressOthers(t *testing.T) {
	d := New()
	var secondFired bool
	d.OnChange(func(e *entry.Entry, added, removed []*entry.Entry) { panic("boom") })
	d.OnChange(func(e *entry.Entry, added, removed []*entry.Entry) { secondFired = true })

	d.FireChange(nil, nil, nil)

	if !secondFired {
		t.Fatal("second observer was not invoked after first panicked")
	}
}

func TestOffDeregistersObserver(t *testing.T) {
	d := New()
	var fired bool
	token := d.OnChange(func(e *entry.Entry, added, removed []*entry.Entry) { fired = true })
	d.Off(token)

	d.FireChange(nil, nil, nil)

	if fired {
		t.Fatal("deregistered observer was still invoked")
	}
}

func TestRenameObservers(t *testing.T) {
	d := New()
	var oldP, newP string
	d.OnRename(func(o, n string) { oldP, newP = o, n })

	d.FireRename("/a", "/b")

	if oldP != "/a" || newP != "/b" {
		t.Fatalf("unexpected rename delivery: %q -> %q", oldP, newP)
	}
}
