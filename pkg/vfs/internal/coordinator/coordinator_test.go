package coordinator

import (
	"context"
	"testing"
)

func TestExternalChangeDeferredDuringMutation(t *testing.T) {
	var handled []Change
	c := New(nil, func(ctx context.Context, change Change) {
		handled = append(handled, change)
	})

	c.BeginChange()
	c.EnqueueExternalChange(context.Background(), Change{Path: "/p/f.txt"})

	if len(handled) != 0 {
		t.Fatal("change delivered before EndChange")
	}

	c.EndChange(context.Background())

	if len(handled) != 1 || handled[0].Path != "/p/f.txt" {
		t.Fatalf("expected exactly one drained change, got %v", handled)
	}
}

func TestExternalChangeDrainsImmediatelyWhenQuiescent(t *testing.T) {
	var handled []Change
	c := New(nil, func(ctx context.Context, change Change) {
		handled = append(handled, change)
	})

	c.EnqueueExternalChange(context.Background(), Change{Path: "/a.txt"})

	if len(handled) != 1 {
		t.Fatalf("expected immediate drain, got %v", handled)
	}
}

func TestChangesPreserveArrivalOrder(t *testing.T) {
	var order []string
	c := New(nil, func(ctx context.Context, change Change) {
		order = append(order, change.Path)
	})

	c.BeginChange()
	c.EnqueueExternalChange(context.Background(), Change{Path: "/a"})
	c.EnqueueExternalChange(context.Background(), Change{Path: "/b"})
	c.EnqueueExternalChange(context.Background(), Change{Path: "/c"})
	c.EndChange(context.Background())

	if len(order) != 3 || order[0] != "/a" || order[1] != "/b" || order[2] != "/c" {
		t.Fatalf("changes not delivered in arrival order: %v", order)
	}
}

func TestNegativeCountIsClampedNotPropagated(t *testing.T) {
	var handled int
	c := New(nil, func(ctx context.Context, change Change) { handled++ })

	c.EndChange(context.Background())
	if got := c.ActiveChangeCount(); got != 0 {
		t.Fatalf("expected count clamped to 0, got %d", got)
	}

	// A subsequent begin/end pair should behave normally afterward.
	c.BeginChange()
	c.EnqueueExternalChange(context.Background(), Change{Path: "/x"})
	c.EndChange(context.Background())
	if handled != 1 {
		t.Fatalf("expected 1 handled change, got %d", handled)
	}
}
