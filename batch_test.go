package pulse

import (
	"errors"
	"testing"
)

func TestBatcher_CoalescesWrites(t *testing.T) {
	b := NewBatcher()
	o := New(0, WithBatcher[int](b))

	var got []int
	o.Subscribe(func(v int) { got = append(got, v) })

	err := b.Run(func() error {
		o.Set(1)
		o.Set(2)
		o.Set(3)
		return nil
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(got) != 1 || got[0] != 3 {
		t.Errorf("expected single notification with final value 3, got %v", got)
	}
}

func TestBatcher_ReadsInsideBatchSeeNewValue(t *testing.T) {
	b := NewBatcher()
	o := New(0, WithBatcher[int](b))

	var inside int
	b.Run(func() error {
		o.Set(7)
		inside = o.Get()
		return nil
	})

	if inside != 7 {
		t.Errorf("expected read inside batch to observe 7, got %d", inside)
	}
}

func TestBatcher_NestedRunsCollapse(t *testing.T) {
	b := NewBatcher()
	o := New(0, WithBatcher[int](b))

	count := 0
	o.Subscribe(func(int) { count++ })

	b.Run(func() error {
		o.Set(1)
		b.Run(func() error {
			o.Set(2)
			if count != 0 {
				t.Error("inner Run flushed early")
			}
			return nil
		})
		if count != 0 {
			t.Error("flush fired before outermost Run completed")
		}
		return nil
	})

	if count != 1 {
		t.Errorf("expected exactly one notification, got %d", count)
	}
	if o.Get() != 2 {
		t.Errorf("expected final value 2, got %d", o.Get())
	}
}

func TestBatcher_MultipleObservablesFlushInFirstWriteOrder(t *testing.T) {
	b := NewBatcher()
	x := New(0, WithBatcher[int](b))
	y := New(0, WithBatcher[int](b))

	var order []string
	x.Subscribe(func(int) { order = append(order, "x") })
	y.Subscribe(func(int) { order = append(order, "y") })

	b.Run(func() error {
		y.Set(1)
		x.Set(1)
		y.Set(2)
		return nil
	})

	if len(order) != 2 || order[0] != "y" || order[1] != "x" {
		t.Errorf("expected [y x], got %v", order)
	}
}

func TestBatcher_ErrorStillFlushesAndResets(t *testing.T) {
	b := NewBatcher()
	o := New(0, WithBatcher[int](b))

	count := 0
	o.Subscribe(func(int) { count++ })

	boom := errors.New("boom")
	err := b.Run(func() error {
		o.Set(5)
		return boom
	})

	if !errors.Is(err, boom) {
		t.Errorf("expected Run to return the body's error, got %v", err)
	}
	if count != 1 {
		t.Errorf("expected deferred notification to flush, got %d", count)
	}
	if b.Active() {
		t.Error("expected batching flag cleared after error")
	}
	if b.Pending() != 0 {
		t.Errorf("expected empty pending set, got %d", b.Pending())
	}
}

func TestBatcher_PanicStillResets(t *testing.T) {
	b := NewBatcher()
	o := New(0, WithBatcher[int](b))

	count := 0
	o.Subscribe(func(int) { count++ })

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate out of Run")
			}
		}()
		b.Run(func() error {
			o.Set(1)
			panic("boom")
		})
	}()

	if b.Active() {
		t.Error("expected batching flag cleared after panic")
	}
	if b.Pending() != 0 {
		t.Errorf("expected empty pending set, got %d", b.Pending())
	}
	if count != 1 {
		t.Errorf("expected deferred notification delivered on unwind, got %d", count)
	}

	// Batcher is usable again afterwards.
	o.Set(2)
	if count != 2 {
		t.Errorf("expected immediate notification after batch, got %d", count)
	}
}

func TestBatcher_EqualWritesInsideBatchAreNoOps(t *testing.T) {
	b := NewBatcher()
	o := New(1, WithBatcher[int](b))

	count := 0
	o.Subscribe(func(int) { count++ })

	b.Run(func() error {
		o.Set(1) // equal to current, never enters the pending set
		return nil
	})

	if count != 0 {
		t.Errorf("expected no notification for equal write, got %d", count)
	}
}

func TestBatcher_UnbatchedObservableNotifiesImmediately(t *testing.T) {
	b := NewBatcher()
	o := New(0) // not bound to b

	count := 0
	o.Subscribe(func(int) { count++ })

	b.Run(func() error {
		o.Set(1)
		if count != 1 {
			t.Errorf("expected immediate notification for unbound observable, got %d", count)
		}
		return nil
	})
}
