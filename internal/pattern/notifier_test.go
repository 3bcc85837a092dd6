package pattern

import (
	"reflect"
	"testing"
)

func TestNotifier_Order(t *testing.T) {
	n := &notifier{logger: noopLogger{}}
	var order []string

	n.add("first", func([]Pattern) { order = append(order, "first") })
	n.add("second", func([]Pattern) { order = append(order, "second") })
	n.add("first", func([]Pattern) { order = append(order, "first-replaced") })

	n.deliver(nil)

	if want := []string{"first-replaced", "second"}; !reflect.DeepEqual(order, want) {
		t.Errorf("order = %v, want %v", order, want)
	}
}

func TestNotifier_RemoveSelfDuringDelivery(t *testing.T) {
	n := &notifier{logger: noopLogger{}}
	calls := 0

	n.add("once", func([]Pattern) {
		calls++
		n.remove("once")
	})
	n.add("other", func([]Pattern) { calls++ })

	n.deliver(nil)
	n.deliver(nil)

	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestNotifier_PanicDoesNotStopOthers(t *testing.T) {
	n := &notifier{logger: noopLogger{}}
	reached := false

	n.add("bad", func([]Pattern) { panic("boom") })
	n.add("good", func([]Pattern) { reached = true })

	n.deliver([]Pattern{{ID: "x"}})

	if !reached {
		t.Error("listener after a panicking one was not called")
	}
}
