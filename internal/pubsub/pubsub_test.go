package pubsub

import (
	"testing"
	"time"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed")
		}
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
	}
	var zero T
	return zero
}

func TestValueReplaysLatest(t *testing.T) {
	v := NewValue(1)
	v.Set(2)

	ch, cancel := v.Subscribe()
	defer cancel()
	if got := recv(t, ch); got != 2 {
		t.Errorf("expected replay of 2, got %d", got)
	}

	v.Set(3)
	if got := recv(t, ch); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
	if v.Get() != 3 {
		t.Errorf("Get returned %d", v.Get())
	}
}

func TestValueCoalescesForSlowReader(t *testing.T) {
	v := NewValue("a")
	ch, cancel := v.Subscribe()
	defer cancel()

	v.Set("b")
	v.Set("c")
	v.Set("d")

	if got := recv(t, ch); got != "d" {
		t.Errorf("expected newest value d, got %s", got)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra value %s", extra)
	default:
	}
}

func TestValueCancelClosesChannel(t *testing.T) {
	v := NewValue(0)
	ch, cancel := v.Subscribe()
	<-ch
	cancel()
	cancel()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel")
	}
	v.Set(5)
}

func TestValueClose(t *testing.T) {
	v := NewValue(0)
	ch, _ := v.Subscribe()
	<-ch
	v.Close()
	if _, ok := <-ch; ok {
		t.Error("expected closed channel")
	}
	late, _ := v.Subscribe()
	if _, ok := <-late; ok {
		t.Error("subscribe after close should yield a closed channel")
	}
}

func TestEventsNoReplay(t *testing.T) {
	e := NewEvents[int]()
	e.Publish(1)

	ch, cancel := e.Subscribe()
	defer cancel()
	e.Publish(2)

	if got := recv(t, ch); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
}

func TestEventsDeliversEveryItemInOrder(t *testing.T) {
	e := NewEvents[int]()
	a, cancelA := e.Subscribe()
	defer cancelA()
	b, cancelB := e.Subscribe()
	defer cancelB()

	for i := 0; i < 100; i++ {
		e.Publish(i)
	}
	for i := 0; i < 100; i++ {
		if got := recv(t, a); got != i {
			t.Fatalf("subscriber a: expected %d, got %d", i, got)
		}
	}
	for i := 0; i < 100; i++ {
		if got := recv(t, b); got != i {
			t.Fatalf("subscriber b: expected %d, got %d", i, got)
		}
	}
}

func TestEventsCloseDrainsPending(t *testing.T) {
	e := NewEvents[string]()
	ch, _ := e.Subscribe()
	e.Publish("x")
	e.Publish("y")
	e.Close()

	if got := recv(t, ch); got != "x" {
		t.Errorf("expected x, got %s", got)
	}
	if got := recv(t, ch); got != "y" {
		t.Errorf("expected y, got %s", got)
	}
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	e.Publish("z")
}

func TestEventsCancel(t *testing.T) {
	e := NewEvents[int]()
	ch, cancel := e.Subscribe()
	cancel()
	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed")
	}
	e.Publish(1)
}
