package notify

import (
	"sync"
	"testing"
)

func TestNotifier_DeliversInSubscriptionOrder(t *testing.T) {
	var n Notifier[int]
	var got []string

	n.Subscribe(func(v int) { got = append(got, "a") })
	n.Subscribe(func(v int) { got = append(got, "b") })
	n.Publish(1)

	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("unexpected delivery order: %v", got)
	}
}

func TestNotifier_Unsubscribe(t *testing.T) {
	var n Notifier[int]
	calls := 0
	stop := n.Subscribe(func(int) { calls++ })

	n.Publish(1)
	stop()
	n.Publish(2)

	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestNotifier_DeliversInTicketOrder(t *testing.T) {
	var n Notifier[int]
	var mu sync.Mutex
	var got []int
	n.Subscribe(func(v int) {
		mu.Lock()
		got = append(got, v)
		mu.Unlock()
	})

	first := n.Reserve()
	second := n.Reserve()

	done := make(chan struct{})
	go func() {
		n.Deliver(second, 2)
		close(done)
	}()
	n.Deliver(first, 1)
	<-done

	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}
}

func TestNotifier_ListenerMayReadWriterState(t *testing.T) {
	var n Notifier[int]
	var mu sync.Mutex
	state := 0

	n.Subscribe(func(v int) {
		mu.Lock()
		defer mu.Unlock()
		if state != v {
			t.Errorf("listener saw state %d, published %d", state, v)
		}
	})

	mu.Lock()
	state = 7
	ticket := n.Reserve()
	mu.Unlock()
	n.Deliver(ticket, 7)
}
