package membership

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesAllSubscribers(t *testing.T) {
	bus := NewBus()

	var wg sync.WaitGroup
	wg.Add(3)
	var mu sync.Mutex
	seen := make([]Event, 0, 3)
	for i := 0; i < 3; i++ {
		bus.Subscribe(func(e Event) {
			mu.Lock()
			seen = append(seen, e)
			mu.Unlock()
			wg.Done()
		})
	}

	bus.Publish(Event{Kind: EventGranted, MembershipID: "m1", UserID: "u1", PlanID: "p1"})

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("subscribers did not all receive the event")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 3)
	for _, e := range seen {
		require.Equal(t, EventGranted, e.Kind)
		require.Equal(t, "m1", e.MembershipID)
	}
}

func TestBus_NilSubscriberIgnored(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(nil)
	// must not panic
	bus.Publish(Event{Kind: EventExpired})
}

func TestBus_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	bus := NewBus()
	release := make(chan struct{})
	bus.Subscribe(func(Event) { <-release })

	start := time.Now()
	bus.Publish(Event{Kind: EventRevoked})
	require.Less(t, time.Since(start), time.Second)
	close(release)
}
