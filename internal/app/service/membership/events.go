package membership

import "sync"

type EventKind string

const (
	EventGranted EventKind = "granted"
	EventRevoked EventKind = "revoked"
	EventExpired EventKind = "expired"
)

// Event is the notification emitted on grant/revoke/expire for external
// subscribers (audit log, email, cache busting).
type Event struct {
	Kind         EventKind
	MembershipID string
	UserID       string
	PlanID       string
}

// Bus is a fire-and-forget observer registry. Each subscriber runs on its
// own goroutine so a slow or failing subscriber can never block or fail a
// lifecycle transition.
type Bus struct {
	mu   sync.RWMutex
	subs []func(Event)
}

func NewBus() *Bus { return &Bus{} }

func (b *Bus) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, fn)
}

func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()
	for _, fn := range subs {
		go fn(e)
	}
}
