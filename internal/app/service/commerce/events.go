package commerce

// EventType names the commerce lifecycle signals the adapter understands.
type EventType string

const (
	EventOrderCompleted              EventType = "order_completed"
	EventOrderProcessing             EventType = "order_processing"
	EventOrderRefunded               EventType = "order_refunded"
	EventSubscriptionStatusChanged   EventType = "subscription_status_changed"
	EventSubscriptionRenewalComplete EventType = "subscription_renewal_complete"
	EventSubscriptionRenewalFailed   EventType = "subscription_renewal_failed"
)

// SubscriptionStatus is the commerce platform's subscription state carried
// on status-changed events.
type SubscriptionStatus string

const (
	SubscriptionActive        SubscriptionStatus = "active"
	SubscriptionOnHold        SubscriptionStatus = "on-hold"
	SubscriptionCancelled     SubscriptionStatus = "cancelled"
	SubscriptionExpired       SubscriptionStatus = "expired"
	SubscriptionPendingCancel SubscriptionStatus = "pending-cancel"
)

// LineItem is one purchased product on an order or subscription.
type LineItem struct {
	ProductID string `json:"product_id"`
}

// Event is a commerce lifecycle event as delivered by the host. The host has
// already validated authenticity; the adapter only translates it into
// lifecycle engine calls.
type Event struct {
	Type           EventType          `json:"type"`
	UserID         string             `json:"user_id"`
	OrderID        string             `json:"order_id"`
	SubscriptionID string             `json:"subscription_id"`
	Items          []LineItem         `json:"items"`
	Status         SubscriptionStatus `json:"status"`
	// Virtual marks orders containing only virtual products; order_processing
	// grants immediately for those, and waits for completion otherwise.
	Virtual bool `json:"virtual"`
}
