package billing

import "time"

// EventType is the normalized kind of a billing provider event
type EventType string

// Event types handled by the reducer
const (
	EventSubscriptionCreated EventType = "subscription.created"
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventSubscriptionDeleted EventType = "subscription.deleted"
	EventPaymentSucceeded    EventType = "payment.succeeded"
	EventPaymentFailed       EventType = "payment.failed"
	EventCheckoutCompleted   EventType = "checkout.completed"
	EventIgnored             EventType = "ignored"
)

// Action is a user requested subscription change
type Action string

// Subscription actions
const (
	ActionCancel     Action = "cancel"
	ActionReactivate Action = "reactivate"
)

// SubscriptionSnapshot is the provider's view of a subscription
type SubscriptionSnapshot struct {
	ID                 string
	CustomerID         string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	// AccountID comes from subscription metadata when the checkout set it
	AccountID string
}

// Event is a verified and decoded billing webhook
type Event struct {
	ID           string
	Type         EventType
	ProviderType string

	// Subscription is set for subscription.* events
	Subscription *SubscriptionSnapshot

	// SubscriptionID, CustomerID and CustomerEmail reference the subject of
	// payment and checkout events
	SubscriptionID string
	CustomerID     string
	CustomerEmail  string
	AccountID      string
}

// CheckoutRequest describes a hosted checkout for the premium plan
type CheckoutRequest struct {
	AccountID  string
	Email      string
	CustomerID string
}

// CheckoutSession is the hosted checkout the client is redirected to
type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PlanInfo describes one entry of the plan catalogue
type PlanInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DailyLimit  int      `json:"daily_limit"`
	PremiumChat bool     `json:"premium_chat"`
	TrialDays   int      `json:"trial_days,omitempty"`
	Features    []string `json:"features"`
}
