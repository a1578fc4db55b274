package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/pratik-mahalle/dialekt/internal/domain/billing"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
)

// StripeConfig configures the Stripe billing gateway
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// StripeGateway implements billing.Gateway
type StripeGateway struct {
	api *client.API
	cfg StripeConfig
}

// NewStripeGateway creates a new Stripe billing gateway. Webhook parsing works
// without a secret key; outbound calls fail until one is configured.
func NewStripeGateway(cfg StripeConfig) *StripeGateway {
	g := &StripeGateway{cfg: cfg}
	if strings.TrimSpace(cfg.SecretKey) != "" {
		g.api = client.New(strings.TrimSpace(cfg.SecretKey), nil)
	}
	return g
}

// stripeSubscription is the subset of a Stripe subscription object the reducer needs.
// Period bounds moved from the subscription to its items in newer API versions,
// so both places are read.
type stripeSubscription struct {
	ID                 string            `json:"id"`
	Customer           expandableID      `json:"customer"`
	Status             string            `json:"status"`
	CancelAtPeriodEnd  bool              `json:"cancel_at_period_end"`
	CurrentPeriodStart int64             `json:"current_period_start"`
	CurrentPeriodEnd   int64             `json:"current_period_end"`
	Metadata           map[string]string `json:"metadata"`
	Items              struct {
		Data []struct {
			CurrentPeriodStart int64 `json:"current_period_start"`
			CurrentPeriodEnd   int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

type stripeInvoice struct {
	ID            string       `json:"id"`
	Customer      expandableID `json:"customer"`
	CustomerEmail string       `json:"customer_email"`
	Subscription  expandableID `json:"subscription"`
	Parent        *struct {
		SubscriptionDetails *struct {
			Subscription expandableID      `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"subscription_details"`
	} `json:"parent"`
}

type stripeCheckoutSession struct {
	ID                string       `json:"id"`
	Mode              string       `json:"mode"`
	Customer          expandableID `json:"customer"`
	Subscription      expandableID `json:"subscription"`
	ClientReferenceID string       `json:"client_reference_id"`
	CustomerEmail     string       `json:"customer_email"`
	CustomerDetails   *struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Metadata map[string]string `json:"metadata"`
}

// expandableID decodes a Stripe reference that is either an ID string or an expanded object
type expandableID string

func (e *expandableID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*e = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = expandableID(s)
		return nil
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*e = expandableID(obj.ID)
	return nil
}

func (s *stripeSubscription) snapshot() *billing.SubscriptionSnapshot {
	start, end := s.CurrentPeriodStart, s.CurrentPeriodEnd
	if end == 0 && len(s.Items.Data) > 0 {
		start = s.Items.Data[0].CurrentPeriodStart
		end = s.Items.Data[0].CurrentPeriodEnd
	}

	snap := &billing.SubscriptionSnapshot{
		ID:                s.ID,
		CustomerID:        string(s.Customer),
		Status:            s.Status,
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		AccountID:         strings.TrimSpace(s.Metadata["account_id"]),
	}
	if start > 0 {
		snap.CurrentPeriodStart = time.Unix(start, 0).UTC()
	}
	if end > 0 {
		snap.CurrentPeriodEnd = time.Unix(end, 0).UTC()
	}
	return snap
}

// ParseEvent verifies the Stripe-Signature header and decodes the event
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*billing.Event, error) {
	if g.cfg.WebhookSecret == "" {
		return nil, errors.ServiceUnavailable("Billing webhooks are not configured")
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, g.cfg.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBadRequest, "Invalid webhook signature", http.StatusBadRequest)
	}

	return decodeStripeEvent(event)
}

func decodeStripeEvent(event stripe.Event) (*billing.Event, error) {
	out := &billing.Event{
		ID:           event.ID,
		ProviderType: string(event.Type),
		Type:         billing.EventIgnored,
	}
	if event.Data == nil {
		return out, nil
	}
	raw := event.Data.Raw

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripeSubscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, errors.BadRequest("Malformed subscription event").WithDetails(err.Error())
		}
		out.Subscription = sub.snapshot()
		out.SubscriptionID = sub.ID
		out.CustomerID = string(sub.Customer)
		out.AccountID = out.Subscription.AccountID
		switch event.Type {
		case "customer.subscription.created":
			out.Type = billing.EventSubscriptionCreated
		case "customer.subscription.updated":
			out.Type = billing.EventSubscriptionUpdated
		default:
			out.Type = billing.EventSubscriptionDeleted
		}

	case "invoice.payment_succeeded", "invoice.paid", "invoice.payment_failed":
		var inv stripeInvoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, errors.BadRequest("Malformed invoice event").WithDetails(err.Error())
		}
		out.CustomerID = string(inv.Customer)
		out.CustomerEmail = inv.CustomerEmail
		out.SubscriptionID = string(inv.Subscription)
		if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
			if out.SubscriptionID == "" {
				out.SubscriptionID = string(inv.Parent.SubscriptionDetails.Subscription)
			}
			out.AccountID = strings.TrimSpace(inv.Parent.SubscriptionDetails.Metadata["account_id"])
		}
		if event.Type == "invoice.payment_failed" {
			out.Type = billing.EventPaymentFailed
		} else {
			out.Type = billing.EventPaymentSucceeded
		}

	case "checkout.session.completed":
		var sess stripeCheckoutSession
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, errors.BadRequest("Malformed checkout event").WithDetails(err.Error())
		}
		if sess.Mode != "" && sess.Mode != "subscription" {
			return out, nil
		}
		out.Type = billing.EventCheckoutCompleted
		out.CustomerID = string(sess.Customer)
		out.SubscriptionID = string(sess.Subscription)
		out.CustomerEmail = sess.CustomerEmail
		if out.CustomerEmail == "" && sess.CustomerDetails != nil {
			out.CustomerEmail = sess.CustomerDetails.Email
		}
		out.AccountID = strings.TrimSpace(sess.ClientReferenceID)
		if out.AccountID == "" {
			out.AccountID = strings.TrimSpace(sess.Metadata["account_id"])
		}
	}

	return out, nil
}

// FetchSubscription retrieves a subscription from Stripe
func (g *StripeGateway) FetchSubscription(ctx context.Context, subscriptionID string) (*billing.SubscriptionSnapshot, error) {
	if g.api == nil {
		return nil, errors.ServiceUnavailable("Billing is not configured")
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := g.api.Subscriptions.Get(subscriptionID, params)
	if err != nil {
		return nil, errors.ProviderAPIError("Stripe", err)
	}
	return decodeSubscriptionResponse(sub)
}

// SetCancelAtPeriodEnd schedules or clears cancellation at period end
func (g *StripeGateway) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*billing.SubscriptionSnapshot, error) {
	if g.api == nil {
		return nil, errors.ServiceUnavailable("Billing is not configured")
	}

	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(cancel),
	}
	params.Context = ctx

	sub, err := g.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, errors.ProviderAPIError("Stripe", err)
	}
	return decodeSubscriptionResponse(sub)
}

func decodeSubscriptionResponse(sub *stripe.Subscription) (*billing.SubscriptionSnapshot, error) {
	if sub == nil || sub.LastResponse == nil || len(sub.LastResponse.RawJSON) == 0 {
		return nil, errors.ProviderAPIError("Stripe", fmt.Errorf("empty subscription response"))
	}
	var raw stripeSubscription
	if err := json.Unmarshal(sub.LastResponse.RawJSON, &raw); err != nil {
		return nil, errors.ProviderAPIError("Stripe", err)
	}
	return raw.snapshot(), nil
}

// CreateCheckout opens a subscription-mode Checkout Session for the premium price
func (g *StripeGateway) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	if g.api == nil || g.cfg.PriceID == "" {
		return nil, errors.ServiceUnavailable("Billing is not configured")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL:        stripe.String(g.cfg.SuccessURL),
		CancelURL:         stripe.String(g.cfg.CancelURL),
		ClientReferenceID: stripe.String(req.AccountID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(g.cfg.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"account_id": req.AccountID},
		},
		Metadata: map[string]string{"account_id": req.AccountID},
	}
	if req.CustomerID != "" {
		params.Customer = stripe.String(req.CustomerID)
	} else if req.Email != "" {
		params.CustomerEmail = stripe.String(req.Email)
	}
	params.Context = ctx

	sess, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, errors.ProviderAPIError("Stripe", err)
	}
	if sess == nil || sess.URL == "" {
		return nil, errors.ProviderAPIError("Stripe", fmt.Errorf("checkout session without URL"))
	}

	return &billing.CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}
