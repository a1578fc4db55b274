package providers

import (
	"testing"
	"time"

	stripewebhook "github.com/stripe/stripe-go/v82/webhook"

	"github.com/pratik-mahalle/dialekt/internal/domain/billing"
)

const testWebhookSecret = "whsec_test_secret"

func signPayload(t *testing.T, payload string) ([]byte, string) {
	t.Helper()
	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Payload, signed.Header
}

func TestStripeGateway_ParseEvent(t *testing.T) {
	gw := NewStripeGateway(StripeConfig{WebhookSecret: testWebhookSecret})

	tests := []struct {
		name  string
		event string
		check func(t *testing.T, ev *billing.Event)
	}{
		{
			name: "subscription updated with item periods",
			event: `{"id":"evt_1","object":"event","type":"customer.subscription.updated","data":{"object":{
				"id":"sub_1","object":"subscription","customer":"cus_1","status":"active","cancel_at_period_end":true,
				"metadata":{"account_id":"acct-1"},
				"items":{"data":[{"current_period_start":1741600000,"current_period_end":1744278400}]}}}}`,
			check: func(t *testing.T, ev *billing.Event) {
				if ev.Type != billing.EventSubscriptionUpdated {
					t.Fatalf("Type = %s", ev.Type)
				}
				s := ev.Subscription
				if s == nil || s.ID != "sub_1" || s.CustomerID != "cus_1" || s.Status != "active" || !s.CancelAtPeriodEnd {
					t.Fatalf("Subscription = %+v", s)
				}
				if s.CurrentPeriodEnd.Unix() != 1744278400 || s.CurrentPeriodStart.Unix() != 1741600000 {
					t.Errorf("period = %s..%s", s.CurrentPeriodStart, s.CurrentPeriodEnd)
				}
				if ev.AccountID != "acct-1" {
					t.Errorf("AccountID = %s", ev.AccountID)
				}
			},
		},
		{
			name: "subscription deleted with top-level periods",
			event: `{"id":"evt_2","object":"event","type":"customer.subscription.deleted","data":{"object":{
				"id":"sub_2","customer":{"id":"cus_2","object":"customer"},"status":"canceled",
				"current_period_start":1741600000,"current_period_end":1744278400}}}`,
			check: func(t *testing.T, ev *billing.Event) {
				if ev.Type != billing.EventSubscriptionDeleted {
					t.Fatalf("Type = %s", ev.Type)
				}
				if ev.CustomerID != "cus_2" {
					t.Errorf("CustomerID = %s, want expanded id cus_2", ev.CustomerID)
				}
				if ev.Subscription.CurrentPeriodEnd.Unix() != 1744278400 {
					t.Errorf("CurrentPeriodEnd = %s", ev.Subscription.CurrentPeriodEnd)
				}
			},
		},
		{
			name: "invoice paid with parent subscription details",
			event: `{"id":"evt_3","object":"event","type":"invoice.paid","data":{"object":{
				"id":"in_1","customer":"cus_3","customer_email":"anna@example.com",
				"parent":{"subscription_details":{"subscription":"sub_3","metadata":{"account_id":"acct-3"}}}}}}`,
			check: func(t *testing.T, ev *billing.Event) {
				if ev.Type != billing.EventPaymentSucceeded {
					t.Fatalf("Type = %s", ev.Type)
				}
				if ev.SubscriptionID != "sub_3" || ev.CustomerEmail != "anna@example.com" || ev.AccountID != "acct-3" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
		{
			name: "invoice payment failed",
			event: `{"id":"evt_4","object":"event","type":"invoice.payment_failed","data":{"object":{
				"id":"in_2","customer":"cus_4","subscription":"sub_4"}}}`,
			check: func(t *testing.T, ev *billing.Event) {
				if ev.Type != billing.EventPaymentFailed || ev.SubscriptionID != "sub_4" || ev.CustomerID != "cus_4" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
		{
			name: "checkout completed",
			event: `{"id":"evt_5","object":"event","type":"checkout.session.completed","data":{"object":{
				"id":"cs_1","mode":"subscription","customer":"cus_5","subscription":"sub_5",
				"client_reference_id":"acct-5","customer_details":{"email":"b@example.com"}}}}`,
			check: func(t *testing.T, ev *billing.Event) {
				if ev.Type != billing.EventCheckoutCompleted {
					t.Fatalf("Type = %s", ev.Type)
				}
				if ev.AccountID != "acct-5" || ev.SubscriptionID != "sub_5" || ev.CustomerEmail != "b@example.com" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
		{
			name:  "unrelated event is ignored",
			event: `{"id":"evt_6","object":"event","type":"customer.created","data":{"object":{"id":"cus_6"}}}`,
			check: func(t *testing.T, ev *billing.Event) {
				if ev.Type != billing.EventIgnored || ev.ProviderType != "customer.created" {
					t.Errorf("event = %+v", ev)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, header := signPayload(t, tt.event)
			ev, err := gw.ParseEvent(payload, header)
			if err != nil {
				t.Fatalf("ParseEvent() error = %v", err)
			}
			tt.check(t, ev)
		})
	}
}

func TestStripeGateway_ParseEventRejectsBadSignature(t *testing.T) {
	gw := NewStripeGateway(StripeConfig{WebhookSecret: testWebhookSecret})
	payload, _ := signPayload(t, `{"id":"evt_1","object":"event","type":"invoice.paid","data":{"object":{}}}`)

	if _, err := gw.ParseEvent(payload, "t=1,v1=deadbeef"); err == nil {
		t.Error("ParseEvent() accepted a forged signature")
	}

	unconfigured := NewStripeGateway(StripeConfig{})
	if _, err := unconfigured.ParseEvent(payload, "t=1,v1=deadbeef"); err == nil {
		t.Error("ParseEvent() without webhook secret returned no error")
	}
}
