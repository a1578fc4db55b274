package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pratik-mahalle/dialekt/internal/domain/billing"
	"github.com/pratik-mahalle/dialekt/internal/domain/chat"
	"github.com/pratik-mahalle/dialekt/internal/domain/plan"
	"github.com/pratik-mahalle/dialekt/internal/domain/profile"
	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
)

// MockProfileRepository is an in-memory profile.Repository
type MockProfileRepository struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile
}

// NewMockProfileRepository creates a new mock profile repository
func NewMockProfileRepository() *MockProfileRepository {
	return &MockProfileRepository{profiles: make(map[string]*profile.Profile)}
}

func (m *MockProfileRepository) Ensure(ctx context.Context, p *profile.Profile) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.profiles[p.ID]; ok {
		cp := *existing
		return &cp, nil
	}
	cp := *p
	m.profiles[p.ID] = &cp
	out := cp
	return &out, nil
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, errors.NotFound("Profile")
	}
	cp := *p
	return &cp, nil
}

func (m *MockProfileRepository) GetByEmail(ctx context.Context, email string) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.profiles {
		if strings.EqualFold(p.Email, email) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, errors.NotFound("Profile")
}

func (m *MockProfileRepository) SetPremium(ctx context.Context, id string, premium bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[id]
	if !ok {
		return errors.NotFound("Profile")
	}
	p.IsPremium = premium
	return nil
}

// MockSubscriptionRepository is an in-memory plan.SubscriptionRepository
type MockSubscriptionRepository struct {
	mu   sync.Mutex
	subs map[string]*plan.Subscription
	// Err, when set, is returned by every call
	Err error
}

// NewMockSubscriptionRepository creates a new mock subscription repository
func NewMockSubscriptionRepository() *MockSubscriptionRepository {
	return &MockSubscriptionRepository{subs: make(map[string]*plan.Subscription)}
}

// Put stores a row directly
func (m *MockSubscriptionRepository) Put(sub *plan.Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *sub
	m.subs[sub.AccountID] = &cp
}

func (m *MockSubscriptionRepository) FindByAccountID(ctx context.Context, accountID string) (*plan.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	s, ok := m.subs[accountID]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (m *MockSubscriptionRepository) FindByCustomerID(ctx context.Context, customerID string) (*plan.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	for _, s := range m.subs {
		if customerID != "" && s.BillingCustomerID == customerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockSubscriptionRepository) CreateIfAbsent(ctx context.Context, sub *plan.Subscription) (*plan.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if s, ok := m.subs[sub.AccountID]; ok {
		cp := *s
		return &cp, nil
	}
	cp := *sub
	m.subs[sub.AccountID] = &cp
	out := cp
	return &out, nil
}

func (m *MockSubscriptionRepository) ApplyBilling(ctx context.Context, sub *plan.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	s, ok := m.subs[sub.AccountID]
	if !ok {
		s = &plan.Subscription{AccountID: sub.AccountID, CreatedAt: time.Now()}
		m.subs[sub.AccountID] = s
	}
	s.PlanType = sub.PlanType
	s.Status = sub.Status
	s.TrialEndsAt = nil
	s.CurrentPeriodStart = sub.CurrentPeriodStart
	s.CurrentPeriodEnd = sub.CurrentPeriodEnd
	s.CancelAtPeriodEnd = sub.CancelAtPeriodEnd
	if sub.BillingCustomerID != "" {
		s.BillingCustomerID = sub.BillingCustomerID
	}
	if sub.BillingSubscriptionID != "" {
		s.BillingSubscriptionID = sub.BillingSubscriptionID
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MockSubscriptionRepository) MarkCanceled(ctx context.Context, accountID string) error {
	return m.mutate(accountID, func(s *plan.Subscription) {
		s.PlanType = plan.PlanFree
		s.Status = plan.StatusCanceled
		s.CancelAtPeriodEnd = false
	})
}

func (m *MockSubscriptionRepository) MarkPastDue(ctx context.Context, accountID string) error {
	return m.mutate(accountID, func(s *plan.Subscription) {
		s.Status = plan.StatusPastDue
	})
}

func (m *MockSubscriptionRepository) SetCancelAtPeriodEnd(ctx context.Context, accountID string, cancel bool) error {
	return m.mutate(accountID, func(s *plan.Subscription) {
		s.CancelAtPeriodEnd = cancel
	})
}

func (m *MockSubscriptionRepository) mutate(accountID string, fn func(*plan.Subscription)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	s, ok := m.subs[accountID]
	if !ok {
		return errors.NotFound("Subscription")
	}
	fn(s)
	s.UpdatedAt = time.Now()
	return nil
}

// MockUsageRepository is an in-memory plan.UsageRepository
type MockUsageRepository struct {
	mu     sync.Mutex
	counts map[string]int
}

// NewMockUsageRepository creates a new mock usage repository
func NewMockUsageRepository() *MockUsageRepository {
	return &MockUsageRepository{counts: make(map[string]int)}
}

func usageKey(accountID, day string) string {
	return accountID + "|" + day
}

func (m *MockUsageRepository) Get(ctx context.Context, accountID, day string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[usageKey(accountID, day)], nil
}

func (m *MockUsageRepository) TryIncrement(ctx context.Context, accountID, day string, limit int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := usageKey(accountID, day)
	if m.counts[key] >= limit {
		return m.counts[key], false, nil
	}
	m.counts[key]++
	return m.counts[key], true, nil
}

func (m *MockUsageRepository) PruneBefore(ctx context.Context, day string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key := range m.counts {
		if parts := strings.SplitN(key, "|", 2); len(parts) == 2 && parts[1] < day {
			delete(m.counts, key)
			n++
		}
	}
	return n, nil
}

// MockChatRepository is an in-memory chat.Repository
type MockChatRepository struct {
	mu       sync.Mutex
	sessions map[string]*chat.Session
	messages map[string][]*chat.Message
	seq      int64
}

// NewMockChatRepository creates a new mock chat repository
func NewMockChatRepository() *MockChatRepository {
	return &MockChatRepository{
		sessions: make(map[string]*chat.Session),
		messages: make(map[string][]*chat.Message),
	}
}

func (m *MockChatRepository) CreateSession(ctx context.Context, s *chat.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; ok {
		return errors.Conflict("session exists")
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MockChatRepository) GetSession(ctx context.Context, id string) (*chat.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errors.NotFound("Chat session")
	}
	cp := *s
	return &cp, nil
}

func (m *MockChatRepository) ListSessions(ctx context.Context, userID string, limit, offset int) ([]*chat.Session, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*chat.Session
	for _, s := range m.sessions {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	total := int64(len(out))
	if offset >= len(out) {
		return []*chat.Session{}, total, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], total, nil
}

func (m *MockChatRepository) TouchSession(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return errors.NotFound("Chat session")
	}
	s.UpdatedAt = at
	return nil
}

func (m *MockChatRepository) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return errors.NotFound("Chat session")
	}
	delete(m.sessions, id)
	delete(m.messages, id)
	return nil
}

func (m *MockChatRepository) AppendMessage(ctx context.Context, msg *chat.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[msg.SessionID]; !ok {
		return errors.DatabaseError("Failed to store chat message", fmt.Errorf("unknown session %s", msg.SessionID))
	}
	m.seq++
	msg.Seq = m.seq
	cp := *msg
	m.messages[msg.SessionID] = append(m.messages[msg.SessionID], &cp)
	return nil
}

func (m *MockChatRepository) RecentMessages(ctx context.Context, sessionID string, limit int) ([]*chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.messages[sessionID]
	start := 0
	if len(all) > limit {
		start = len(all) - limit
	}
	return copyMessages(all[start:]), nil
}

func (m *MockChatRepository) ListMessages(ctx context.Context, sessionID string) ([]*chat.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyMessages(m.messages[sessionID]), nil
}

// SessionCount returns the number of stored sessions
func (m *MockChatRepository) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// MessageCount returns the number of stored messages across all sessions
func (m *MockChatRepository) MessageCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, msgs := range m.messages {
		n += len(msgs)
	}
	return n
}

func copyMessages(in []*chat.Message) []*chat.Message {
	out := make([]*chat.Message, 0, len(in))
	for _, msg := range in {
		cp := *msg
		out = append(out, &cp)
	}
	return out
}

// FakeCompletion is a scripted chat.CompletionGateway
type FakeCompletion struct {
	mu    sync.Mutex
	Reply string
	// Tokens is reported as the cost of every reply
	Tokens int
	// Err, when set, is returned instead of a reply
	Err error
	// Delay is slept before replying, honouring context cancellation
	Delay time.Duration
	Calls [][]chat.PromptMessage
}

// NewFakeCompletion creates a completion gateway that always answers reply
func NewFakeCompletion(reply string) *FakeCompletion {
	return &FakeCompletion{Reply: reply, Tokens: 42}
}

func (f *FakeCompletion) Name() string { return "fake" }

func (f *FakeCompletion) Complete(ctx context.Context, messages []chat.PromptMessage) (*chat.Completion, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, append([]chat.PromptMessage(nil), messages...))
	reply, tokens, err, delay := f.Reply, f.Tokens, f.Err, f.Delay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &chat.Completion{Content: reply, TokensUsed: tokens, Model: "fake-model"}, nil
}

// SetErr changes the scripted failure
func (f *FakeCompletion) SetErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Err = err
}

// LastCall returns the most recent prompt
func (f *FakeCompletion) LastCall() []chat.PromptMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.Calls) == 0 {
		return nil
	}
	return f.Calls[len(f.Calls)-1]
}

// CallCount returns the number of Complete calls
func (f *FakeCompletion) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}

// FakeBillingGateway is an in-memory billing.Gateway
type FakeBillingGateway struct {
	mu            sync.Mutex
	Subscriptions map[string]*billing.SubscriptionSnapshot
	// Events maps a signature to the event ParseEvent returns
	Events map[string]*billing.Event
	Err    error
	Calls  []string
}

// NewFakeBillingGateway creates a new fake billing gateway
func NewFakeBillingGateway() *FakeBillingGateway {
	return &FakeBillingGateway{
		Subscriptions: make(map[string]*billing.SubscriptionSnapshot),
		Events:        make(map[string]*billing.Event),
	}
}

func (f *FakeBillingGateway) ParseEvent(payload []byte, signature string) (*billing.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ev, ok := f.Events[signature]
	if !ok {
		return nil, errors.Unauthorized("invalid webhook signature")
	}
	return ev, nil
}

func (f *FakeBillingGateway) FetchSubscription(ctx context.Context, subscriptionID string) (*billing.SubscriptionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "fetch:"+subscriptionID)
	if f.Err != nil {
		return nil, f.Err
	}
	snap, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return nil, errors.NotFound("Billing subscription")
	}
	cp := *snap
	return &cp, nil
}

func (f *FakeBillingGateway) SetCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*billing.SubscriptionSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, fmt.Sprintf("cancel_at_period_end:%s:%t", subscriptionID, cancel))
	if f.Err != nil {
		return nil, f.Err
	}
	snap, ok := f.Subscriptions[subscriptionID]
	if !ok {
		return nil, errors.NotFound("Billing subscription")
	}
	snap.CancelAtPeriodEnd = cancel
	cp := *snap
	return &cp, nil
}

func (f *FakeBillingGateway) CreateCheckout(ctx context.Context, req billing.CheckoutRequest) (*billing.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, "checkout:"+req.AccountID)
	if f.Err != nil {
		return nil, f.Err
	}
	return &billing.CheckoutSession{ID: "cs_test_" + req.AccountID, URL: "https://checkout.test/" + req.AccountID}, nil
}

// FixedClock returns a clock function that always reports t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Clock is a settable clock for tests
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock creates a clock starting at t
func NewClock(t time.Time) *Clock {
	return &Clock{now: t}
}

// Now returns the current clock time
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set moves the clock to t
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
