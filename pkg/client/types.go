package client

import (
	"encoding/json"
	"time"
)

// PlanStatus is the caller's resolved entitlement. Unlimited tiers report -1
// for DailyLimit and MessagesRemaining.
type PlanStatus struct {
	EffectiveTier     string     `json:"effectiveTier"`
	CanUsePremium     bool       `json:"canUsePremium"`
	CanSend           bool       `json:"canSend"`
	DailyLimit        int        `json:"dailyLimit"`
	MessagesUsed      int        `json:"messagesUsed"`
	MessagesRemaining int        `json:"messagesRemaining"`
	TrialDaysLeft     int        `json:"trialDaysLeft"`
	IsAdmin           bool       `json:"isAdmin"`
	ResetsAt          *time.Time `json:"resetsAt,omitempty"`
	CancelAtPeriodEnd bool       `json:"cancelAtPeriodEnd"`
	PeriodEndsAt      *time.Time `json:"periodEndsAt,omitempty"`
}

// Subscription is the caller's plan store row
type Subscription struct {
	PlanType           string     `json:"planType"`
	Status             string     `json:"status"`
	TrialEndsAt        *time.Time `json:"trialEndsAt,omitempty"`
	CurrentPeriodStart *time.Time `json:"currentPeriodStart,omitempty"`
	CurrentPeriodEnd   *time.Time `json:"currentPeriodEnd,omitempty"`
	CancelAtPeriodEnd  bool       `json:"cancelAtPeriodEnd"`
	SubscriptionRef    string     `json:"subscriptionRef,omitempty"`
}

// Session is a chat session
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	ChatType  string    `json:"chatType"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message is a stored chat message
type Message struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	TokensUsed int       `json:"tokensUsed,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SessionDetail is a session with its transcript
type SessionDetail struct {
	Session
	Messages []Message `json:"messages"`
}

// Plan is one entry of the plan catalogue
type Plan struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	DailyLimit  int      `json:"dailyLimit"`
	PremiumChat bool     `json:"premiumChat"`
	TrialDays   int      `json:"trialDays,omitempty"`
	Features    []string `json:"features"`
	IsCurrent   bool     `json:"isCurrent"`
}

// Profile is the caller's profile
type Profile struct {
	ID          string          `json:"id"`
	Email       string          `json:"email"`
	DisplayName string          `json:"displayName,omitempty"`
	AvatarURL   *string         `json:"avatarUrl,omitempty"`
	Role        string          `json:"role"`
	IsPremium   bool            `json:"isPremium"`
	Settings    json.RawMessage `json:"settings,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// ListOptions contains pagination options
type ListOptions struct {
	Page     int
	PageSize int
}

// Page is a page of results
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// HealthResponse represents the liveness probe
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}
