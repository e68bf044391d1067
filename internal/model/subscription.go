package model

import (
	"time"

	"gorm.io/gorm"
)

// Subscription plans.
const (
	PlanFree = "FREE"
	PlanPro  = "PRO"
	PlanTeam = "TEAM"
)

// Subscription statuses, mapped down from the provider's richer vocabulary.
const (
	SubscriptionActive   = "ACTIVE"
	SubscriptionPastDue  = "PAST_DUE"
	SubscriptionCanceled = "CANCELED"
)

// Subscription is the tenant's billing state, one row per tenant, derived
// solely from the payment provider's event stream. LastEventAt records the
// provider-side creation time of the newest event applied to the row; every
// reconciler update is guarded by it so replayed or reordered events cannot
// regress state.
type Subscription struct {
	ID                     uint           `json:"id" gorm:"primaryKey"`
	TenantID               uint           `json:"tenant_id" gorm:"uniqueIndex;not null"`
	ProviderSubscriptionID string         `json:"provider_subscription_id,omitempty" gorm:"type:varchar(100);index"`
	ProviderPriceID        string         `json:"provider_price_id,omitempty" gorm:"type:varchar(100)"`
	Plan                   string         `json:"plan" gorm:"type:varchar(20);not null;default:'FREE'"`
	Status                 string         `json:"status" gorm:"type:varchar(20);not null;default:'ACTIVE'"`
	CurrentPeriodEnd       *time.Time     `json:"current_period_end,omitempty"`
	LastEventAt            time.Time      `json:"-" gorm:"not null;default:'1970-01-01 00:00:00'"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
	DeletedAt              gorm.DeletedAt `json:"-" gorm:"index"`
}
