package model

import "time"

// Pharmacy statuses
const (
	PharmacyActive    = "active"
	PharmacySuspended = "suspended"
)

// Pharmacy is the directory record attached to pharmacy-role requests so
// downstream handlers can check subscription state without another query.
// Subscription lifecycle itself is driven by the payment provider.
type Pharmacy struct {
	Base
	Name                  string     `json:"name" db:"name"`
	Address               string     `json:"address" db:"address"`
	Phone                 string     `json:"phone" db:"phone"`
	Status                string     `json:"status" db:"status"`
	SubscriptionTier      *string    `json:"subscription_tier,omitempty" db:"subscription_tier"`
	SubscriptionExpiresAt *time.Time `json:"subscription_expires_at,omitempty" db:"subscription_expires_at"`
}
