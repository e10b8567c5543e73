package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification types
const (
	NotificationCredentialApproved = "credential_approved"
	NotificationCredentialRejected = "credential_rejected"
	NotificationCredentialRemoved  = "credential_removed"
)

// Notification is an inbox entry the client polls. Review decisions insert
// one in the same transaction as the status change.
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	AccountID uuid.UUID `json:"account_id" db:"account_id"`
	Type      string    `json:"type" db:"type"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
