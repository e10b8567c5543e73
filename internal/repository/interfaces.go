package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/directory-api/internal/model"
)

// Sentinel errors surfaced by repositories. Services translate these into
// the API error taxonomy.
var (
	ErrNotFound          = errors.New("record not found")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateNumber   = errors.New("prescription number already exists")
	ErrInvalidTransition = errors.New("status transition not permitted")
)

// ReviewDecision is one atomic credential review outcome. The repository
// applies the profile update, the account mirror/role writes and the
// notification insert in a single transaction, re-checking the current
// status against the transition table first.
type ReviewDecision struct {
	ProfileID    uuid.UUID
	NewStatus    model.CredentialStatus
	ReviewerID   uuid.UUID
	Channel      model.ReviewChannel
	Reason       *string
	AccountRole  *string // optional role change on the owning account
	MirrorStatus string  // written to accounts.doctor_status
	Notification *model.Notification
}

type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Get(ctx context.Context, id uuid.UUID) (*model.Account, error)
	GetByEmail(ctx context.Context, email string) (*model.Account, error)
	GetByPatientNumber(ctx context.Context, patientNumber int64) (*model.Account, error)
	Update(ctx context.Context, account *model.Account) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type DoctorRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.DoctorProfile, error)
	GetByAccountID(ctx context.Context, accountID uuid.UUID) (*model.DoctorProfile, error)
	ListByStatus(ctx context.Context, status model.CredentialStatus) ([]*model.DoctorProfile, error)
	ListAll(ctx context.Context) ([]*model.DoctorProfile, error)

	// CreateWithAccount inserts the account and its credential application
	// in one transaction (public apply-as-doctor path).
	CreateWithAccount(ctx context.Context, account *model.Account, profile *model.DoctorProfile) error

	// UpsertForAccount creates or overwrites the application for an existing
	// doctor account, forcing status back to pending, clearing review
	// metadata and setting the account mirror, all in one transaction.
	UpsertForAccount(ctx context.Context, profile *model.DoctorProfile) (*model.DoctorProfile, error)

	// ApplyDecision executes a review decision atomically. Returns
	// ErrNotFound if the profile does not exist and ErrInvalidTransition if
	// the current status does not permit the requested one.
	ApplyDecision(ctx context.Context, decision *ReviewDecision) (*model.DoctorProfile, error)
}

type PrescriptionRepository interface {
	Create(ctx context.Context, p *model.Prescription) error
	Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Prescription, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*model.Notification, error)
	MarkRead(ctx context.Context, id, accountID uuid.UUID) error
}

type PharmacyRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error)
}

// TokenRepository tracks revoked bearer tokens (Redis-backed).
type TokenRepository interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}
