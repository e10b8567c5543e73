package doctor

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/pharmalink/directory-api/internal/email"
	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
	"github.com/pharmalink/directory-api/internal/storage"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/metrics"
	"github.com/pharmalink/directory-api/pkg/security"
)

const defaultRejectionReason = "application did not meet the review requirements"

type Service struct {
	doctorRepo  repository.DoctorRepository
	accountRepo repository.AccountRepository
	store       *storage.DocumentStore
	hasher      security.PasswordHasher
	emailSvc    email.Service
	metrics     *metrics.Metrics
}

func NewService(doctorRepo repository.DoctorRepository, accountRepo repository.AccountRepository,
	store *storage.DocumentStore, hasher security.PasswordHasher, emailSvc email.Service,
	m *metrics.Metrics) *Service {
	return &Service{
		doctorRepo:  doctorRepo,
		accountRepo: accountRepo,
		store:       store,
		hasher:      hasher,
		emailSvc:    emailSvc,
		metrics:     m,
	}
}

// SubmitProfile creates or resubmits the caller's credential application.
// A resubmission overwrites the mutable fields, forces the status back to
// pending and clears prior review metadata.
func (s *Service) SubmitProfile(ctx context.Context, account *model.Account, req *model.DoctorProfileRequest) (*model.DoctorProfile, error) {
	if account.Role != model.RoleDoctor {
		return nil, apperrors.PermissionDenied("only doctor accounts can submit a credential application")
	}

	profile := &model.DoctorProfile{
		AccountID:      account.ID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Specialization: req.Specialization,
		LicenseNumber:  req.LicenseNumber,
		Phone:          req.Phone,
		Address:        req.Address,
		Bio:            req.Bio,
		Education:      req.Education,
		Experience:     req.Experience,
	}

	updated, err := s.doctorRepo.UpsertForAccount(ctx, profile)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidTransition) {
			return nil, apperrors.StateConflict("application has already been processed and cannot be resubmitted")
		}
		return nil, apperrors.Internal(err)
	}
	return updated, nil
}

// Apply is the public, unauthenticated entry point: it creates the doctor
// account, stores the three credential documents and creates the pending
// application. Nothing is persisted unless every required part is present.
func (s *Service) Apply(ctx context.Context, req *model.DoctorApplication, files map[string]*multipart.FileHeader) (*model.Account, *model.DoctorProfile, error) {
	for _, kind := range model.DocumentKinds {
		if files[kind] == nil {
			return nil, nil, apperrors.Validation(fmt.Sprintf("missing required document: %s", kind))
		}
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, nil, apperrors.Validation(err.Error())
	}

	firstName, lastName := splitName(req.Name)
	pending := string(model.CredentialPending)
	account := &model.Account{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Name:         req.Name,
		FirstName:    &firstName,
		LastName:     &lastName,
		Phone:        &req.Phone,
		Role:         model.RoleDoctor,
		DoctorStatus: &pending,
	}
	account.ID = uuid.New()

	paths, err := s.store.SaveAll(account.ID, files)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}

	profile := &model.DoctorProfile{
		AccountID:      account.ID,
		FirstName:      firstName,
		LastName:       lastName,
		Specialization: req.Specialization,
		LicenseNumber:  req.LicenseNumber,
		Phone:          req.Phone,
		Address:        req.Address,
		Bio:            req.Bio,
		Status:         model.CredentialPending,
		Documents:      paths,
	}

	if err := s.doctorRepo.CreateWithAccount(ctx, account, profile); err != nil {
		if cleanupErr := s.store.RemoveAccountDir(account.ID); cleanupErr != nil {
			log.Warn().Err(cleanupErr).Str("account_id", account.ID.String()).
				Msg("failed to clean up documents after aborted application")
		}
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, nil, apperrors.Conflict("email already registered")
		}
		return nil, nil, apperrors.Internal(err)
	}

	if err := s.emailSvc.SendWelcome(ctx, account.Email, account.Name); err != nil {
		log.Warn().Err(err).Str("email", account.Email).Msg("failed to send welcome email")
	}

	return account, profile, nil
}

// Approve moves a pending application to approved. The admin channel also
// promotes the account to role doctor; the ministry and health-authority
// channels review accounts that are doctors by construction.
func (s *Service) Approve(ctx context.Context, profileID, reviewerID uuid.UUID, channel model.ReviewChannel) (*model.DoctorProfile, error) {
	decision := &repository.ReviewDecision{
		ProfileID:    profileID,
		NewStatus:    model.CredentialApproved,
		ReviewerID:   reviewerID,
		Channel:      channel,
		MirrorStatus: string(model.CredentialApproved),
		Notification: &model.Notification{
			Type:    model.NotificationCredentialApproved,
			Message: "Your credential application has been approved.",
		},
	}
	if channel == model.ChannelAdmin {
		role := model.RoleDoctor
		decision.AccountRole = &role
	}

	profile, err := s.applyDecision(ctx, decision, "approved", "")
	if err != nil {
		return nil, err
	}
	return profile, nil
}

// Reject moves a pending application to rejected. The admin channel reverts
// the account to a plain user.
func (s *Service) Reject(ctx context.Context, profileID, reviewerID uuid.UUID, reason string, channel model.ReviewChannel) (*model.DoctorProfile, error) {
	if reason == "" {
		reason = defaultRejectionReason
	}

	decision := &repository.ReviewDecision{
		ProfileID:    profileID,
		NewStatus:    model.CredentialRejected,
		ReviewerID:   reviewerID,
		Channel:      channel,
		Reason:       &reason,
		MirrorStatus: string(model.CredentialRejected),
		Notification: &model.Notification{
			Type:    model.NotificationCredentialRejected,
			Message: fmt.Sprintf("Your credential application was rejected: %s", reason),
		},
	}
	if channel == model.ChannelAdmin {
		role := model.RoleUser
		decision.AccountRole = &role
	}

	return s.applyDecision(ctx, decision, "rejected", reason)
}

// Remove permanently retires an application that has already been approved
// or rejected. A pending application cannot be removed, only rejected.
func (s *Service) Remove(ctx context.Context, profileID, reviewerID uuid.UUID, reason string) (*model.DoctorProfile, error) {
	if !model.ValidRemovalReason(reason) {
		return nil, apperrors.Validation(fmt.Sprintf("invalid removal reason %q", reason))
	}

	decision := &repository.ReviewDecision{
		ProfileID:    profileID,
		NewStatus:    model.CredentialRemoved,
		ReviewerID:   reviewerID,
		Channel:      model.ChannelHealthAuthority,
		Reason:       &reason,
		MirrorStatus: string(model.CredentialRemoved),
		Notification: &model.Notification{
			Type:    model.NotificationCredentialRemoved,
			Message: fmt.Sprintf("Your registration has been removed: %s", reason),
		},
	}

	return s.applyDecision(ctx, decision, "removed", reason)
}

func (s *Service) applyDecision(ctx context.Context, decision *repository.ReviewDecision, outcome, reason string) (*model.DoctorProfile, error) {
	profile, err := s.doctorRepo.ApplyDecision(ctx, decision)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFound("credential application")
		case errors.Is(err, repository.ErrInvalidTransition):
			return nil, apperrors.StateConflict("application already processed")
		default:
			return nil, apperrors.Internal(err)
		}
	}

	if s.metrics != nil {
		s.metrics.ReviewDecisions.WithLabelValues(string(decision.Channel), outcome).Inc()
	}

	s.notifyByEmail(ctx, profile, outcome, reason)
	return profile, nil
}

func (s *Service) notifyByEmail(ctx context.Context, profile *model.DoctorProfile, decision, reason string) {
	account, err := s.accountRepo.Get(ctx, profile.AccountID)
	if err != nil {
		log.Warn().Err(err).Str("account_id", profile.AccountID.String()).
			Msg("failed to load account for decision email")
		return
	}
	if err := s.emailSvc.SendCredentialDecision(ctx, account.Email, account.DisplayName(), decision, reason); err != nil {
		log.Warn().Err(err).Str("email", account.Email).Msg("failed to send decision email")
	}
}

// GetStatus returns the caller's own credential application.
func (s *Service) GetStatus(ctx context.Context, accountID uuid.UUID) (*model.DoctorProfile, error) {
	profile, err := s.doctorRepo.GetByAccountID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("credential application")
		}
		return nil, apperrors.Internal(err)
	}
	return profile, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*model.DoctorProfile, error) {
	profile, err := s.doctorRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("credential application")
		}
		return nil, apperrors.Internal(err)
	}
	return profile, nil
}

func (s *Service) ListPending(ctx context.Context) ([]*model.DoctorProfile, error) {
	profiles, err := s.doctorRepo.ListByStatus(ctx, model.CredentialPending)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return profiles, nil
}

func (s *Service) ListAll(ctx context.Context) ([]*model.DoctorProfile, error) {
	profiles, err := s.doctorRepo.ListAll(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return profiles, nil
}

// splitName derives first and last name from a free-form display name.
// Single-token names are duplicated into both fields.
func splitName(name string) (string, string) {
	parts := strings.Fields(strings.TrimSpace(name))
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], parts[0]
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
