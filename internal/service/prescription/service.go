package prescription

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/metrics"
)

const maxNumberAttempts = 10

type Service struct {
	prescriptionRepo repository.PrescriptionRepository
	accountRepo      repository.AccountRepository
	metrics          *metrics.Metrics

	// randomNumber returns a value in [0, 1000000); overridable in tests
	randomNumber func() int
}

func NewService(prescriptionRepo repository.PrescriptionRepository,
	accountRepo repository.AccountRepository, m *metrics.Metrics) *Service {
	return &Service{
		prescriptionRepo: prescriptionRepo,
		accountRepo:      accountRepo,
		metrics:          m,
		randomNumber:     func() int { return rand.Intn(1000000) },
	}
}

// Create issues a prescription. The caller must be an approved doctor, the
// patient is resolved by their public patient number, and the asserted
// patient name must match the registered one (trimmed, case-insensitive) —
// the doctor has to independently know who they are prescribing for. The
// persisted record carries the registered name, never the asserted one.
func (s *Service) Create(ctx context.Context, doctor *model.Account, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	if !isApprovedDoctor(doctor) {
		return nil, apperrors.PermissionDenied("only approved doctors can issue prescriptions")
	}

	patient, err := s.accountRepo.GetByPatientNumber(ctx, req.PatientNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Internal(err)
	}

	registered := patient.DisplayName()
	asserted := strings.TrimSpace(req.PatientName)
	if !strings.EqualFold(asserted, strings.TrimSpace(registered)) {
		return nil, apperrors.Validation(fmt.Sprintf(
			"patient name mismatch: asserted %q, registered %q", asserted, registered))
	}

	if len(req.Medications) == 0 {
		return nil, apperrors.Validation("at least one medication is required")
	}

	p := &model.Prescription{
		DoctorID:    doctor.ID,
		PatientID:   patient.ID,
		PatientName: registered,
		Medications: req.Medications,
		Diagnosis:   req.Diagnosis,
		Notes:       req.Notes,
		Status:      model.PrescriptionActive,
		IssuedAt:    time.Now(),
		ExpiresAt:   req.ExpiresAt,
	}

	// Random 6-digit numbers have no sequence fallback; collisions are
	// retried a bounded number of times and then surfaced.
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		p.Number = fmt.Sprintf("RX-%06d", s.randomNumber())
		err := s.prescriptionRepo.Create(ctx, p)
		if err == nil {
			if s.metrics != nil {
				s.metrics.PrescriptionsIssued.Inc()
			}
			return p, nil
		}
		if !errors.Is(err, repository.ErrDuplicateNumber) {
			return nil, apperrors.Internal(err)
		}
	}

	return nil, apperrors.Internal(fmt.Errorf("exhausted %d attempts to generate a unique prescription number", maxNumberAttempts))
}

// LookupPatient resolves a patient by public number for the issuance form.
func (s *Service) LookupPatient(ctx context.Context, doctor *model.Account, patientNumber int64) (*model.Account, error) {
	if !isApprovedDoctor(doctor) {
		return nil, apperrors.PermissionDenied("only approved doctors can look up patients")
	}

	patient, err := s.accountRepo.GetByPatientNumber(ctx, patientNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient")
		}
		return nil, apperrors.Internal(err)
	}
	return patient, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Prescription, error) {
	prescriptions, err := s.prescriptionRepo.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return prescriptions, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	prescriptions, err := s.prescriptionRepo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return prescriptions, nil
}

// Get returns a prescription to its issuing doctor or receiving patient only.
func (s *Service) Get(ctx context.Context, id, callerID uuid.UUID) (*model.Prescription, error) {
	p, err := s.prescriptionRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription")
		}
		return nil, apperrors.Internal(err)
	}

	if p.DoctorID != callerID && p.PatientID != callerID {
		return nil, apperrors.PermissionDenied("not a party to this prescription")
	}
	return p, nil
}

// UpdateStatus sets the prescription status. Only the issuing doctor may
// call this. Transitions between the three statuses are deliberately not
// restricted; only enum membership is enforced.
func (s *Service) UpdateStatus(ctx context.Context, id, callerID uuid.UUID, status string) (*model.Prescription, error) {
	if !model.ValidPrescriptionStatus(status) {
		return nil, apperrors.Validation(fmt.Sprintf("invalid prescription status %q", status))
	}

	p, err := s.prescriptionRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription")
		}
		return nil, apperrors.Internal(err)
	}

	if p.DoctorID != callerID {
		return nil, apperrors.PermissionDenied("only the issuing doctor can update the status")
	}

	if err := s.prescriptionRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperrors.Internal(err)
	}

	p.Status = status
	return p, nil
}

func isApprovedDoctor(account *model.Account) bool {
	return account.Role == model.RoleDoctor &&
		account.DoctorStatus != nil &&
		*account.DoctorStatus == string(model.CredentialApproved)
}
