package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
)

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(base BaseRepository) repository.PrescriptionRepository {
	return &prescriptionRepository{base}
}

func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	query := `
		INSERT INTO prescriptions (
			id, number, doctor_id, patient_id, patient_name, medications,
			diagnosis, notes, status, issued_at, expires_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		p.ID,
		p.Number,
		p.DoctorID,
		p.PatientID,
		p.PatientName,
		p.Medications,
		p.Diagnosis,
		p.Notes,
		p.Status,
		p.IssuedAt,
		p.ExpiresAt,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "prescriptions_number_key") {
			return repository.ErrDuplicateNumber
		}
		return fmt.Errorf("failed to create prescription: %w", err)
	}

	return nil
}

func (r *prescriptionRepository) Get(ctx context.Context, id uuid.UUID) (*model.Prescription, error) {
	query := `
		SELECT * FROM prescriptions
		WHERE id = $1 AND deleted_at IS NULL
	`

	var p model.Prescription
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get prescription: %w", err)
	}

	return &p, nil
}

func (r *prescriptionRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT * FROM prescriptions
		WHERE doctor_id = $1 AND deleted_at IS NULL
		ORDER BY issued_at DESC
	`

	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions by doctor: %w", err)
	}

	return prescriptions, nil
}

func (r *prescriptionRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Prescription, error) {
	query := `
		SELECT * FROM prescriptions
		WHERE patient_id = $1 AND deleted_at IS NULL
		ORDER BY issued_at DESC
	`

	var prescriptions []*model.Prescription
	if err := r.db.SelectContext(ctx, &prescriptions, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list prescriptions by patient: %w", err)
	}

	return prescriptions, nil
}

func (r *prescriptionRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `
		UPDATE prescriptions
		SET status = $1, updated_at = $2
		WHERE id = $3 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update prescription status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	return nil
}
