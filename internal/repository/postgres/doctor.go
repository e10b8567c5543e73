package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(base BaseRepository) repository.DoctorRepository {
	return &doctorRepository{base}
}

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.DoctorProfile, error) {
	query := `
		SELECT * FROM doctor_profiles
		WHERE id = $1 AND deleted_at IS NULL
	`

	var profile model.DoctorProfile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get doctor profile: %w", err)
	}

	return &profile, nil
}

func (r *doctorRepository) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*model.DoctorProfile, error) {
	query := `
		SELECT * FROM doctor_profiles
		WHERE account_id = $1 AND deleted_at IS NULL
	`

	var profile model.DoctorProfile
	if err := r.db.GetContext(ctx, &profile, query, accountID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get doctor profile by account: %w", err)
	}

	return &profile, nil
}

func (r *doctorRepository) ListByStatus(ctx context.Context, status model.CredentialStatus) ([]*model.DoctorProfile, error) {
	query := `
		SELECT * FROM doctor_profiles
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC
	`

	var profiles []*model.DoctorProfile
	if err := r.db.SelectContext(ctx, &profiles, query, status); err != nil {
		return nil, fmt.Errorf("failed to list doctor profiles: %w", err)
	}

	return profiles, nil
}

func (r *doctorRepository) ListAll(ctx context.Context) ([]*model.DoctorProfile, error) {
	query := `
		SELECT * FROM doctor_profiles
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	var profiles []*model.DoctorProfile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("failed to list doctor profiles: %w", err)
	}

	return profiles, nil
}

func (r *doctorRepository) CreateWithAccount(ctx context.Context, account *model.Account, profile *model.DoctorProfile) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()
		if account.ID == uuid.Nil {
			account.ID = uuid.New()
		}
		account.CreatedAt = now
		account.UpdatedAt = now

		err := tx.QueryRowContext(ctx, `
			INSERT INTO accounts (
				id, email, password_hash, name, first_name, last_name,
				phone, role, doctor_status, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			RETURNING patient_number
		`,
			account.ID,
			account.Email,
			account.PasswordHash,
			account.Name,
			account.FirstName,
			account.LastName,
			account.Phone,
			account.Role,
			account.DoctorStatus,
			account.CreatedAt,
			account.UpdatedAt,
		).Scan(&account.PatientNumber)
		if err != nil {
			if isUniqueViolation(err, "") {
				return repository.ErrDuplicateEmail
			}
			return fmt.Errorf("failed to create account: %w", err)
		}

		profile.ID = uuid.New()
		profile.AccountID = account.ID
		profile.CreatedAt = now
		profile.UpdatedAt = now

		if err := insertProfile(ctx, tx, profile); err != nil {
			return err
		}
		return nil
	})
}

func (r *doctorRepository) UpsertForAccount(ctx context.Context, profile *model.DoctorProfile) (*model.DoctorProfile, error) {
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		now := time.Now()

		var existing model.DoctorProfile
		err := tx.GetContext(ctx, &existing, `
			SELECT * FROM doctor_profiles
			WHERE account_id = $1 AND deleted_at IS NULL
			FOR UPDATE
		`, profile.AccountID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			profile.ID = uuid.New()
			profile.Status = model.CredentialPending
			profile.CreatedAt = now
			profile.UpdatedAt = now
			if err := insertProfile(ctx, tx, profile); err != nil {
				return err
			}
		case err != nil:
			return fmt.Errorf("failed to load doctor profile: %w", err)
		default:
			if !existing.Status.CanTransition(model.CredentialPending) {
				return repository.ErrInvalidTransition
			}
			profile.ID = existing.ID
			profile.Status = model.CredentialPending
			profile.CreatedAt = existing.CreatedAt
			profile.UpdatedAt = now
			// resubmission clears prior review metadata
			_, err := tx.ExecContext(ctx, `
				UPDATE doctor_profiles SET
					first_name = $1, last_name = $2, specialization = $3,
					license_number = $4, phone = $5, address = $6, bio = $7,
					education = $8, experience = $9, status = $10,
					rejection_reason = NULL, reviewed_by = NULL,
					reviewed_at = NULL, review_channel = NULL,
					updated_at = $11
				WHERE id = $12
			`,
				profile.FirstName, profile.LastName, profile.Specialization,
				profile.LicenseNumber, profile.Phone, profile.Address, profile.Bio,
				profile.Education, profile.Experience, profile.Status,
				profile.UpdatedAt, profile.ID,
			)
			if err != nil {
				return fmt.Errorf("failed to update doctor profile: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE accounts SET doctor_status = $1, updated_at = $2
			WHERE id = $3 AND deleted_at IS NULL
		`, string(model.CredentialPending), now, profile.AccountID); err != nil {
			return fmt.Errorf("failed to update account mirror: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByAccountID(ctx, profile.AccountID)
}

// ApplyDecision executes one review outcome atomically. The row is locked
// and the transition re-checked inside the transaction, so a second
// reviewer racing on the same application gets ErrInvalidTransition instead
// of a silent last-write-wins.
func (r *doctorRepository) ApplyDecision(ctx context.Context, d *repository.ReviewDecision) (*model.DoctorProfile, error) {
	var updated model.DoctorProfile

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var current model.DoctorProfile
		err := tx.GetContext(ctx, &current, `
			SELECT * FROM doctor_profiles
			WHERE id = $1 AND deleted_at IS NULL
			FOR UPDATE
		`, d.ProfileID)
		if errors.Is(err, sql.ErrNoRows) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load doctor profile: %w", err)
		}

		if !current.Status.CanTransition(d.NewStatus) {
			return repository.ErrInvalidTransition
		}

		now := time.Now()
		channel := string(d.Channel)
		err = tx.GetContext(ctx, &updated, `
			UPDATE doctor_profiles SET
				status = $1,
				rejection_reason = $2,
				reviewed_by = $3,
				reviewed_at = $4,
				review_channel = $5,
				updated_at = $4
			WHERE id = $6
			RETURNING *
		`, d.NewStatus, d.Reason, d.ReviewerID, now, channel, d.ProfileID)
		if err != nil {
			return fmt.Errorf("failed to update doctor profile: %w", err)
		}

		if d.AccountRole != nil {
			_, err = tx.ExecContext(ctx, `
				UPDATE accounts SET role = $1, doctor_status = $2, updated_at = $3
				WHERE id = $4 AND deleted_at IS NULL
			`, *d.AccountRole, d.MirrorStatus, now, current.AccountID)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE accounts SET doctor_status = $1, updated_at = $2
				WHERE id = $3 AND deleted_at IS NULL
			`, d.MirrorStatus, now, current.AccountID)
		}
		if err != nil {
			return fmt.Errorf("failed to update account mirror: %w", err)
		}

		if d.Notification != nil {
			d.Notification.ID = uuid.New()
			d.Notification.AccountID = current.AccountID
			d.Notification.CreatedAt = now
			if err := insertNotification(ctx, tx, d.Notification); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func insertProfile(ctx context.Context, tx *sqlx.Tx, profile *model.DoctorProfile) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO doctor_profiles (
			id, account_id, first_name, last_name, specialization,
			license_number, phone, address, bio, education, experience,
			status, documents, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		profile.ID,
		profile.AccountID,
		profile.FirstName,
		profile.LastName,
		profile.Specialization,
		profile.LicenseNumber,
		profile.Phone,
		profile.Address,
		profile.Bio,
		profile.Education,
		profile.Experience,
		profile.Status,
		profile.Documents,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert doctor profile: %w", err)
	}
	return nil
}
