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

type accountRepository struct {
	BaseRepository
}

func NewAccountRepository(base BaseRepository) repository.AccountRepository {
	return &accountRepository{base}
}

func (r *accountRepository) Create(ctx context.Context, account *model.Account) error {
	query := `
		INSERT INTO accounts (
			id, email, password_hash, name, first_name, last_name,
			phone, role, doctor_status, pharmacy_id, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING patient_number
	`

	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()

	err := r.db.QueryRowContext(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.FirstName,
		account.LastName,
		account.Phone,
		account.Role,
		account.DoctorStatus,
		account.PharmacyID,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.PatientNumber)
	if err != nil {
		if isUniqueViolation(err, "") {
			return repository.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	query := `
		SELECT * FROM accounts
		WHERE id = $1 AND deleted_at IS NULL
	`

	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	query := `
		SELECT * FROM accounts
		WHERE email = $1 AND deleted_at IS NULL
	`

	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) GetByPatientNumber(ctx context.Context, patientNumber int64) (*model.Account, error) {
	query := `
		SELECT * FROM accounts
		WHERE patient_number = $1 AND deleted_at IS NULL
	`

	var account model.Account
	if err := r.db.GetContext(ctx, &account, query, patientNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by patient number: %w", err)
	}

	return &account, nil
}

func (r *accountRepository) Update(ctx context.Context, account *model.Account) error {
	query := `
		UPDATE accounts SET
			email = $1,
			password_hash = $2,
			name = $3,
			first_name = $4,
			last_name = $5,
			phone = $6,
			role = $7,
			doctor_status = $8,
			updated_at = $9
		WHERE id = $10 AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query,
		account.Email,
		account.PasswordHash,
		account.Name,
		account.FirstName,
		account.LastName,
		account.Phone,
		account.Role,
		account.DoctorStatus,
		time.Now(),
		account.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
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

// Delete soft-deletes the account and its dependent records. Only the
// explicit admin path reaches this.
func (r *accountRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE accounts SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
		if err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrNotFound
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE doctor_profiles SET deleted_at = NOW() WHERE account_id = $1 AND deleted_at IS NULL`, id); err != nil {
			return fmt.Errorf("failed to delete doctor profile: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM notifications WHERE account_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete notifications: %w", err)
		}
		return nil
	})
}
