package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
)

type pharmacyRepository struct {
	BaseRepository
}

func NewPharmacyRepository(base BaseRepository) repository.PharmacyRepository {
	return &pharmacyRepository{base}
}

func (r *pharmacyRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error) {
	query := `
		SELECT * FROM pharmacies
		WHERE id = $1 AND deleted_at IS NULL
	`

	var pharmacy model.Pharmacy
	if err := r.db.GetContext(ctx, &pharmacy, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get pharmacy: %w", err)
	}

	return &pharmacy, nil
}
