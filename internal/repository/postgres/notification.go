package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		return insertNotification(ctx, tx, n)
	})
}

func (r *notificationRepository) ListByAccount(ctx context.Context, accountID uuid.UUID) ([]*model.Notification, error) {
	query := `
		SELECT * FROM notifications
		WHERE account_id = $1
		ORDER BY created_at DESC
	`

	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, accountID uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND account_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, id, accountID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
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

func insertNotification(ctx context.Context, tx *sqlx.Tx, n *model.Notification) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (id, account_id, type, message, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, n.ID, n.AccountID, n.Type, n.Message, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}
