package notification

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
)

type Service struct {
	repo repository.NotificationRepository
}

func NewService(repo repository.NotificationRepository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]*model.Notification, error) {
	notifications, err := s.repo.ListByAccount(ctx, accountID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return notifications, nil
}

func (s *Service) MarkRead(ctx context.Context, id, accountID uuid.UUID) error {
	if err := s.repo.MarkRead(ctx, id, accountID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("notification")
		}
		return apperrors.Internal(err)
	}
	return nil
}
