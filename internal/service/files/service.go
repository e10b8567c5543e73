package files

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
	"github.com/pharmalink/directory-api/internal/storage"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
)

// Service resolves credential documents for authorized reviewers.
type Service struct {
	doctorRepo repository.DoctorRepository
	store      *storage.DocumentStore
}

func NewService(doctorRepo repository.DoctorRepository, store *storage.DocumentStore) *Service {
	return &Service{doctorRepo: doctorRepo, store: store}
}

// Document is a resolved credential file ready to be served.
type Document struct {
	Content  []byte
	Filename string
}

// Resolve maps (application, kind) to an on-disk document. The kind is
// checked against the closed set before anything touches the filesystem,
// and the stored path must canonicalize to a location inside the upload
// root.
func (s *Service) Resolve(ctx context.Context, profileID uuid.UUID, kind string) (*Document, error) {
	if !validKind(kind) {
		return nil, apperrors.Validation(fmt.Sprintf("invalid document kind %q", kind))
	}

	profile, err := s.doctorRepo.Get(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("credential application")
		}
		return nil, apperrors.Internal(err)
	}

	rel := profile.DocumentPath(kind)
	if rel == "" {
		return nil, apperrors.NotFound("document")
	}

	content, err := s.store.Open(rel)
	if err != nil {
		return nil, err
	}

	return &Document{
		Content:  content,
		Filename: filepath.Base(rel),
	}, nil
}

func validKind(kind string) bool {
	for _, k := range model.DocumentKinds {
		if k == kind {
			return true
		}
	}
	return false
}
