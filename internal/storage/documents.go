package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/security"
)

// DocumentStore persists uploaded credential documents under a per-account
// directory below a single upload root. When an encryptor is configured the
// files are encrypted at rest and only readable through Open.
type DocumentStore struct {
	root      string
	encryptor security.Encryptor
}

func NewDocumentStore(root string, encryptor security.Encryptor) (*DocumentStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve upload root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root: %w", err)
	}
	return &DocumentStore{root: abs, encryptor: encryptor}, nil
}

func (s *DocumentStore) Root() string {
	return s.root
}

// SaveAll stores one file per document kind and returns kind -> relative
// path. Filenames keep the original base name so downloads can preserve it.
func (s *DocumentStore) SaveAll(accountID uuid.UUID, files map[string]*multipart.FileHeader) (map[string]string, error) {
	dir := filepath.Join(s.root, accountID.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create account directory: %w", err)
	}

	paths := make(map[string]string, len(files))
	for kind, header := range files {
		name := sanitizeFilename(header.Filename)
		rel := filepath.Join(accountID.String(), kind+"_"+name)
		if err := s.save(header, filepath.Join(s.root, rel)); err != nil {
			return nil, err
		}
		paths[kind] = rel
	}
	return paths, nil
}

func (s *DocumentStore) save(header *multipart.FileHeader, dst string) error {
	src, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return fmt.Errorf("failed to read uploaded file: %w", err)
	}

	if s.encryptor != nil {
		if data, err = s.encryptor.Encrypt(data); err != nil {
			return fmt.Errorf("failed to encrypt document: %w", err)
		}
	}

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document file: %w", err)
	}
	return nil
}

// Open reads a stored document back, decrypting it when at-rest encryption
// is configured. The relative path goes through the same containment check
// as Resolve.
func (s *DocumentStore) Open(relPath string) ([]byte, error) {
	abs, err := s.Resolve(relPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if s.encryptor != nil {
		if data, err = s.encryptor.Decrypt(data); err != nil {
			return nil, apperrors.Internal(err)
		}
	}
	return data, nil
}

// Resolve turns a stored relative path into an absolute one, verifying the
// canonicalized result still lies inside the upload root. A path escaping
// the root fails FORBIDDEN; a path entry whose file is gone fails NOT_FOUND.
func (s *DocumentStore) Resolve(relPath string) (string, error) {
	abs, err := filepath.Abs(filepath.Join(s.root, relPath))
	if err != nil {
		return "", apperrors.Forbidden("invalid document path")
	}

	rel, err := filepath.Rel(s.root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", apperrors.Forbidden("document path escapes upload root")
	}

	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return "", apperrors.NotFound("document file")
		}
		return "", apperrors.Internal(err)
	}
	return abs, nil
}

// RemoveAccountDir deletes an account's document directory. Used to roll
// back file writes when the accompanying database transaction fails.
func (s *DocumentStore) RemoveAccountDir(accountID uuid.UUID) error {
	return os.RemoveAll(filepath.Join(s.root, accountID.String()))
}

func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	base = strings.ReplaceAll(base, "..", "")
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "document"
	}
	return base
}
