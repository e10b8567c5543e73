package files

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
	"github.com/pharmalink/directory-api/internal/storage"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
)

type fakeDoctorRepo struct {
	t        *testing.T
	profiles map[uuid.UUID]*model.DoctorProfile
	calls    int
}

func (r *fakeDoctorRepo) Get(ctx context.Context, id uuid.UUID) (*model.DoctorProfile, error) {
	r.calls++
	if p, ok := r.profiles[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDoctorRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*model.DoctorProfile, error) {
	r.t.Fatal("unexpected GetByAccountID call")
	return nil, nil
}

func (r *fakeDoctorRepo) ListByStatus(ctx context.Context, status model.CredentialStatus) ([]*model.DoctorProfile, error) {
	r.t.Fatal("unexpected ListByStatus call")
	return nil, nil
}

func (r *fakeDoctorRepo) ListAll(ctx context.Context) ([]*model.DoctorProfile, error) {
	r.t.Fatal("unexpected ListAll call")
	return nil, nil
}

func (r *fakeDoctorRepo) CreateWithAccount(ctx context.Context, account *model.Account, profile *model.DoctorProfile) error {
	r.t.Fatal("unexpected CreateWithAccount call")
	return nil
}

func (r *fakeDoctorRepo) UpsertForAccount(ctx context.Context, profile *model.DoctorProfile) (*model.DoctorProfile, error) {
	r.t.Fatal("unexpected UpsertForAccount call")
	return nil, nil
}

func (r *fakeDoctorRepo) ApplyDecision(ctx context.Context, decision *repository.ReviewDecision) (*model.DoctorProfile, error) {
	r.t.Fatal("unexpected ApplyDecision call")
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *fakeDoctorRepo, string) {
	t.Helper()

	root := t.TempDir()
	store, err := storage.NewDocumentStore(root, nil)
	require.NoError(t, err)

	repo := &fakeDoctorRepo{t: t, profiles: make(map[uuid.UUID]*model.DoctorProfile)}
	return NewService(repo, store), repo, store.Root()
}

func TestResolveRejectsUnknownKindBeforeAnyLookup(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), uuid.New(), "passport")

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Zero(t, repo.calls)
}

func TestResolveUnknownApplication(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Resolve(context.Background(), uuid.New(), model.DocumentLicense)

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestResolveMissingDocumentEntry(t *testing.T) {
	svc, repo, _ := newTestService(t)

	id := uuid.New()
	repo.profiles[id] = &model.DoctorProfile{Base: model.Base{ID: id}}

	_, err := svc.Resolve(context.Background(), id, model.DocumentLicense)

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestResolveRejectsPathEscapingRoot(t *testing.T) {
	svc, repo, _ := newTestService(t)

	id := uuid.New()
	repo.profiles[id] = &model.DoctorProfile{
		Base:      model.Base{ID: id},
		Documents: model.JSONMap{model.DocumentLicense: "../../etc/passwd"},
	}

	_, err := svc.Resolve(context.Background(), id, model.DocumentLicense)

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestResolveStoredDocument(t *testing.T) {
	svc, repo, root := newTestService(t)

	accountDir := filepath.Join(root, "acct")
	require.NoError(t, os.MkdirAll(accountDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(accountDir, "license_scan.pdf"), []byte("pdf bytes"), 0o644))

	id := uuid.New()
	repo.profiles[id] = &model.DoctorProfile{
		Base:      model.Base{ID: id},
		Documents: model.JSONMap{model.DocumentLicense: filepath.Join("acct", "license_scan.pdf")},
	}

	doc, err := svc.Resolve(context.Background(), id, model.DocumentLicense)
	require.NoError(t, err)
	assert.Equal(t, "license_scan.pdf", doc.Filename)
	assert.Equal(t, []byte("pdf bytes"), doc.Content)
}

func TestResolveDanglingPath(t *testing.T) {
	svc, repo, _ := newTestService(t)

	id := uuid.New()
	repo.profiles[id] = &model.DoctorProfile{
		Base:      model.Base{ID: id},
		Documents: model.JSONMap{model.DocumentLicense: "acct/gone.pdf"},
	}

	_, err := svc.Resolve(context.Background(), id, model.DocumentLicense)

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
