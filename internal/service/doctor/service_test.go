package doctor

import (
	"bytes"
	"context"
	"mime/multipart"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/directory-api/internal/email"
	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
	"github.com/pharmalink/directory-api/internal/storage"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/security"
)

type fakeDoctorRepo struct {
	profiles map[uuid.UUID]*model.DoctorProfile

	upsertErr error
	createErr error

	createdAccount *model.Account
	createdProfile *model.DoctorProfile
	lastDecision   *repository.ReviewDecision
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{profiles: make(map[uuid.UUID]*model.DoctorProfile)}
}

func (r *fakeDoctorRepo) Get(ctx context.Context, id uuid.UUID) (*model.DoctorProfile, error) {
	if p, ok := r.profiles[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDoctorRepo) GetByAccountID(ctx context.Context, accountID uuid.UUID) (*model.DoctorProfile, error) {
	for _, p := range r.profiles {
		if p.AccountID == accountID {
			return p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeDoctorRepo) ListByStatus(ctx context.Context, status model.CredentialStatus) ([]*model.DoctorProfile, error) {
	var out []*model.DoctorProfile
	for _, p := range r.profiles {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeDoctorRepo) ListAll(ctx context.Context) ([]*model.DoctorProfile, error) {
	var out []*model.DoctorProfile
	for _, p := range r.profiles {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeDoctorRepo) CreateWithAccount(ctx context.Context, account *model.Account, profile *model.DoctorProfile) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.createdAccount = account
	r.createdProfile = profile
	profile.ID = uuid.New()
	r.profiles[profile.ID] = profile
	return nil
}

func (r *fakeDoctorRepo) UpsertForAccount(ctx context.Context, profile *model.DoctorProfile) (*model.DoctorProfile, error) {
	if r.upsertErr != nil {
		return nil, r.upsertErr
	}
	profile.Status = model.CredentialPending
	return profile, nil
}

// ApplyDecision mimics the transactional repository: the stored status is
// re-checked against the transition table before anything changes.
func (r *fakeDoctorRepo) ApplyDecision(ctx context.Context, decision *repository.ReviewDecision) (*model.DoctorProfile, error) {
	p, ok := r.profiles[decision.ProfileID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !p.Status.CanTransition(decision.NewStatus) {
		return nil, repository.ErrInvalidTransition
	}
	r.lastDecision = decision
	p.Status = decision.NewStatus
	p.RejectionReason = decision.Reason
	return p, nil
}

type fakeAccountRepo struct {
	accounts map[uuid.UUID]*model.Account
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uuid.UUID]*model.Account)}
}

func (r *fakeAccountRepo) Create(ctx context.Context, account *model.Account) error {
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) Get(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	if a, ok := r.accounts[id]; ok {
		return a, nil
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	for _, a := range r.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) GetByPatientNumber(ctx context.Context, patientNumber int64) (*model.Account, error) {
	for _, a := range r.accounts {
		if a.PatientNumber == patientNumber {
			return a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) Update(ctx context.Context, account *model.Account) error {
	r.accounts[account.ID] = account
	return nil
}

func (r *fakeAccountRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.accounts, id)
	return nil
}

func makeFileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	reader := multipart.NewReader(&buf, w.Boundary())
	form, err := reader.ReadForm(1 << 20)
	require.NoError(t, err)
	return form.File["file"][0]
}

func allDocuments(t *testing.T) map[string]*multipart.FileHeader {
	return map[string]*multipart.FileHeader{
		model.DocumentLicense:     makeFileHeader(t, "license.pdf", "license data"),
		model.DocumentIDCard:      makeFileHeader(t, "id.png", "id data"),
		model.DocumentCertificate: makeFileHeader(t, "cert.pdf", "cert data"),
	}
}

func newTestService(t *testing.T, doctorRepo *fakeDoctorRepo, accountRepo *fakeAccountRepo) (*Service, *storage.DocumentStore) {
	t.Helper()

	store, err := storage.NewDocumentStore(t.TempDir(), nil)
	require.NoError(t, err)

	svc := NewService(doctorRepo, accountRepo, store, security.NewBcryptHasher(4), email.NoopService{}, nil)
	return svc, store
}

func validApplication() *model.DoctorApplication {
	return &model.DoctorApplication{
		Email:          "doc@example.com",
		Password:       "secret-password",
		Name:           "Jane Smith",
		Specialization: "cardiology",
		LicenseNumber:  "L-1234",
		Phone:          "555-0100",
	}
}

func TestSubmitProfileRequiresDoctorRole(t *testing.T) {
	svc, _ := newTestService(t, newFakeDoctorRepo(), newFakeAccountRepo())

	account := &model.Account{Role: model.RoleUser}
	_, err := svc.SubmitProfile(context.Background(), account, &model.DoctorProfileRequest{})

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrPermissionDenied, appErr.Code)
}

func TestSubmitProfileAlreadyProcessed(t *testing.T) {
	repo := newFakeDoctorRepo()
	repo.upsertErr = repository.ErrInvalidTransition
	svc, _ := newTestService(t, repo, newFakeAccountRepo())

	account := &model.Account{Role: model.RoleDoctor}
	_, err := svc.SubmitProfile(context.Background(), account, &model.DoctorProfileRequest{})

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrStateConflict, appErr.Code)
}

func TestApplyMissingDocumentPersistsNothing(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc, store := newTestService(t, repo, newFakeAccountRepo())

	files := allDocuments(t)
	delete(files, model.DocumentCertificate)

	_, _, err := svc.Apply(context.Background(), validApplication(), files)

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Nil(t, repo.createdAccount)

	entries, err := os.ReadDir(store.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestApplyDuplicateEmailCleansUpFiles(t *testing.T) {
	repo := newFakeDoctorRepo()
	repo.createErr = repository.ErrDuplicateEmail
	svc, store := newTestService(t, repo, newFakeAccountRepo())

	_, _, err := svc.Apply(context.Background(), validApplication(), allDocuments(t))

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)

	entries, readErr := os.ReadDir(store.Root())
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestApplyCreatesPendingApplication(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc, store := newTestService(t, repo, newFakeAccountRepo())

	account, profile, err := svc.Apply(context.Background(), validApplication(), allDocuments(t))
	require.NoError(t, err)

	assert.Equal(t, model.RoleDoctor, account.Role)
	require.NotNil(t, account.DoctorStatus)
	assert.Equal(t, string(model.CredentialPending), *account.DoctorStatus)
	assert.Equal(t, "Jane", profile.FirstName)
	assert.Equal(t, "Smith", profile.LastName)
	assert.Equal(t, model.CredentialPending, profile.Status)

	require.Len(t, profile.Documents, 3)
	for _, kind := range model.DocumentKinds {
		rel := profile.Documents[kind]
		require.NotEmpty(t, rel)
		_, statErr := os.Stat(filepath.Join(store.Root(), rel))
		assert.NoError(t, statErr)
	}
}

func TestApproveAdminChannelPromotesAccount(t *testing.T) {
	repo := newFakeDoctorRepo()
	accountRepo := newFakeAccountRepo()
	svc, _ := newTestService(t, repo, accountRepo)

	accountID := uuid.New()
	accountRepo.accounts[accountID] = &model.Account{
		Base: model.Base{ID: accountID}, Email: "doc@example.com", Role: model.RoleUser,
	}
	profileID := uuid.New()
	repo.profiles[profileID] = &model.DoctorProfile{
		Base: model.Base{ID: profileID}, AccountID: accountID, Status: model.CredentialPending,
	}

	profile, err := svc.Approve(context.Background(), profileID, uuid.New(), model.ChannelAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.CredentialApproved, profile.Status)

	require.NotNil(t, repo.lastDecision)
	require.NotNil(t, repo.lastDecision.AccountRole)
	assert.Equal(t, model.RoleDoctor, *repo.lastDecision.AccountRole)
	require.NotNil(t, repo.lastDecision.Notification)
	assert.Equal(t, model.NotificationCredentialApproved, repo.lastDecision.Notification.Type)
}

func TestApproveMinistryChannelKeepsAccountRole(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc, _ := newTestService(t, repo, newFakeAccountRepo())

	profileID := uuid.New()
	repo.profiles[profileID] = &model.DoctorProfile{
		Base: model.Base{ID: profileID}, AccountID: uuid.New(), Status: model.CredentialPending,
	}

	_, err := svc.Approve(context.Background(), profileID, uuid.New(), model.ChannelMinistry)
	require.NoError(t, err)
	assert.Nil(t, repo.lastDecision.AccountRole)
}

func TestSecondDecisionConflicts(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc, _ := newTestService(t, repo, newFakeAccountRepo())

	profileID := uuid.New()
	repo.profiles[profileID] = &model.DoctorProfile{
		Base: model.Base{ID: profileID}, AccountID: uuid.New(), Status: model.CredentialPending,
	}

	_, err := svc.Approve(context.Background(), profileID, uuid.New(), model.ChannelMinistry)
	require.NoError(t, err)

	_, err = svc.Reject(context.Background(), profileID, uuid.New(), "too late", model.ChannelMinistry)
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrStateConflict, appErr.Code)
}

func TestRejectDefaultsReason(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc, _ := newTestService(t, repo, newFakeAccountRepo())

	profileID := uuid.New()
	repo.profiles[profileID] = &model.DoctorProfile{
		Base: model.Base{ID: profileID}, AccountID: uuid.New(), Status: model.CredentialPending,
	}

	profile, err := svc.Reject(context.Background(), profileID, uuid.New(), "", model.ChannelAdmin)
	require.NoError(t, err)
	require.NotNil(t, profile.RejectionReason)
	assert.Equal(t, defaultRejectionReason, *profile.RejectionReason)

	require.NotNil(t, repo.lastDecision.AccountRole)
	assert.Equal(t, model.RoleUser, *repo.lastDecision.AccountRole)
}

func TestRemoveRequiresKnownReason(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc, _ := newTestService(t, repo, newFakeAccountRepo())

	_, err := svc.Remove(context.Background(), uuid.New(), uuid.New(), "felt like it")

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrValidation, appErr.Code)
	assert.Nil(t, repo.lastDecision)
}

func TestRemovePendingApplicationFails(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc, _ := newTestService(t, repo, newFakeAccountRepo())

	profileID := uuid.New()
	repo.profiles[profileID] = &model.DoctorProfile{
		Base: model.Base{ID: profileID}, AccountID: uuid.New(), Status: model.CredentialPending,
	}

	_, err := svc.Remove(context.Background(), profileID, uuid.New(), model.RemovalLicenseRevoked)

	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrStateConflict, appErr.Code)
}

func TestRemoveApprovedRegistration(t *testing.T) {
	repo := newFakeDoctorRepo()
	svc, _ := newTestService(t, repo, newFakeAccountRepo())

	profileID := uuid.New()
	repo.profiles[profileID] = &model.DoctorProfile{
		Base: model.Base{ID: profileID}, AccountID: uuid.New(), Status: model.CredentialApproved,
	}

	profile, err := svc.Remove(context.Background(), profileID, uuid.New(), model.RemovalRetired)
	require.NoError(t, err)
	assert.Equal(t, model.CredentialRemoved, profile.Status)
}

func TestSplitName(t *testing.T) {
	first, last := splitName("Jane Ann Smith")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Ann Smith", last)

	first, last = splitName("Cher")
	assert.Equal(t, "Cher", first)
	assert.Equal(t, "Cher", last)

	first, last = splitName("   ")
	assert.Equal(t, "", first)
	assert.Equal(t, "", last)
}
