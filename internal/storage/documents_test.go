package storage

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmalink/directory-api/internal/model"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/security"
)

func fileHeader(t *testing.T, filename, content string) *multipart.FileHeader {
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

func TestSaveAllAndOpen(t *testing.T) {
	store, err := NewDocumentStore(t.TempDir(), nil)
	require.NoError(t, err)

	accountID := uuid.New()
	paths, err := store.SaveAll(accountID, map[string]*multipart.FileHeader{
		model.DocumentLicense: fileHeader(t, "scan.pdf", "license bytes"),
		model.DocumentIDCard:  fileHeader(t, "id.png", "id bytes"),
	})
	require.NoError(t, err)
	require.Len(t, paths, 2)

	assert.Equal(t, filepath.Join(accountID.String(), "license_scan.pdf"), paths[model.DocumentLicense])

	data, err := store.Open(paths[model.DocumentLicense])
	require.NoError(t, err)
	assert.Equal(t, []byte("license bytes"), data)
}

func TestSaveAllSanitizesFilenames(t *testing.T) {
	store, err := NewDocumentStore(t.TempDir(), nil)
	require.NoError(t, err)

	accountID := uuid.New()
	paths, err := store.SaveAll(accountID, map[string]*multipart.FileHeader{
		model.DocumentLicense: fileHeader(t, "../../evil.pdf", "x"),
	})
	require.NoError(t, err)

	rel := paths[model.DocumentLicense]
	assert.NotContains(t, rel, "..")

	abs, err := store.Resolve(rel)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(abs, store.Root()))
}

func TestEncryptedRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	encryptor, err := security.NewAESEncryptor(key)
	require.NoError(t, err)

	store, err := NewDocumentStore(t.TempDir(), encryptor)
	require.NoError(t, err)

	accountID := uuid.New()
	paths, err := store.SaveAll(accountID, map[string]*multipart.FileHeader{
		model.DocumentCertificate: fileHeader(t, "cert.pdf", "certificate bytes"),
	})
	require.NoError(t, err)

	// The file on disk is ciphertext.
	abs, err := store.Resolve(paths[model.DocumentCertificate])
	require.NoError(t, err)
	raw, err := os.ReadFile(abs)
	require.NoError(t, err)
	assert.NotEqual(t, []byte("certificate bytes"), raw)

	data, err := store.Open(paths[model.DocumentCertificate])
	require.NoError(t, err)
	assert.Equal(t, []byte("certificate bytes"), data)
}

func TestResolveContainment(t *testing.T) {
	store, err := NewDocumentStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = store.Resolve("../outside.txt")
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)

	_, err = store.Resolve("acct/missing.pdf")
	appErr = apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestRemoveAccountDir(t *testing.T) {
	store, err := NewDocumentStore(t.TempDir(), nil)
	require.NoError(t, err)

	accountID := uuid.New()
	paths, err := store.SaveAll(accountID, map[string]*multipart.FileHeader{
		model.DocumentLicense: fileHeader(t, "scan.pdf", "x"),
	})
	require.NoError(t, err)

	require.NoError(t, store.RemoveAccountDir(accountID))

	_, err = store.Resolve(paths[model.DocumentLicense])
	appErr := apperrors.AsAppError(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}
