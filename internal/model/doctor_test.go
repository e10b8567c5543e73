package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCredentialTransitions(t *testing.T) {
	// Pending applications can be decided either way, or amended.
	assert.True(t, CredentialPending.CanTransition(CredentialApproved))
	assert.True(t, CredentialPending.CanTransition(CredentialRejected))
	assert.True(t, CredentialPending.CanTransition(CredentialPending))

	// A pending application cannot be removed, only rejected.
	assert.False(t, CredentialPending.CanTransition(CredentialRemoved))

	// Approved registrations can only be removed.
	assert.True(t, CredentialApproved.CanTransition(CredentialRemoved))
	assert.False(t, CredentialApproved.CanTransition(CredentialPending))
	assert.False(t, CredentialApproved.CanTransition(CredentialRejected))

	// Rejected applications can be resubmitted or retired.
	assert.True(t, CredentialRejected.CanTransition(CredentialPending))
	assert.True(t, CredentialRejected.CanTransition(CredentialRemoved))
	assert.False(t, CredentialRejected.CanTransition(CredentialApproved))

	// Removed is terminal.
	assert.False(t, CredentialRemoved.CanTransition(CredentialPending))
	assert.False(t, CredentialRemoved.CanTransition(CredentialApproved))
	assert.False(t, CredentialRemoved.CanTransition(CredentialRejected))
	assert.True(t, CredentialRemoved.Terminal())
	assert.False(t, CredentialPending.Terminal())
}

func TestValidRemovalReason(t *testing.T) {
	for _, reason := range RemovalReasons {
		assert.True(t, ValidRemovalReason(reason))
	}
	assert.False(t, ValidRemovalReason(""))
	assert.False(t, ValidRemovalReason("because"))
	assert.False(t, ValidRemovalReason("License_Revoked"))
}

func TestDocumentPathFallsBackToLegacyColumns(t *testing.T) {
	legacy := "abc/license_old.pdf"
	p := &DoctorProfile{
		Documents:  JSONMap{DocumentIDCard: "abc/idCard_scan.png"},
		LicenseDoc: &legacy,
	}

	assert.Equal(t, "abc/idCard_scan.png", p.DocumentPath(DocumentIDCard))
	assert.Equal(t, legacy, p.DocumentPath(DocumentLicense))
	assert.Equal(t, "", p.DocumentPath(DocumentCertificate))
	assert.Equal(t, "", p.DocumentPath("passport"))
}
