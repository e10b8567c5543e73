package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// CredentialStatus is the single closed status set shared by every reviewer
// channel. There is one transition table; reviewer channels differ only in
// the account side effects they apply.
type CredentialStatus string

const (
	CredentialPending  CredentialStatus = "pending"
	CredentialApproved CredentialStatus = "approved"
	CredentialRejected CredentialStatus = "rejected"
	CredentialRemoved  CredentialStatus = "removed"
)

// credentialTransitions is the authoritative transition table.
var credentialTransitions = map[CredentialStatus][]CredentialStatus{
	CredentialPending:  {CredentialApproved, CredentialRejected},
	CredentialApproved: {CredentialRemoved},
	CredentialRejected: {CredentialPending, CredentialRemoved},
	CredentialRemoved:  {},
}

// CanTransition reports whether moving from s to next is permitted.
// Resubmission (pending -> pending) is allowed so a doctor can amend an
// application that has not been reviewed yet.
func (s CredentialStatus) CanTransition(next CredentialStatus) bool {
	if s == CredentialPending && next == CredentialPending {
		return true
	}
	for _, allowed := range credentialTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are permitted.
func (s CredentialStatus) Terminal() bool {
	return len(credentialTransitions[s]) == 0
}

// ReviewChannel identifies which reviewer surface made a decision.
type ReviewChannel string

const (
	ChannelAdmin           ReviewChannel = "admin"
	ChannelMinistry        ReviewChannel = "ministry"
	ChannelHealthAuthority ReviewChannel = "health_authority"
)

// Document kinds stored for a credential application
const (
	DocumentLicense     = "license"
	DocumentIDCard      = "idCard"
	DocumentCertificate = "certificate"
)

// DocumentKinds lists every accepted document kind.
var DocumentKinds = []string{DocumentLicense, DocumentIDCard, DocumentCertificate}

// Removal reasons accepted by the health authority
const (
	RemovalLicenseRevoked = "license_revoked"
	RemovalLicenseExpired = "license_expired"
	RemovalMisconduct     = "professional_misconduct"
	RemovalRetired        = "retired"
	RemovalDeceased       = "deceased"
	RemovalDuplicate      = "duplicate_registration"
)

// RemovalReasons is the fixed list a Remove call must draw from.
var RemovalReasons = []string{
	RemovalLicenseRevoked,
	RemovalLicenseExpired,
	RemovalMisconduct,
	RemovalRetired,
	RemovalDeceased,
	RemovalDuplicate,
}

// ValidRemovalReason reports whether reason is in the fixed list.
func ValidRemovalReason(reason string) bool {
	for _, r := range RemovalReasons {
		if r == reason {
			return true
		}
	}
	return false
}

// EducationEntry is one item of a doctor's education history
type EducationEntry struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Year        int    `json:"year"`
}

// ExperienceEntry is one item of a doctor's work history
type ExperienceEntry struct {
	Position string `json:"position"`
	Employer string `json:"employer"`
	Years    int    `json:"years"`
}

type EducationList []EducationEntry

func (l EducationList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *EducationList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

type ExperienceList []ExperienceEntry

func (l ExperienceList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *ExperienceList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// DoctorProfile is a doctor's credential application, one-to-one with an
// Account of role doctor. Documents holds kind -> relative path under the
// upload root; the flat *Doc columns predate it and are still read as a
// fallback.
type DoctorProfile struct {
	Base
	AccountID       uuid.UUID        `json:"account_id" db:"account_id"`
	FirstName       string           `json:"first_name" db:"first_name"`
	LastName        string           `json:"last_name" db:"last_name"`
	Specialization  string           `json:"specialization" db:"specialization"`
	LicenseNumber   string           `json:"license_number" db:"license_number"`
	Phone           string           `json:"phone" db:"phone"`
	Address         string           `json:"address" db:"address"`
	Bio             string           `json:"bio" db:"bio"`
	Education       EducationList    `json:"education" db:"education"`
	Experience      ExperienceList   `json:"experience" db:"experience"`
	Status          CredentialStatus `json:"status" db:"status"`
	Documents       JSONMap          `json:"documents" db:"documents"`
	LicenseDoc      *string          `json:"-" db:"license_doc"`
	IDDoc           *string          `json:"-" db:"id_doc"`
	CertificateDoc  *string          `json:"-" db:"certificate_doc"`
	RejectionReason *string          `json:"rejection_reason,omitempty" db:"rejection_reason"`
	ReviewedBy      *uuid.UUID       `json:"reviewed_by,omitempty" db:"reviewed_by"`
	ReviewedAt      *time.Time       `json:"reviewed_at,omitempty" db:"reviewed_at"`
	ReviewChannel   *string          `json:"review_channel,omitempty" db:"review_channel"`
}

// DocumentPath returns the stored relative path for kind, checking the
// structured documents map before the legacy flat columns. Empty string
// means no document is on file.
func (p *DoctorProfile) DocumentPath(kind string) string {
	if path, ok := p.Documents[kind]; ok && path != "" {
		return path
	}
	switch kind {
	case DocumentLicense:
		if p.LicenseDoc != nil {
			return *p.LicenseDoc
		}
	case DocumentIDCard:
		if p.IDDoc != nil {
			return *p.IDDoc
		}
	case DocumentCertificate:
		if p.CertificateDoc != nil {
			return *p.CertificateDoc
		}
	}
	return ""
}

// DoctorProfileRequest represents a profile submission by an existing
// doctor account
type DoctorProfileRequest struct {
	FirstName      string          `json:"first_name" binding:"required"`
	LastName       string          `json:"last_name" binding:"required"`
	Specialization string          `json:"specialization" binding:"required"`
	LicenseNumber  string          `json:"license_number" binding:"required"`
	Phone          string          `json:"phone" binding:"required"`
	Address        string          `json:"address"`
	Bio            string          `json:"bio"`
	Education      EducationList   `json:"education"`
	Experience     ExperienceList  `json:"experience"`
}

// DoctorApplication represents the public apply-as-doctor submission
// (text fields; the three document files arrive as multipart parts).
type DoctorApplication struct {
	Email          string `form:"email" binding:"required,email"`
	Password       string `form:"password" binding:"required,min=8"`
	Name           string `form:"name" binding:"required"`
	Specialization string `form:"specialization" binding:"required"`
	LicenseNumber  string `form:"license_number" binding:"required"`
	Phone          string `form:"phone" binding:"required"`
	Address        string `form:"address"`
	Bio            string `form:"bio"`
}
