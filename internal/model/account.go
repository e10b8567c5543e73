package model

import (
	"github.com/google/uuid"
)

// Account roles
const (
	RoleUser          = "user"
	RolePharmacy      = "pharmacy"
	RoleDoctor        = "doctor"
	RoleAdmin         = "admin"
	RoleMinistryAdmin = "ministry_admin"
	RoleHealthAdmin   = "health_admin"
)

// Account represents a registered identity with exactly one role at a time.
// DoctorStatus mirrors the credential application status for fast
// authorization checks; it is written in the same transaction as the
// application row.
type Account struct {
	Base
	Email         string     `json:"email" db:"email"`
	PasswordHash  string     `json:"-" db:"password_hash"`
	Name          string     `json:"name" db:"name"`
	FirstName     *string    `json:"first_name" db:"first_name"`
	LastName      *string    `json:"last_name" db:"last_name"`
	Phone         *string    `json:"phone" db:"phone"`
	Role          string     `json:"role" db:"role"`
	DoctorStatus  *string    `json:"doctor_status,omitempty" db:"doctor_status"`
	PatientNumber int64      `json:"patient_number" db:"patient_number"`
	PharmacyID    *uuid.UUID `json:"pharmacy_id,omitempty" db:"pharmacy_id"`
}

// DisplayName returns the name patients and doctors are matched against,
// falling back to the email when no name was registered.
func (a *Account) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}
	return a.Email
}

// RegisterRequest represents account registration parameters
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

// LoginRequest represents login parameters
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries an issued token pair
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}
