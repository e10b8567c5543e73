package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pharmalink/directory-api/internal/email"
	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
	"github.com/pharmalink/directory-api/pkg/auth"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/security"
)

type Service struct {
	accountRepo repository.AccountRepository
	tokenRepo   repository.TokenRepository
	jwtSvc      auth.JWTService
	hasher      security.PasswordHasher
	emailSvc    email.Service
}

func NewService(accountRepo repository.AccountRepository, tokenRepo repository.TokenRepository,
	jwtSvc auth.JWTService, hasher security.PasswordHasher, emailSvc email.Service) *Service {
	return &Service{
		accountRepo: accountRepo,
		tokenRepo:   tokenRepo,
		jwtSvc:      jwtSvc,
		hasher:      hasher,
		emailSvc:    emailSvc,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.Account, error) {
	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	account := &model.Account{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         model.RoleUser,
	}
	if req.Phone != "" {
		account.Phone = &req.Phone
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.Conflict("email already registered")
		}
		return nil, apperrors.Internal(err)
	}

	if err := s.emailSvc.SendWelcome(ctx, account.Email, account.Name); err != nil {
		log.Warn().Err(err).Str("email", account.Email).Msg("failed to send welcome email")
	}

	return account, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	account, err := s.accountRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.AuthRequired("invalid credentials")
	}

	if err := s.hasher.Compare(account.PasswordHash, req.Password); err != nil {
		return nil, apperrors.AuthRequired("invalid credentials")
	}

	return s.generateTokens(account)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.AuthInvalid(err)
	}

	account, err := s.accountRepo.Get(ctx, claims.AccountID)
	if err != nil {
		return nil, apperrors.AuthInvalid(err)
	}

	return s.generateTokens(account)
}

// Logout denylists the token for whatever validity it has left.
func (s *Service) Logout(ctx context.Context, token string) error {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return apperrors.AuthInvalid(err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if err := s.tokenRepo.Revoke(ctx, token, ttl); err != nil {
		return apperrors.Internal(err)
	}
	return nil
}

// Authenticate resolves a bearer token to an account, rejecting revoked,
// malformed and expired tokens and tokens for accounts that no longer exist.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.Account, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.AuthInvalid(err)
	}

	revoked, err := s.tokenRepo.IsRevoked(ctx, token)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if revoked {
		return nil, apperrors.AuthInvalid(errors.New("token revoked"))
	}

	account, err := s.accountRepo.Get(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.AuthInvalid(errors.New("account no longer exists"))
		}
		return nil, apperrors.Internal(err)
	}

	return account, nil
}

func (s *Service) generateTokens(account *model.Account) (*model.TokenResponse, error) {
	accessToken, err := s.jwtSvc.GenerateAccessToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	refreshToken, err := s.jwtSvc.GenerateRefreshToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
