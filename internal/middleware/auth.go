package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/repository"
	"github.com/pharmalink/directory-api/internal/service/auth"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/httputil"
)

// Context keys set by the authentication middleware
const (
	ContextAccount  = "account"
	ContextPharmacy = "pharmacy"
)

type AuthMiddleware struct {
	authSvc       *auth.Service
	pharmacyRepo  repository.PharmacyRepository
	pharmacyCache *cache.Cache
}

func NewAuthMiddleware(authSvc *auth.Service, pharmacyRepo repository.PharmacyRepository) *AuthMiddleware {
	return &AuthMiddleware{
		authSvc:       authSvc,
		pharmacyRepo:  pharmacyRepo,
		pharmacyCache: cache.New(5*time.Minute, 10*time.Minute),
	}
}

// Authenticate resolves the bearer token to an account and stores it in the
// request context. Pharmacy callers additionally get their pharmacy record
// attached for downstream subscription checks.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.AuthRequired("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.RespondWithError(c, apperrors.AuthRequired("invalid authorization format"))
			c.Abort()
			return
		}

		account, err := m.authSvc.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			httputil.RespondWithError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextAccount, account)

		if account.Role == model.RolePharmacy && account.PharmacyID != nil {
			m.attachPharmacy(c, *account.PharmacyID)
		}

		c.Next()
	}
}

// RequireRoles permits only callers whose role is in the allowed set.
func (m *AuthMiddleware) RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		account := AccountFromContext(c)
		if account == nil {
			httputil.RespondWithError(c, apperrors.AuthRequired("authentication required"))
			c.Abort()
			return
		}

		for _, role := range roles {
			if account.Role == role {
				c.Next()
				return
			}
		}

		httputil.RespondWithError(c, apperrors.PermissionDenied("insufficient role"))
		c.Abort()
	}
}

func (m *AuthMiddleware) attachPharmacy(c *gin.Context, pharmacyID uuid.UUID) {
	key := pharmacyID.String()
	if cached, ok := m.pharmacyCache.Get(key); ok {
		c.Set(ContextPharmacy, cached.(*model.Pharmacy))
		return
	}

	pharmacy, err := m.pharmacyRepo.Get(c.Request.Context(), pharmacyID)
	if err != nil {
		// A missing pharmacy record must not block the request; downstream
		// subscription checks will fail closed on a nil pharmacy.
		log.Warn().Err(err).Str("pharmacy_id", key).Msg("failed to attach pharmacy record")
		return
	}

	m.pharmacyCache.Set(key, pharmacy, cache.DefaultExpiration)
	c.Set(ContextPharmacy, pharmacy)
}

// AccountFromContext returns the authenticated account or nil.
func AccountFromContext(c *gin.Context) *model.Account {
	if v, exists := c.Get(ContextAccount); exists {
		if account, ok := v.(*model.Account); ok {
			return account
		}
	}
	return nil
}

// PharmacyFromContext returns the attached pharmacy record or nil.
func PharmacyFromContext(c *gin.Context) *model.Pharmacy {
	if v, exists := c.Get(ContextPharmacy); exists {
		if pharmacy, ok := v.(*model.Pharmacy); ok {
			return pharmacy
		}
	}
	return nil
}
