package doctor

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pharmalink/directory-api/internal/middleware"
	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/service/doctor"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/httputil"
)

type Handler struct {
	service *doctor.Service
}

func NewHandler(service *doctor.Service) *Handler {
	return &Handler{service: service}
}

// RegisterPublicRoutes mounts the unauthenticated application endpoint.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/doctors/apply", h.Apply)
}

// RegisterRoutes mounts the endpoints for authenticated doctor accounts.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/doctor/profile", h.SubmitProfile)
	r.GET("/doctor/status", h.GetStatus)
}

// Apply handles the public multipart application: text fields plus the
// three required credential documents.
func (h *Handler) Apply(c *gin.Context) {
	var req model.DoctorApplication
	if err := c.ShouldBind(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	files := make(map[string]*multipart.FileHeader, len(model.DocumentKinds))
	for _, kind := range model.DocumentKinds {
		file, err := c.FormFile(kind)
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("missing required document: "+kind))
			return
		}
		files[kind] = file
	}

	account, profile, err := h.service.Apply(c.Request.Context(), &req, files)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusCreated, gin.H{
		"account": account,
		"profile": profile,
	})
}

func (h *Handler) SubmitProfile(c *gin.Context) {
	account := middleware.AccountFromContext(c)

	var req model.DoctorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}

	profile, err := h.service.SubmitProfile(c.Request.Context(), account, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, profile)
}

func (h *Handler) GetStatus(c *gin.Context) {
	account := middleware.AccountFromContext(c)

	profile, err := h.service.GetStatus(c.Request.Context(), account.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, profile)
}
