package review

import (
	"mime"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/directory-api/internal/middleware"
	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/service/doctor"
	"github.com/pharmalink/directory-api/internal/service/files"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/httputil"
	"github.com/pharmalink/directory-api/pkg/metrics"
)

// Handler serves the three credential review channels. The admin channel
// changes account roles alongside the credential status; the ministry and
// health-authority channels only record the decision.
type Handler struct {
	doctorSvc *doctor.Service
	filesSvc  *files.Service
	metrics   *metrics.Metrics
}

func NewHandler(doctorSvc *doctor.Service, filesSvc *files.Service, m *metrics.Metrics) *Handler {
	return &Handler{doctorSvc: doctorSvc, filesSvc: filesSvc, metrics: m}
}

// RegisterAdminRoutes mounts the admin review channel.
func (h *Handler) RegisterAdminRoutes(r *gin.RouterGroup) {
	r.GET("/admin/doctors/requests", h.ListPending)
	r.PUT("/admin/doctors/:id/approve", h.decide(model.ChannelAdmin, model.CredentialApproved))
	r.PUT("/admin/doctors/:id/reject", h.decide(model.ChannelAdmin, model.CredentialRejected))
	r.GET("/admin/view-file/:doctorId/:fileType", h.serveFile("inline"))
	r.GET("/admin/download-file/:doctorId/:fileType", h.serveFile("attachment"))
}

// RegisterMinistryRoutes mounts the ministry review channel.
func (h *Handler) RegisterMinistryRoutes(r *gin.RouterGroup) {
	r.GET("/ministry/doctors/requests", h.ListPending)
	r.POST("/ministry/doctors/:id/approve", h.decide(model.ChannelMinistry, model.CredentialApproved))
	r.POST("/ministry/doctors/:id/reject", h.decide(model.ChannelMinistry, model.CredentialRejected))
}

// RegisterHealthAuthorityRoutes mounts the health-authority review channel,
// the only channel allowed to remove an already-processed registration.
func (h *Handler) RegisterHealthAuthorityRoutes(r *gin.RouterGroup) {
	r.GET("/msh/doctors/pending", h.ListPending)
	r.GET("/msh/doctors/all", h.ListAll)
	r.GET("/msh/doctors/:id", h.GetApplication)
	r.POST("/msh/doctors/:id/approve", h.decide(model.ChannelHealthAuthority, model.CredentialApproved))
	r.POST("/msh/doctors/:id/reject", h.decide(model.ChannelHealthAuthority, model.CredentialRejected))
	r.POST("/msh/doctors/remove", h.Remove)
	r.GET("/msh/view-file/:doctorId/:fileType", h.serveFile("inline"))
	r.GET("/msh/download-file/:doctorId/:fileType", h.serveFile("attachment"))
}

func (h *Handler) ListPending(c *gin.Context) {
	profiles, err := h.doctorSvc.ListPending(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, profiles)
}

func (h *Handler) ListAll(c *gin.Context) {
	profiles, err := h.doctorSvc.ListAll(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, profiles)
}

func (h *Handler) GetApplication(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid application id"))
		return
	}

	profile, err := h.doctorSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, profile)
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) decide(channel model.ReviewChannel, status model.CredentialStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid application id"))
			return
		}
		reviewer := middleware.AccountFromContext(c)

		var profile *model.DoctorProfile
		switch status {
		case model.CredentialApproved:
			profile, err = h.doctorSvc.Approve(c.Request.Context(), id, reviewer.ID, channel)
		case model.CredentialRejected:
			var req rejectRequest
			if c.Request.ContentLength > 0 {
				if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
					httputil.RespondWithValidationError(c, bindErr)
					return
				}
			}
			profile, err = h.doctorSvc.Reject(c.Request.Context(), id, reviewer.ID, req.Reason, channel)
		}
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, http.StatusOK, profile)
	}
}

type removeRequest struct {
	DoctorID      uuid.UUID `json:"doctorId" binding:"required"`
	RemovalReason string    `json:"removalReason" binding:"required"`
}

func (h *Handler) Remove(c *gin.Context) {
	var req removeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	reviewer := middleware.AccountFromContext(c)

	profile, err := h.doctorSvc.Remove(c.Request.Context(), req.DoctorID, reviewer.ID, req.RemovalReason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, profile)
}

// serveFile streams a credential document with the given content
// disposition. The document kind is validated before any filesystem access.
func (h *Handler) serveFile(disposition string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.Param("doctorId"))
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid application id"))
			return
		}

		doc, err := h.filesSvc.Resolve(c.Request.Context(), id, c.Param("fileType"))
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		if h.metrics != nil {
			h.metrics.DocumentDownloads.WithLabelValues(disposition).Inc()
		}

		contentType := mime.TypeByExtension(filepath.Ext(doc.Filename))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		c.Header("Content-Disposition", disposition+`; filename="`+doc.Filename+`"`)
		c.Data(http.StatusOK, contentType, doc.Content)
	}
}
