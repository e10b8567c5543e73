package prescription

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/directory-api/internal/middleware"
	"github.com/pharmalink/directory-api/internal/model"
	"github.com/pharmalink/directory-api/internal/service/prescription"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/httputil"
)

type Handler struct {
	service *prescription.Service
}

func NewHandler(service *prescription.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/prescriptions", h.Create)
	r.GET("/prescriptions", h.ListForDoctor)
	r.GET("/prescriptions/patient-lookup/:patientNumber", h.LookupPatient)
	r.GET("/prescriptions/:id", h.Get)
	r.PUT("/prescriptions/:id/status", h.UpdateStatus)
	r.GET("/my-prescriptions", h.ListForPatient)
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePrescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	account := middleware.AccountFromContext(c)

	p, err := h.service.Create(c.Request.Context(), account, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, p)
}

func (h *Handler) LookupPatient(c *gin.Context) {
	number, err := strconv.ParseInt(c.Param("patientNumber"), 10, 64)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient number"))
		return
	}
	account := middleware.AccountFromContext(c)

	patient, err := h.service.LookupPatient(c.Request.Context(), account, number)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"patientNumber": patient.PatientNumber,
		"name":          patient.DisplayName(),
	})
}

func (h *Handler) ListForDoctor(c *gin.Context) {
	account := middleware.AccountFromContext(c)

	prescriptions, err := h.service.ListForDoctor(c.Request.Context(), account.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, prescriptions)
}

func (h *Handler) ListForPatient(c *gin.Context) {
	account := middleware.AccountFromContext(c)

	prescriptions, err := h.service.ListForPatient(c.Request.Context(), account.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, prescriptions)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid prescription id"))
		return
	}
	account := middleware.AccountFromContext(c)

	p, err := h.service.Get(c.Request.Context(), id, account.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid prescription id"))
		return
	}

	var req model.UpdatePrescriptionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithValidationError(c, err)
		return
	}
	account := middleware.AccountFromContext(c)

	p, err := h.service.UpdateStatus(c.Request.Context(), id, account.ID, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}
