package notification

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pharmalink/directory-api/internal/middleware"
	"github.com/pharmalink/directory-api/internal/service/notification"
	apperrors "github.com/pharmalink/directory-api/pkg/errors"
	"github.com/pharmalink/directory-api/pkg/httputil"
)

type Handler struct {
	service *notification.Service
}

func NewHandler(service *notification.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/notifications", h.List)
	r.PUT("/notifications/:id/read", h.MarkRead)
}

func (h *Handler) List(c *gin.Context) {
	account := middleware.AccountFromContext(c)

	notifications, err := h.service.List(c.Request.Context(), account.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, notifications)
}

func (h *Handler) MarkRead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid notification id"))
		return
	}
	account := middleware.AccountFromContext(c)

	if err := h.service.MarkRead(c.Request.Context(), id, account.ID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, nil)
}
