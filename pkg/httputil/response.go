package httputil

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/pharmalink/directory-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Status: "success",
		Data:   data,
	})
}

// RespondWithError sends an error response, mapping AppError codes to HTTP statuses
func RespondWithError(c *gin.Context, err error) {
	if appErr := errors.AsAppError(err); appErr != nil {
		c.JSON(appErr.HTTPStatus(), Response{
			Status:  "error",
			Code:    string(appErr.Code),
			Message: appErr.Message,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, Response{
		Status:  "error",
		Code:    string(errors.ErrInternal),
		Message: "internal server error",
	})
}

// RespondWithValidationError sends a 400 for malformed request bodies,
// flattening binding failures into per-field messages.
func RespondWithValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, Response{
		Status:  "error",
		Code:    string(errors.ErrValidation),
		Message: validationMessage(err),
	})
}

func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) {
		return err.Error()
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", fe.Field()))
		case "email":
			messages = append(messages, fmt.Sprintf("%s must be a valid email address", fe.Field()))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(messages, "; ")
}
