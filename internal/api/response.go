package api

import (
	"errors"
	"mime"
	"net/http"

	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/cart"
	"fashionstock-dashboard/internal/service"
	"fashionstock-dashboard/internal/session"
	"fashionstock-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// envelope mirrors the backend's response shape
type envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func respond(c *gin.Context, status int, data interface{}) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := envelope{Success: false, Message: err.Error()}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		body.Message = "Validation failed"
		body.Errors = verr.Fields
	}
	if status >= http.StatusInternalServerError {
		util.GetLogger().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.JSON(status, body)
}

func statusFor(err error) int {
	var verr *service.ValidationError
	var apiErr *backend.APIError

	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrNoSession),
		errors.Is(err, session.ErrInvalidToken),
		errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, cart.ErrInsufficientStock):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotFound), errors.Is(err, cart.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrInvalidDiscount),
		errors.Is(err, cart.ErrInvalidPaymentMethod),
		errors.Is(err, cart.ErrInvalidProduct),
		errors.Is(err, cart.ErrEmptyCart):
		return http.StatusBadRequest
	// A backend 401/403 is the dashboard's own credentials failing upstream,
	// not the operator's session.
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 &&
		apiErr.Status != http.StatusUnauthorized && apiErr.Status != http.StatusForbidden:
		return apiErr.Status
	case errors.Is(err, backend.ErrUnavailable),
		errors.Is(err, backend.ErrUnsuccessful),
		errors.Is(err, backend.ErrMissingData):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func sendFile(c *gin.Context, file *backend.File) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	c.Data(http.StatusOK, contentType, file.Data)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "Invalid request body: " + err.Error()})
}
