package api

import (
	"net/http"

	"fashionstock-dashboard/internal/models"
	"fashionstock-dashboard/internal/session"

	"github.com/gin-gonic/gin"
)

func (h *Handler) login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.Auth.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, res)
}

func (h *Handler) currentSession(c *gin.Context) {
	s, err := session.FromContext(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, s)
}
