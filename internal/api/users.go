package api

import (
	"net/http"

	"fashionstock-dashboard/internal/listview"
	"fashionstock-dashboard/internal/models"

	"github.com/gin-gonic/gin"
)

func userQuery(c *gin.Context) listview.Query {
	return listview.Query{
		Search:   c.Query("search"),
		Category: c.Query("role"),
		SortKey:  c.Query("sort"),
	}
}

func (h *Handler) listUsers(c *gin.Context) {
	view, err := h.svc.Users.List(c.Request.Context(), userQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) createUser(c *gin.Context) {
	var in models.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.svc.Users.Create(c.Request.Context(), in, userQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, view)
}
