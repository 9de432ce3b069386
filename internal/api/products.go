package api

import (
	"net/http"

	"fashionstock-dashboard/internal/listview"
	"fashionstock-dashboard/internal/models"

	"github.com/gin-gonic/gin"
)

func productQuery(c *gin.Context) listview.Query {
	return listview.Query{
		Search:   c.Query("search"),
		Category: c.Query("category"),
		SortKey:  c.Query("sort"),
	}
}

func (h *Handler) listProducts(c *gin.Context) {
	view, err := h.svc.Products.List(c.Request.Context(), productQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) lowStock(c *gin.Context) {
	respond(c, http.StatusOK, h.svc.Products.LowStock(c.Request.Context()))
}

func (h *Handler) createProduct(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.svc.Products.Create(c.Request.Context(), in, productQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, view)
}

func (h *Handler) updateProduct(c *gin.Context) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.svc.Products.Update(c.Request.Context(), c.Param("id"), in, productQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	view, err := h.svc.Products.Delete(c.Request.Context(), c.Param("id"), productQuery(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}
