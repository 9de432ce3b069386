package api

import (
	"net/http"
	"strconv"

	"fashionstock-dashboard/internal/backend"
	"fashionstock-dashboard/internal/listview"

	"github.com/gin-gonic/gin"
)

const defaultJournalLimit = 20

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type discountRequest struct {
	Discount float64 `json:"discount"`
}

type paymentMethodRequest struct {
	PaymentMethod string `json:"paymentMethod" binding:"required"`
}

func (h *Handler) listSales(c *gin.Context) {
	view, err := h.svc.Sales.History(c.Request.Context(), listview.Query{
		Search:   c.Query("search"),
		Category: c.Query("date"),
		SortKey:  c.Query("sort"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) exportSales(c *gin.Context) {
	file, err := h.svc.Sales.Export(c.Request.Context(), c.Param("format"), backend.SalesExportQuery{
		ExportType: c.Query("exportType"),
		StartDate:  c.Query("startDate"),
		EndDate:    c.Query("endDate"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *Handler) salesJournal(c *gin.Context) {
	limit := defaultJournalLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, envelope{Success: false, Message: "Invalid limit"})
			return
		}
		limit = n
	}

	entries, err := h.svc.Sales.Journal(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, entries)
}

func (h *Handler) openCart(c *gin.Context) {
	respond(c, http.StatusCreated, h.svc.Sales.OpenCart())
}

func (h *Handler) getCart(c *gin.Context) {
	view, err := h.svc.Sales.Cart(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) clearCart(c *gin.Context) {
	view, err := h.svc.Sales.ClearCart(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) addCartItem(c *gin.Context) {
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	qty := 1
	if req.Quantity != nil {
		qty = *req.Quantity
	}

	view, err := h.svc.Sales.AddItem(c.Request.Context(), c.Param("id"), req.ProductID, qty)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) updateCartItem(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.svc.Sales.UpdateItem(c.Request.Context(), c.Param("id"), c.Param("productId"), req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) removeCartItem(c *gin.Context) {
	view, err := h.svc.Sales.RemoveItem(c.Param("id"), c.Param("productId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) setDiscount(c *gin.Context) {
	var req discountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.svc.Sales.SetDiscount(c.Param("id"), req.Discount)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

func (h *Handler) setPaymentMethod(c *gin.Context) {
	var req paymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	view, err := h.svc.Sales.SetPaymentMethod(c.Param("id"), req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, view)
}

// completeSale submits the cart; the cart ID doubles as the idempotency key.
func (h *Handler) completeSale(c *gin.Context) {
	res, err := h.svc.Sales.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, res)
}
