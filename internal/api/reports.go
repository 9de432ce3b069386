package api

import (
	"net/http"

	"fashionstock-dashboard/internal/report"

	"github.com/gin-gonic/gin"
)

// getDashboard serves the poller's last summary; ?refresh=1 forces a rebuild.
func (h *Handler) getDashboard(c *gin.Context) {
	force := c.Query("refresh") == "1" || c.Query("refresh") == "true"
	respond(c, http.StatusOK, h.svc.Dashboard.Summary(c.Request.Context(), force))
}

func (h *Handler) getQuickStats(c *gin.Context) {
	respond(c, http.StatusOK, h.svc.Reports.QuickStats(c.Request.Context()))
}

func (h *Handler) getReport(c *gin.Context) {
	snap, err := h.svc.Reports.Snapshot(c.Request.Context(), report.Kind(c.Param("kind")), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, snap)
}

func (h *Handler) exportReport(c *gin.Context) {
	file, err := h.svc.Reports.Export(c.Request.Context(), report.Kind(c.Param("kind")), c.Param("format"), c.Query("period"))
	if err != nil {
		respondError(c, err)
		return
	}
	sendFile(c, file)
}
