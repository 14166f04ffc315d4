package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"plantmonitor/internal/repository"
)

type InsightHandler struct {
	Repo repository.Repository
}

func (h *InsightHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/insights/:facility_id", h.listActive)
}

func (h *InsightHandler) listActive(c *gin.Context) {
	if h.Repo == nil {
		Error(c, http.StatusInternalServerError, "repo unavailable", nil)
		return
	}
	items, err := h.Repo.ListActiveInsights(c.Request.Context(), c.Param("facility_id"))
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}
