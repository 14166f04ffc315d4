package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"plantmonitor/internal/service"
)

type FacilityHandler struct {
	Dashboard *service.DashboardService
}

func (h *FacilityHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/facilities")
	group.GET("", h.listFacilities)
	group.GET("/:facility_id", h.getFacility)
}

func (h *FacilityHandler) listFacilities(c *gin.Context) {
	if h.Dashboard == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	items, err := h.Dashboard.ListFacilities(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"total": len(items)})
}

func (h *FacilityHandler) getFacility(c *gin.Context) {
	if h.Dashboard == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	summary, err := h.Dashboard.Summary(c.Request.Context(), c.Param("facility_id"), 24)
	if err != nil {
		if errors.Is(err, service.ErrFacilityNotFound) {
			Error(c, http.StatusNotFound, "facility not found", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{
		"id":          summary.FacilityID,
		"name":        summary.FacilityName,
		"location":    summary.Location,
		"type":        summary.FacilityType,
		"asset_count": summary.TotalAssets,
	}, nil)
}
