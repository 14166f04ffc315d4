package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"plantmonitor/internal/service"
)

type DashboardHandler struct {
	Dashboard *service.DashboardService

	// SummaryHours is the default KPI window when the client sends none.
	SummaryHours int
}

func (h *DashboardHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/dashboard")
	group.GET("/summary/:facility_id", h.summary)
	group.GET("/timeseries/:facility_id", h.timeseries)
}

func (h *DashboardHandler) summary(c *gin.Context) {
	if h.Dashboard == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	defHours := h.SummaryHours
	if defHours <= 0 {
		defHours = 24
	}
	hours := intQuery(c, "hours", defHours, 1, 48)

	summary, err := h.Dashboard.Summary(c.Request.Context(), c.Param("facility_id"), hours)
	if err != nil {
		if errors.Is(err, service.ErrFacilityNotFound) {
			Error(c, http.StatusNotFound, "facility not found", nil)
			return
		}
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, summary, nil)
}

func (h *DashboardHandler) timeseries(c *gin.Context) {
	if h.Dashboard == nil {
		Error(c, http.StatusInternalServerError, "service unavailable", nil)
		return
	}
	metric := strings.TrimSpace(c.Query("metric"))
	if metric == "" {
		Error(c, http.StatusBadRequest, "metric query parameter is required", nil)
		return
	}
	hours := intQuery(c, "hours", 24, 1, 48)
	bucketMinutes := intQuery(c, "bucket_minutes", 5, 1, 60)

	series, err := h.Dashboard.Timeseries(c.Request.Context(), c.Param("facility_id"), metric, hours, bucketMinutes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFacilityNotFound):
			Error(c, http.StatusNotFound, "facility not found", nil)
		case errors.Is(err, service.ErrUnknownMetric):
			Error(c, http.StatusBadRequest, "unknown metric: "+metric, nil)
		default:
			Error(c, http.StatusBadGateway, err.Error(), nil)
		}
		return
	}
	Ok(c, series, nil)
}
