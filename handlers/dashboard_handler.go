package handlers

import (
	"net/http"

	"github.com/Temirlan00/league-system/services"
)

type DashboardHandler struct {
	dashboardService services.DashboardService
}

func NewDashboardHandler(ds services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: ds}
}

// StatsHandler обрабатывает GET /api/admin/dashboard/stats
func (h *DashboardHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboardService.GetStats(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, err)
		return
	}
	dataResponse(w, http.StatusOK, stats)
}
