package handler

import (
	"log/slog"
	"net/http"

	"dealflow/internal/authz"
	"dealflow/internal/middleware"
	"dealflow/internal/service"
	"dealflow/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	logger            *slog.Logger
}

func NewStatisticsHandler(statisticsService service.StatisticsService, logger *slog.Logger) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, logger: logger}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup, guard Guard) {
	statsGroup := router.Group("/api/statistics")
	{
		statsGroup.GET("", with(guard.Can(authz.ResourceStatistics, authz.ActionRead), h.GetStatistics)...)
	}
}

// @Summary      Get Dashboard Statistics
// @Description  System-wide counts plus per-submitter status counts and budget totals, recomputed on every call
// @Tags         Statistics
// @Produce      json
// @Success      200 {object} response.Response{data=model.DashboardStats}
// @Failure      401 {object} response.Response "Unauthorized"
// @Failure      403 {object} response.Response "Forbidden"
// @Security     BearerAuth
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	stats, err := h.statisticsService.Dashboard(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
