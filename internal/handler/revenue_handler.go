package handler

import (
	"net/http"

	"rentalyard/internal/middleware"
	"rentalyard/internal/service"
	"rentalyard/pkg/response"

	"github.com/gin-gonic/gin"
)

type RevenueHandler struct {
	revenueService service.RevenueService
	auth           *middleware.Auth
}

func NewRevenueHandler(revenueService service.RevenueService, auth *middleware.Auth) *RevenueHandler {
	return &RevenueHandler{revenueService: revenueService, auth: auth}
}

func (h *RevenueHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/revenue")
	group.Use(h.auth.RequireRole(middleware.RoleAdmin, middleware.RoleManager))
	{
		group.GET("", h.GetRevenue)
		group.GET("/equipment", h.GetRevenueByEquipment)
	}
}

func revenueFilter(c *gin.Context) service.RevenueFilter {
	return service.RevenueFilter{
		GroupBy:   c.DefaultQuery("group_by", "month"),
		StartDate: c.Query("start_date"),
		EndDate:   c.Query("end_date"),
	}
}

// GetRevenue aggregates CA by return period
// @Summary      Revenue by period
// @Description  Sums stored CA of returned rentals grouped by day, week, month, quarter or year of return
// @Tags         revenue
// @Security     BearerAuth
// @Produce      json
// @Param        group_by    query     string  false  "day, week, month (default), quarter, year"
// @Param        start_date  query     string  false  "Inclusive, default January 1st"
// @Param        end_date    query     string  false  "Inclusive, default today"
// @Success      200         {object}  response.Response{data=[]service.RevenueDataPoint}
// @Failure      400         {object}  response.Response
// @Failure      500         {object}  response.Response
// @Router       /api/revenue [get]
func (h *RevenueHandler) GetRevenue(c *gin.Context) {
	points, err := h.revenueService.GetRevenueStatistics(c.Request.Context(), revenueFilter(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, points))
}

// GetRevenueByEquipment totals CA per unit
// @Summary      Revenue by equipment
// @Tags         revenue
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query     string  false  "Inclusive, default January 1st"
// @Param        end_date    query     string  false  "Inclusive, default today"
// @Success      200         {object}  response.Response{data=[]service.EquipmentRevenuePoint}
// @Failure      400         {object}  response.Response
// @Router       /api/revenue/equipment [get]
func (h *RevenueHandler) GetRevenueByEquipment(c *gin.Context) {
	points, err := h.revenueService.RevenueByEquipment(c.Request.Context(), revenueFilter(c))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, points))
}
