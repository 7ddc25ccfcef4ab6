package handler

import (
	"net/http"

	"rentalyard/internal/calendar"
	"rentalyard/internal/middleware"
	"rentalyard/pkg/response"

	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	calendar *calendar.Service
	auth     *middleware.Auth
}

func NewCalendarHandler(cal *calendar.Service, auth *middleware.Auth) *CalendarHandler {
	return &CalendarHandler{calendar: cal, auth: auth}
}

func (h *CalendarHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/calendar")
	group.Use(h.auth.RequireRole(middleware.AllRoles...))
	{
		group.GET("/business-days", h.GetBusinessDays)
		group.GET("/holidays", h.GetHolidays)
	}
}

// GetBusinessDays counts billable days in [start, end)
// @Summary      Count business days
// @Description  Counts Monday-Friday dates in [start, end) minus public holidays. Accepts ISO or DD/MM/YYYY dates.
// @Tags         calendar
// @Security     BearerAuth
// @Produce      json
// @Param        start  query     string  true  "First day (billed)"
// @Param        end    query     string  true  "Last day (not billed)"
// @Success      200    {object}  response.Response{data=object}
// @Failure      400    {object}  response.Response
// @Router       /api/calendar/business-days [get]
func (h *CalendarHandler) GetBusinessDays(c *gin.Context) {
	start, err := h.calendar.ToCanonicalDate(c.Query("start"))
	if err != nil {
		badRequest(c, "start: "+err.Error())
		return
	}
	end, err := h.calendar.ToCanonicalDate(c.Query("end"))
	if err != nil {
		badRequest(c, "end: "+err.Error())
		return
	}

	days, err := h.calendar.BusinessDayCount(start, end)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"start":            start,
		"end":              end,
		"business_days":    days,
		"holiday_calendar": h.calendar.HolidayVersion(),
	}))
}

// GetHolidays lists the loaded holiday table
// @Summary      List holidays
// @Tags         calendar
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/calendar/holidays [get]
func (h *CalendarHandler) GetHolidays(c *gin.Context) {
	table := h.calendar.Holidays()
	jurisdiction := ""
	if table != nil {
		jurisdiction = table.Jurisdiction
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"version":      h.calendar.HolidayVersion(),
		"jurisdiction": jurisdiction,
		"holidays":     table.Holidays(),
	}))
}
