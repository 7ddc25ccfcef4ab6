package handler

import (
	"net/http"

	"rentalyard/internal/middleware"
	"rentalyard/internal/service"
	"rentalyard/pkg/pagination"
	"rentalyard/pkg/response"

	"github.com/gin-gonic/gin"
)

type EquipmentHandler struct {
	equipmentService service.EquipmentService
	lifecycleService service.LifecycleService
	auth             *middleware.Auth
}

func NewEquipmentHandler(equipmentService service.EquipmentService, lifecycleService service.LifecycleService, auth *middleware.Auth) *EquipmentHandler {
	return &EquipmentHandler{
		equipmentService: equipmentService,
		lifecycleService: lifecycleService,
		auth:             auth,
	}
}

func (h *EquipmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	equipment := router.Group("/api/equipment")
	equipment.Use(h.auth.RequireRole(middleware.AllRoles...))
	{
		equipment.GET("", h.ListEquipment)
		equipment.POST("", h.auth.RequireRole(middleware.RoleAdmin, middleware.RoleManager), h.CreateEquipment)
		equipment.GET("/:id", h.GetEquipment)
		equipment.GET("/:id/rental-history", h.GetRentalHistory)
		equipment.GET("/:id/maintenance-history", h.GetMaintenanceHistory)

		equipment.POST("/:id/reserve", h.Reserve)
		equipment.POST("/:id/cancel-reservation", h.CancelReservation)
		equipment.POST("/:id/begin-rental", h.BeginRental)
		equipment.POST("/:id/rent", h.BeginRentalDirect)
		equipment.POST("/:id/return", h.ReturnUnit)
		equipment.POST("/:id/complete-maintenance", h.CompleteMaintenance)
	}
}

// ListEquipment handles retrieving the paginated fleet
// @Summary      List equipment
// @Description  Retrieves a paginated list of equipment units, optionally filtered by status
// @Tags         equipment
// @Security     BearerAuth
// @Produce      json
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Param        status    query     string  false  "ON_YARD, RESERVED, RENTED or IN_MAINTENANCE"
// @Param        category  query     string  false  "Category"
// @Param        search    query     string  false  "Search by designation or serial number"
// @Success      200       {object}  response.Response{data=object}
// @Failure      400       {object}  response.Response
// @Failure      500       {object}  response.Response
// @Router       /api/equipment [get]
func (h *EquipmentHandler) ListEquipment(c *gin.Context) {
	p := pagination.Parse(c)
	filter := service.EquipmentListFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}

	units, total, err := h.equipmentService.ListEquipment(c.Request.Context(), filter, p.Page, p.Limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, p.Envelope("equipment", units, total)))
}

// CreateEquipment registers a new unit on the yard
// @Summary      Create equipment
// @Description  Registers a new equipment unit; it starts ON_YARD
// @Tags         equipment
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateEquipmentRequest  true  "Create Equipment Payload"
// @Success      201      {object}  response.Response{data=service.EquipmentResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/equipment [post]
func (h *EquipmentHandler) CreateEquipment(c *gin.Context) {
	var req service.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	unit, err := h.equipmentService.CreateEquipment(c.Request.Context(), middleware.Actor(c), req)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, unit))
}

// GetEquipment returns one unit with its allowed events
// @Summary      Get equipment
// @Tags         equipment
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Equipment ID"
// @Success      200  {object}  response.Response{data=service.EquipmentResponse}
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/equipment/{id} [get]
func (h *EquipmentHandler) GetEquipment(c *gin.Context) {
	unit, err := h.equipmentService.GetEquipment(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// GetRentalHistory lists archived rentals by return date
// @Summary      Rental history
// @Tags         equipment
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Equipment ID"
// @Success      200  {object}  response.Response{data=[]service.RentalEpisodeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/equipment/{id}/rental-history [get]
func (h *EquipmentHandler) GetRentalHistory(c *gin.Context) {
	eps, err := h.equipmentService.RentalHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, eps))
}

// GetMaintenanceHistory lists archived maintenance cycles by entry time
// @Summary      Maintenance history
// @Tags         equipment
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Equipment ID"
// @Success      200  {object}  response.Response{data=[]service.MaintenanceEpisodeResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/equipment/{id}/maintenance-history [get]
func (h *EquipmentHandler) GetMaintenanceHistory(c *gin.Context) {
	eps, err := h.equipmentService.MaintenanceHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, eps))
}

// Reserve books an ON_YARD unit for a client
// @Summary      Reserve equipment
// @Tags         lifecycle
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                  true  "Equipment ID"
// @Param        payload  body      service.ReserveRequest  true  "Reservation"
// @Success      200      {object}  response.Response{data=service.EquipmentResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/equipment/{id}/reserve [post]
func (h *EquipmentHandler) Reserve(c *gin.Context) {
	var req service.ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	unit, err := h.lifecycleService.Reserve(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// CancelReservation puts a RESERVED unit back on the yard
// @Summary      Cancel reservation
// @Tags         lifecycle
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Equipment ID"
// @Success      200  {object}  response.Response{data=service.EquipmentResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/equipment/{id}/cancel-reservation [post]
func (h *EquipmentHandler) CancelReservation(c *gin.Context) {
	unit, err := h.lifecycleService.CancelReservation(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// BeginRental hands a RESERVED unit to its client
// @Summary      Begin reserved rental
// @Tags         lifecycle
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Equipment ID"
// @Success      200  {object}  response.Response{data=service.EquipmentResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/equipment/{id}/begin-rental [post]
func (h *EquipmentHandler) BeginRental(c *gin.Context) {
	unit, err := h.lifecycleService.BeginRental(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// BeginRentalDirect rents an ON_YARD unit without a reservation
// @Summary      Rent equipment
// @Tags         lifecycle
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Equipment ID"
// @Param        payload  body      service.RentRequest  true  "Rental"
// @Success      200      {object}  response.Response{data=service.EquipmentResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/equipment/{id}/rent [post]
func (h *EquipmentHandler) BeginRentalDirect(c *gin.Context) {
	var req service.RentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	unit, err := h.lifecycleService.BeginRentalDirect(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}

// ReturnUnit closes a rental, bills it and sends the unit to maintenance
// @Summary      Return equipment
// @Tags         lifecycle
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Equipment ID"
// @Param        payload  body      service.ReturnRequest  true  "Return"
// @Success      200      {object}  response.Response{data=service.ReturnResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      500      {object}  response.Response
// @Router       /api/equipment/{id}/return [post]
func (h *EquipmentHandler) ReturnUnit(c *gin.Context) {
	var req service.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.lifecycleService.ReturnUnit(c.Request.Context(), middleware.Actor(c), c.Param("id"), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// CompleteMaintenance puts a unit back on the yard
// @Summary      Complete maintenance
// @Tags         lifecycle
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Equipment ID"
// @Success      200  {object}  response.Response{data=service.EquipmentResponse}
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/equipment/{id}/complete-maintenance [post]
func (h *EquipmentHandler) CompleteMaintenance(c *gin.Context) {
	unit, err := h.lifecycleService.CompleteMaintenance(c.Request.Context(), middleware.Actor(c), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, unit))
}
