package doseunit

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medtrack-api/internal/handler"
	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/service/doseunit"
)

type Handler struct {
	service *doseunit.Service
}

func NewHandler(service *doseunit.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	units := r.Group("/dose-units")
	{
		units.POST("", h.CreateDoseUnit)
		units.GET("", h.ListDoseUnits)
		units.GET("/:id", h.GetDoseUnit)
		units.PUT("/:id", h.UpdateDoseUnit)
		units.DELETE("/:id", h.DeleteDoseUnit)
	}
}

func (h *Handler) CreateDoseUnit(c *gin.Context) {
	var req model.CreateDoseUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	unit, err := h.service.CreateDoseUnit(c.Request.Context(), &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(unit))
}

func (h *Handler) GetDoseUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dose unit ID"))
		return
	}

	unit, err := h.service.GetDoseUnit(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(unit))
}

func (h *Handler) ListDoseUnits(c *gin.Context) {
	units, err := h.service.ListDoseUnits(c.Request.Context())
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(units))
}

func (h *Handler) UpdateDoseUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dose unit ID"))
		return
	}

	var req model.UpdateDoseUnitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	unit, err := h.service.UpdateDoseUnit(c.Request.Context(), id, &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(unit))
}

func (h *Handler) DeleteDoseUnit(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dose unit ID"))
		return
	}

	if err := h.service.DeleteDoseUnit(c.Request.Context(), id); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
