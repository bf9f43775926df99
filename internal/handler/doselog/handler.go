package doselog

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/medtrack-api/internal/handler"
	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/service/doselog"
)

type Handler struct {
	service *doselog.Service
}

func NewHandler(service *doselog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	logs := r.Group("/dose-logs")
	{
		logs.POST("", h.CreateDoseLog)
		logs.GET("", h.ListDoseLogs)
		logs.GET("/:id", h.GetDoseLog)
		logs.PUT("/:id", h.UpdateDoseLog)
		logs.DELETE("/:id", h.DeleteDoseLog)
	}
}

func (h *Handler) CreateDoseLog(c *gin.Context) {
	var req model.CreateDoseLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	log, err := h.service.CreateDoseLog(c.Request.Context(), &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(log))
}

func (h *Handler) GetDoseLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dose log ID"))
		return
	}

	log, err := h.service.GetDoseLog(c.Request.Context(), id)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(log))
}

func (h *Handler) ListDoseLogs(c *gin.Context) {
	filters := &model.DoseLogFilters{
		Status: model.DoseLogStatus(c.Query("status")),
	}
	if raw := c.Query("schedule_id"); raw != "" {
		schedID, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid schedule_id filter"))
			return
		}
		filters.MedicationScheduleID = schedID
	}
	if raw := c.Query("taken_from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid taken_from filter"))
			return
		}
		filters.TakenFrom = &from
	}
	if raw := c.Query("taken_to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid taken_to filter"))
			return
		}
		filters.TakenTo = &to
	}

	logs, err := h.service.ListDoseLogs(c.Request.Context(), filters)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(logs))
}

func (h *Handler) UpdateDoseLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dose log ID"))
		return
	}

	var req model.UpdateDoseLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	log, err := h.service.UpdateDoseLog(c.Request.Context(), id, &req)
	if err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(log))
}

func (h *Handler) DeleteDoseLog(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid dose log ID"))
		return
	}

	if err := h.service.DeleteDoseLog(c.Request.Context(), id); err != nil {
		handler.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}
