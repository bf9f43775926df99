package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/medtrack-api/internal/dosing"
	"github.com/jwalitptl/medtrack-api/internal/repository"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// WriteError maps service errors onto HTTP responses. Dosing rejections are
// 422 with the violated rule's kind; unknown ids are 404; deleting an
// in-use dose unit is 409. Anything else is a 500.
func WriteError(c *gin.Context, err error) {
	if kind, ok := dosing.KindOf(err); ok {
		c.JSON(http.StatusUnprocessableEntity, &Response{
			Status:  "error",
			Message: err.Error(),
			Kind:    string(kind),
		})
		return
	}
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, NewErrorResponse("record not found"))
		return
	}
	if errors.Is(err, repository.ErrUnitInUse) {
		c.JSON(http.StatusConflict, NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusInternalServerError, NewErrorResponse(err.Error()))
}
