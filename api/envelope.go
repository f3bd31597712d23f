package api

import (
	"retail_sales/internal/sales"

	"github.com/gin-gonic/gin"
)

// envelope is the body of every response.
type envelope struct {
	Success    bool              `json:"success"`
	Data       interface{}       `json:"data,omitempty"`
	Message    string            `json:"message,omitempty"`
	Error      string            `json:"error,omitempty"`
	Pagination *sales.Pagination `json:"pagination,omitempty"`
}

func respondData(ctx *gin.Context, status int, data interface{}, message string) {
	ctx.JSON(status, envelope{Success: true, Data: data, Message: message})
}

func respondPage(ctx *gin.Context, status int, data interface{}, pagination sales.Pagination) {
	ctx.JSON(status, envelope{Success: true, Data: data, Pagination: &pagination})
}

func respondError(ctx *gin.Context, status int, message, detail string) {
	ctx.AbortWithStatusJSON(status, envelope{Success: false, Message: message, Error: detail})
}
