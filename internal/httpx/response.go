package httpx

import (
	"net/http"

	"github.com/fekuna/omnipos-eyewear-service/internal/validation"
	"github.com/gin-gonic/gin"
)

// Response is the envelope every console endpoint answers with.
type Response struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Data    any                   `json:"data,omitempty"`
	Errors  validation.Violations `json:"errors,omitempty"`
	Meta    *Meta                 `json:"meta,omitempty"`
}

type Meta struct {
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func Page(c *gin.Context, data any, meta Meta) {
	c.JSON(http.StatusOK, Response{Success: true, Message: "ok", Data: data, Meta: &meta})
}

func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}

// Invalid reports the full violation list; the console decides how much of
// it to show.
func Invalid(c *gin.Context, v validation.Violations) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{
		Success: false,
		Message: "validation failed",
		Errors:  v,
	})
}
