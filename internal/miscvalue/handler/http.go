package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-eyewear-service/internal/auth"
	"github.com/fekuna/omnipos-eyewear-service/internal/httpx"
	"github.com/fekuna/omnipos-eyewear-service/internal/miscvalue"
	"github.com/fekuna/omnipos-eyewear-service/internal/miscvalue/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HTTPHandler struct {
	uc     miscvalue.UseCase
	logger logger.ZapLogger
}

func NewHTTPHandler(uc miscvalue.UseCase, log logger.ZapLogger) *HTTPHandler {
	return &HTTPHandler{uc: uc, logger: log}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/values/:type", h.list)
	rg.POST("/values/:type", h.add)
}

type addBody struct {
	Value string `json:"value" binding:"required,max=64"`
}

func (h *HTTPHandler) list(c *gin.Context) {
	values, err := h.uc.ListValues(c.Request.Context(), auth.GetVendorID(c.Request.Context()), model.ValueType(c.Param("type")))
	if err != nil {
		h.fail(c, "failed to list values", err)
		return
	}
	httpx.OK(c, http.StatusOK, "ok", values)
}

func (h *HTTPHandler) add(c *gin.Context) {
	vendorID := auth.GetVendorID(c.Request.Context())
	if vendorID == "" {
		httpx.Fail(c, http.StatusUnauthorized, "missing vendor context")
		return
	}
	var body addBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.uc.AddValue(c.Request.Context(), &dto.AddValueInput{
		VendorID: vendorID,
		Type:     model.ValueType(c.Param("type")),
		Value:    body.Value,
	})
	if err != nil {
		h.fail(c, "failed to add value", err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	httpx.OK(c, status, "ok", res)
}

func (h *HTTPHandler) fail(c *gin.Context, msg string, err error) {
	switch {
	case errors.Is(err, miscvalue.ErrUnknownValueType):
		httpx.Fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, miscvalue.ErrEmptyValue), errors.Is(err, miscvalue.ErrValueTooLong):
		httpx.Fail(c, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		httpx.Fail(c, http.StatusInternalServerError, "internal error")
	}
}
