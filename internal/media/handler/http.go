package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/fekuna/omnipos-eyewear-service/internal/auth"
	"github.com/fekuna/omnipos-eyewear-service/internal/httpx"
	"github.com/fekuna/omnipos-eyewear-service/internal/media"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxFilesPerRequest = 10

type HTTPHandler struct {
	svc    *media.Service
	logger logger.ZapLogger
}

func NewHTTPHandler(svc *media.Service, log logger.ZapLogger) *HTTPHandler {
	return &HTTPHandler{svc: svc, logger: log}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/media", h.upload)
	rg.GET("/media/url", h.signedURL)
}

func (h *HTTPHandler) upload(c *gin.Context) {
	vendorID := auth.GetVendorID(c.Request.Context())
	if vendorID == "" {
		httpx.Fail(c, http.StatusUnauthorized, "missing vendor context")
		return
	}
	form, err := c.MultipartForm()
	if err != nil {
		httpx.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	headers := form.File["files"]
	if len(headers) > maxFilesPerRequest {
		httpx.Fail(c, http.StatusBadRequest, "too many files")
		return
	}

	files := make([]media.File, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		files = append(files, media.File{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Open:        func() (io.ReadCloser, error) { return fh.Open() },
		})
	}

	res, err := h.svc.Upload(c.Request.Context(), vendorID, files)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrNoFiles):
			httpx.Fail(c, http.StatusBadRequest, err.Error())
			return
		case errors.Is(err, media.ErrVendorRequired):
			httpx.Fail(c, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("failed to upload images", zap.Error(err))
		httpx.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.OK(c, http.StatusOK, "ok", res)
}

type signedURLQuery struct {
	Path string `form:"path" binding:"required"`
}

func (h *HTTPHandler) signedURL(c *gin.Context) {
	vendorID := auth.GetVendorID(c.Request.Context())
	if vendorID == "" {
		httpx.Fail(c, http.StatusUnauthorized, "missing vendor context")
		return
	}
	var q signedURLQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpx.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	url, err := h.svc.SignedViewURL(vendorID, q.Path)
	if err != nil {
		switch {
		case errors.Is(err, media.ErrForeignPath):
			httpx.Fail(c, http.StatusNotFound, err.Error())
			return
		case errors.Is(err, media.ErrVendorRequired):
			httpx.Fail(c, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.Error("failed to sign image url", zap.String("path", q.Path), zap.Error(err))
		httpx.Fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	httpx.OK(c, http.StatusOK, "ok", gin.H{"url": url})
}
