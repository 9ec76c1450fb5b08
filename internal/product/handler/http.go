package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-eyewear-service/internal/auth"
	"github.com/fekuna/omnipos-eyewear-service/internal/httpx"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/product"
	"github.com/fekuna/omnipos-eyewear-service/internal/product/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/validation"
	"github.com/fekuna/omnipos-eyewear-service/internal/variant"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HTTPHandler is the web console API for products and drafts.
type HTTPHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

func NewHTTPHandler(uc product.UseCase, log logger.ZapLogger) *HTTPHandler {
	return &HTTPHandler{uc: uc, logger: log}
}

func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.GET("", h.list)
	products.POST("/:category", h.create)
	products.GET("/:id", h.get)
	products.PUT("/:id", h.update)
	products.DELETE("/:id", h.delete)
	products.GET("/:id/draft", h.editDraft)

	drafts := rg.Group("/drafts")
	drafts.POST("", h.newDraft)
	drafts.POST("/actions", h.applyActions)
	drafts.POST("/validate", h.validateDraft)
}

type listQuery struct {
	Category  string `form:"category"`
	LensType  string `form:"lens_type"`
	BrandName string `form:"brand_name"`
	Q         string `form:"q"`
	SortBy    string `form:"sort_by" binding:"omitempty,oneof=brand_name product_code created_at updated_at"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
	Page      int    `form:"page" binding:"omitempty,min=1"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type newDraftBody struct {
	Category model.Category `json:"category" binding:"required"`
	LensType model.LensType `json:"lens_type"`
}

type applyBody struct {
	Draft   variant.Draft    `json:"draft"`
	Actions []variant.Action `json:"actions" binding:"required,min=1,dive"`
}

type validateBody struct {
	Draft variant.Draft `json:"draft"`
}

func (h *HTTPHandler) list(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httpx.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	filters := &dto.ProductFilters{
		VendorID:    auth.GetVendorID(c.Request.Context()),
		Category:    model.Category(q.Category),
		LensType:    model.LensType(q.LensType),
		BrandName:   q.BrandName,
		SearchQuery: strings.TrimSpace(q.Q),
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
		Page:        q.Page,
		PageSize:    q.PageSize,
	}
	products, count, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, "failed to list products", err)
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	httpx.Page(c, products, httpx.Meta{Total: count, Page: filters.Page, PageSize: filters.PageSize})
}

func (h *HTTPHandler) create(c *gin.Context) {
	payload, ok := decodePayload(c)
	if !ok {
		return
	}
	res, err := h.uc.CreateProduct(c.Request.Context(), &dto.CreateProductInput{
		VendorID: auth.GetVendorID(c.Request.Context()),
		Category: model.Category(c.Param("category")),
		Payload:  payload,
	})
	if err != nil {
		h.fail(c, "failed to create product", err)
		return
	}
	httpx.OK(c, http.StatusCreated, "product created", res)
}

func (h *HTTPHandler) get(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), auth.GetVendorID(c.Request.Context()), c.Param("id"))
	if err != nil {
		h.fail(c, "failed to get product", err)
		return
	}
	httpx.OK(c, http.StatusOK, "ok", p)
}

// update takes the expected version from If-Match, or from the version
// field of the body the console loaded.
func (h *HTTPHandler) update(c *gin.Context) {
	payload, ok := decodePayload(c)
	if !ok {
		return
	}

	version, err := expectedVersion(c.GetHeader("If-Match"), payload[model.KeyVersion])
	if err != nil {
		httpx.Fail(c, http.StatusPreconditionRequired, err.Error())
		return
	}

	res, err := h.uc.UpdateProduct(c.Request.Context(), &dto.UpdateProductInput{
		ID:              c.Param("id"),
		VendorID:        auth.GetVendorID(c.Request.Context()),
		ExpectedVersion: version,
		Payload:         payload,
	})
	if err != nil {
		h.fail(c, "failed to update product", err)
		return
	}
	httpx.OK(c, http.StatusOK, "product updated", res)
}

func (h *HTTPHandler) delete(c *gin.Context) {
	if err := h.uc.DeleteProduct(c.Request.Context(), auth.GetVendorID(c.Request.Context()), c.Param("id")); err != nil {
		h.fail(c, "failed to delete product", err)
		return
	}
	httpx.OK(c, http.StatusOK, "product deleted", nil)
}

func (h *HTTPHandler) editDraft(c *gin.Context) {
	d, version, err := h.uc.EditDraft(c.Request.Context(), auth.GetVendorID(c.Request.Context()), c.Param("id"))
	if err != nil {
		h.fail(c, "failed to open draft", err)
		return
	}
	httpx.OK(c, http.StatusOK, "ok", gin.H{"draft": d, "version": version})
}

func (h *HTTPHandler) newDraft(c *gin.Context) {
	var body newDraftBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.uc.NewDraft(body.Category, body.LensType)
	if err != nil {
		h.fail(c, "failed to start draft", err)
		return
	}
	httpx.OK(c, http.StatusCreated, "draft started", d)
}

func (h *HTTPHandler) applyActions(c *gin.Context) {
	var body applyBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	d, err := h.uc.ApplyActions(body.Draft, body.Actions...)
	if err != nil {
		h.fail(c, "failed to apply draft actions", err)
		return
	}
	httpx.OK(c, http.StatusOK, "ok", d)
}

func (h *HTTPHandler) validateDraft(c *gin.Context) {
	var body validateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		httpx.Fail(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.uc.ValidateDraft(c.Request.Context(), auth.GetVendorID(c.Request.Context()), body.Draft)
	if err != nil {
		h.fail(c, "failed to validate draft", err)
		return
	}
	httpx.OK(c, http.StatusOK, "draft is valid", res)
}

func (h *HTTPHandler) fail(c *gin.Context, msg string, err error) {
	var v validation.Violations
	if errors.As(err, &v) {
		httpx.Invalid(c, v)
		return
	}
	_, code, text := classify(err)
	if code == http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err))
	}
	httpx.Fail(c, code, text)
}

// decodePayload reads a product object keeping numbers exact.
func decodePayload(c *gin.Context) (map[string]any, bool) {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		httpx.Fail(c, http.StatusBadRequest, "body must be a JSON object")
		return nil, false
	}
	return payload, true
}

func expectedVersion(ifMatch string, bodyVersion any) (int64, error) {
	if s := strings.Trim(strings.TrimSpace(ifMatch), `"`); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v <= 0 {
			return 0, errors.New("If-Match must carry the product version")
		}
		return v, nil
	}
	if n, ok := bodyVersion.(json.Number); ok {
		v, err := n.Int64()
		if err == nil && v > 0 {
			return v, nil
		}
	}
	return 0, errors.New("product version is required to update")
}
