package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-eyewear-service/internal/auth"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/product"
	"github.com/fekuna/omnipos-eyewear-service/internal/product/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/rpc"
	"github.com/fekuna/omnipos-eyewear-service/internal/validation"
	"github.com/fekuna/omnipos-eyewear-service/internal/variant"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProductHandler serves rpc.CatalogServiceDesc.
type ProductHandler struct {
	uc     product.UseCase
	logger logger.ZapLogger
}

var _ rpc.CatalogServer = (*ProductHandler)(nil)

func NewProductHandler(uc product.UseCase, log logger.ZapLogger) *ProductHandler {
	return &ProductHandler{
		uc:     uc,
		logger: log,
	}
}

type createRequest struct {
	Category model.Category `json:"category"`
	Product  map[string]any `json:"product"`
}

type updateRequest struct {
	ID      string         `json:"id"`
	Version int64          `json:"version"`
	Product map[string]any `json:"product"`
}

type idRequest struct {
	ID string `json:"id"`
}

type newDraftRequest struct {
	Category model.Category `json:"category"`
	LensType model.LensType `json:"lens_type"`
}

type applyRequest struct {
	Draft   variant.Draft    `json:"draft"`
	Actions []variant.Action `json:"actions"`
}

type validateRequest struct {
	Draft variant.Draft `json:"draft"`
}

func (h *ProductHandler) CreateProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	vendorID := auth.GetVendorID(ctx)
	if vendorID == "" {
		return nil, status.Error(codes.Unauthenticated, "missing vendor")
	}
	var req createRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}

	res, err := h.uc.CreateProduct(ctx, &dto.CreateProductInput{
		VendorID: vendorID,
		Category: req.Category,
		Payload:  req.Product,
	})
	if err != nil {
		return nil, h.grpcError("failed to create product", err)
	}
	return rpc.Encode(res)
}

func (h *ProductHandler) UpdateProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	vendorID := auth.GetVendorID(ctx)
	if vendorID == "" {
		return nil, status.Error(codes.Unauthenticated, "missing vendor")
	}
	var req updateRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	if req.ID == "" || req.Version <= 0 {
		return nil, status.Error(codes.InvalidArgument, "id and version are required")
	}

	res, err := h.uc.UpdateProduct(ctx, &dto.UpdateProductInput{
		ID:              req.ID,
		VendorID:        vendorID,
		ExpectedVersion: req.Version,
		Payload:         req.Product,
	})
	if err != nil {
		return nil, h.grpcError("failed to update product", err)
	}
	return rpc.Encode(res)
}

func (h *ProductHandler) GetProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req idRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	p, err := h.uc.GetProduct(ctx, auth.GetVendorID(ctx), req.ID)
	if err != nil {
		return nil, h.grpcError("failed to get product", err)
	}
	return rpc.Encode(map[string]any{"product": p})
}

func (h *ProductHandler) ListProducts(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var filters dto.ProductFilters
	if err := rpc.Decode(in, &filters); err != nil {
		return nil, err
	}
	filters.VendorID = auth.GetVendorID(ctx)

	products, count, err := h.uc.ListProducts(ctx, &filters)
	if err != nil {
		return nil, h.grpcError("failed to list products", err)
	}
	return rpc.Encode(map[string]any{
		"products":  products,
		"total":     count,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func (h *ProductHandler) DeleteProduct(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	vendorID := auth.GetVendorID(ctx)
	if vendorID == "" {
		return nil, status.Error(codes.Unauthenticated, "missing vendor")
	}
	var req idRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	if err := h.uc.DeleteProduct(ctx, vendorID, req.ID); err != nil {
		return nil, h.grpcError("failed to delete product", err)
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{}}, nil
}

func (h *ProductHandler) NewDraft(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req newDraftRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	d, err := h.uc.NewDraft(req.Category, req.LensType)
	if err != nil {
		return nil, h.grpcError("failed to start draft", err)
	}
	return rpc.Encode(map[string]any{"draft": d})
}

func (h *ProductHandler) ApplyActions(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req applyRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	d, err := h.uc.ApplyActions(req.Draft, req.Actions...)
	if err != nil {
		return nil, h.grpcError("failed to apply draft actions", err)
	}
	return rpc.Encode(map[string]any{"draft": d})
}

func (h *ProductHandler) ValidateDraft(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req validateRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	res, err := h.uc.ValidateDraft(ctx, auth.GetVendorID(ctx), req.Draft)
	if err != nil {
		return nil, h.grpcError("failed to validate draft", err)
	}
	return rpc.Encode(res)
}

func (h *ProductHandler) grpcError(msg string, err error) error {
	var v validation.Violations
	if errors.As(err, &v) {
		return rpc.ViolationStatus(v)
	}
	code, _, text := classify(err)
	if code == codes.Internal {
		h.logger.Error(msg, zap.Error(err))
	}
	return status.Error(code, text)
}
