package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-eyewear-service/internal/auth"
	"github.com/fekuna/omnipos-eyewear-service/internal/inventory"
	"github.com/fekuna/omnipos-eyewear-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/rpc"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ rpc.InventoryServer = (*InventoryHandler)(nil)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func vendorFrom(ctx context.Context) (string, error) {
	vendorID := auth.GetVendorID(ctx)
	if vendorID == "" {
		return "", status.Error(codes.Unauthenticated, "missing vendor context")
	}
	return vendorID, nil
}

func (h *InventoryHandler) AdjustStock(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	vendorID, err := vendorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req dto.AdjustStockInput
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	if req.VariantID == "" {
		return nil, status.Error(codes.InvalidArgument, "variant_id is required")
	}
	req.VendorID = vendorID
	req.UserID = auth.GetUserID(ctx)

	stock, err := h.uc.AdjustStock(ctx, &req)
	if err != nil {
		return nil, h.grpcError("failed to adjust stock", err)
	}
	return rpc.Encode(stock)
}

func (h *InventoryHandler) GetStock(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	vendorID, err := vendorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var req struct {
		VariantID string `json:"variant_id"`
	}
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}

	stock, err := h.uc.GetStock(ctx, vendorID, req.VariantID)
	if err != nil {
		return nil, h.grpcError("failed to get stock", err)
	}
	return rpc.Encode(stock)
}

func (h *InventoryHandler) ListLowStock(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	vendorID, err := vendorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var f dto.StockFilters
	if err := rpc.Decode(in, &f); err != nil {
		return nil, err
	}
	f.VendorID = vendorID

	items, total, err := h.uc.ListLowStock(ctx, &f)
	if err != nil {
		return nil, h.grpcError("failed to list low stock", err)
	}
	return rpc.Encode(map[string]any{"items": items, "total": total, "page": f.Page, "page_size": f.PageSize})
}

func (h *InventoryHandler) ListMovements(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	vendorID, err := vendorFrom(ctx)
	if err != nil {
		return nil, err
	}
	var f dto.MovementFilters
	if err := rpc.Decode(in, &f); err != nil {
		return nil, err
	}
	f.VendorID = vendorID

	items, total, err := h.uc.ListMovements(ctx, &f)
	if err != nil {
		return nil, h.grpcError("failed to list movements", err)
	}
	return rpc.Encode(map[string]any{"items": items, "total": total, "page": f.Page, "page_size": f.PageSize})
}

func (h *InventoryHandler) grpcError(msg string, err error) error {
	switch {
	case errors.Is(err, inventory.ErrStockNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, inventory.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, inventory.ErrLockBusy):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, inventory.ErrZeroQuantity):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
