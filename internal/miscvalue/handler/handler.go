package handler

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-eyewear-service/internal/auth"
	"github.com/fekuna/omnipos-eyewear-service/internal/miscvalue"
	"github.com/fekuna/omnipos-eyewear-service/internal/miscvalue/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/fekuna/omnipos-eyewear-service/internal/rpc"
	"github.com/fekuna/omnipos-eyewear-service/pkg/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var _ rpc.ValueRegistryServer = (*ValueHandler)(nil)

type ValueHandler struct {
	uc     miscvalue.UseCase
	logger logger.ZapLogger
}

func NewValueHandler(uc miscvalue.UseCase, log logger.ZapLogger) *ValueHandler {
	return &ValueHandler{
		uc:     uc,
		logger: log,
	}
}

type valueRequest struct {
	Type  model.ValueType `json:"type"`
	Value string          `json:"value"`
}

func (h *ValueHandler) ListValues(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req valueRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	values, err := h.uc.ListValues(ctx, auth.GetVendorID(ctx), req.Type)
	if err != nil {
		return nil, h.grpcError("failed to list values", err)
	}
	return rpc.Encode(map[string]any{"type": req.Type, "values": values})
}

func (h *ValueHandler) AddValue(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	vendorID := auth.GetVendorID(ctx)
	if vendorID == "" {
		return nil, status.Error(codes.Unauthenticated, "missing vendor context")
	}
	var req valueRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}

	res, err := h.uc.AddValue(ctx, &dto.AddValueInput{VendorID: vendorID, Type: req.Type, Value: req.Value})
	if err != nil {
		return nil, h.grpcError("failed to add value", err)
	}
	return rpc.Encode(res)
}

func (h *ValueHandler) grpcError(msg string, err error) error {
	switch {
	case errors.Is(err, miscvalue.ErrUnknownValueType),
		errors.Is(err, miscvalue.ErrEmptyValue),
		errors.Is(err, miscvalue.ErrValueTooLong):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		h.logger.Error(msg, zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}
