package miscvalue

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-eyewear-service/internal/miscvalue/dto"
	"github.com/fekuna/omnipos-eyewear-service/internal/model"
)

var (
	ErrUnknownValueType = errors.New("unknown value type")
	ErrEmptyValue       = errors.New("value must not be empty")
	ErrValueTooLong     = errors.New("value is too long")
)

type UseCase interface {
	ListValues(ctx context.Context, vendorID string, valueType model.ValueType) ([]string, error)
	AddValue(ctx context.Context, input *dto.AddValueInput) (*dto.AddValueResult, error)
	UnknownValues(ctx context.Context, vendorID string, valueType model.ValueType, values []string) ([]string, error)
}
