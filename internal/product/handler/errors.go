package handler

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-eyewear-service/internal/product"
	"github.com/fekuna/omnipos-eyewear-service/internal/schema"
	"github.com/fekuna/omnipos-eyewear-service/internal/variant"
	"google.golang.org/grpc/codes"
)

// classify maps a catalog error onto transport codes. Unknown errors are
// internal and their text is not echoed.
func classify(err error) (codes.Code, int, string) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		return codes.NotFound, http.StatusNotFound, err.Error()
	case errors.Is(err, product.ErrProductCodeTaken):
		return codes.AlreadyExists, http.StatusConflict, err.Error()
	case errors.Is(err, product.ErrStaleVersion):
		return codes.FailedPrecondition, http.StatusConflict, err.Error()
	case errors.Is(err, product.ErrVendorRequired):
		return codes.Unauthenticated, http.StatusUnauthorized, err.Error()
	case errors.Is(err, schema.ErrUnknownCategory),
		errors.Is(err, schema.ErrLensTypeRequired),
		errors.Is(err, schema.ErrUnknownLensType),
		errors.Is(err, schema.ErrLensTypeNotApplicable),
		errors.Is(err, variant.ErrVariantNotFound),
		errors.Is(err, variant.ErrUnknownField),
		errors.Is(err, variant.ErrInvalidValue),
		errors.Is(err, variant.ErrDerivedField),
		errors.Is(err, variant.ErrUnknownAction):
		return codes.InvalidArgument, http.StatusBadRequest, err.Error()
	default:
		return codes.Internal, http.StatusInternalServerError, "internal error"
	}
}
