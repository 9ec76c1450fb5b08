package variant

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
	"github.com/shopspring/decimal"
)

// Console inputs arrive either typed or as the raw text of a form field.

func parseMoney(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, nil
	case json.Number:
		return decimal.NewFromString(n.String())
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return decimal.Zero, nil
		}
		return decimal.NewFromString(s)
	default:
		return decimal.Zero, fmt.Errorf("%w: %T is not an amount", ErrInvalidValue, v)
	}
}

func parseFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	case decimal.Decimal:
		return n.InexactFloat64(), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	default:
		return 0, fmt.Errorf("%w: %T is not a number", ErrInvalidValue, v)
	}
}

func parseInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("%w: %v is not a whole number", ErrInvalidValue, n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		return int(i), err
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("%w: %T is not an integer", ErrInvalidValue, v)
	}
}

func parseBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(b))
	default:
		return false, fmt.Errorf("%w: %T is not a boolean", ErrInvalidValue, v)
	}
}

func parseImages(v any) (model.Images, error) {
	switch list := v.(type) {
	case nil:
		return model.Images{}, nil
	case model.Images:
		return append(model.Images(nil), list...), nil
	case []model.Image:
		return append(model.Images(nil), list...), nil
	case []string:
		out := make(model.Images, len(list))
		for i, s := range list {
			out[i] = model.Image{URL: s}
		}
		return out, nil
	case []any:
		out := make(model.Images, 0, len(list))
		for _, item := range list {
			switch it := item.(type) {
			case string:
				out = append(out, model.Image{URL: it})
			case map[string]any:
				url, ok := it["url"].(string)
				if !ok {
					return nil, fmt.Errorf("%w: image entry without url", ErrInvalidValue)
				}
				out = append(out, model.Image{URL: url})
			default:
				return nil, fmt.Errorf("%w: image entry of type %T", ErrInvalidValue, item)
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %T is not an image list", ErrInvalidValue, v)
	}
}
