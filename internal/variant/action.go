package variant

import (
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-eyewear-service/internal/model"
)

var ErrUnknownAction = errors.New("unknown action")

type ActionType string

const (
	ActionAddVariant      ActionType = "add_variant"
	ActionRemoveVariant   ActionType = "remove_variant"
	ActionUpdateField     ActionType = "update_field"
	ActionSetProductField ActionType = "set_product_field"
	ActionSetLensType     ActionType = "set_lens_type"
)

// Action is one console edit, sent over the wire as JSON.
type Action struct {
	Type      ActionType     `json:"type" binding:"required"`
	VariantID string         `json:"variant_id,omitempty"`
	Path      string         `json:"path,omitempty"`
	Value     any            `json:"value,omitempty"`
	LensType  model.LensType `json:"lens_type,omitempty"`
	Template  *model.Variant `json:"template,omitempty"`
}

// Apply dispatches a to the matching editor operation.
func (e *Editor) Apply(d Draft, a Action) (Draft, error) {
	switch a.Type {
	case ActionAddVariant:
		out, _, err := e.AddVariant(d, a.Template)
		return out, err
	case ActionRemoveVariant:
		return e.RemoveVariant(d, a.VariantID)
	case ActionUpdateField:
		return e.UpdateVariantField(d, a.VariantID, a.Path, a.Value)
	case ActionSetProductField:
		return e.SetProductField(d, a.Path, a.Value)
	case ActionSetLensType:
		return e.RetargetForDiscriminator(d, a.LensType)
	default:
		return Draft{}, fmt.Errorf("%w: %q", ErrUnknownAction, a.Type)
	}
}
