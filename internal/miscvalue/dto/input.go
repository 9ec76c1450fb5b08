package dto

import "github.com/fekuna/omnipos-eyewear-service/internal/model"

type AddValueInput struct {
	VendorID string
	Type     model.ValueType
	Value    string
}

type AddValueResult struct {
	Type    model.ValueType `json:"type"`
	Value   string          `json:"value"`
	Created bool            `json:"created"`
}
