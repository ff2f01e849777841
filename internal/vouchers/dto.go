package vouchers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/enums"
)

// VoucherDTO is the transport shape for vouchers, including the computed
// validity fields clients rely on.
type VoucherDTO struct {
	ID          uuid.UUID           `json:"id"`
	Code        string              `json:"code"`
	Name        string              `json:"name"`
	Description string              `json:"description,omitempty"`
	Kind        enums.VoucherKind   `json:"kind"`
	KindLabel   string              `json:"kind_label"`
	Status      enums.VoucherStatus `json:"status"`
	StatusLabel string              `json:"status_label"`
	ValidFrom   time.Time           `json:"valid_from"`
	ValidUntil  time.Time           `json:"valid_until"`
	UsageLimit  *int                `json:"usage_limit,omitempty"`
	UsageCount  int                 `json:"usage_count"`

	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty"`
	MinPurchaseAmount  decimal.Decimal  `json:"min_purchase_amount"`
	MaxShippingAmount  *decimal.Decimal `json:"max_shipping_amount,omitempty"`

	IsValid         bool     `json:"is_valid"`
	IsExpired       bool     `json:"is_expired"`
	UsagePercentage *float64 `json:"usage_percentage,omitempty"`

	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// FromModel builds the transport shape, computing validity against now.
func FromModel(v *models.Voucher, now time.Time) *VoucherDTO {
	if v == nil {
		return nil
	}

	return &VoucherDTO{
		ID:                 v.ID,
		Code:               v.Code,
		Name:               v.Name,
		Description:        v.Description,
		Kind:               v.Kind,
		KindLabel:          v.Kind.Label(),
		Status:             v.Status,
		StatusLabel:        v.Status.Label(),
		ValidFrom:          v.ValidFrom,
		ValidUntil:         v.ValidUntil,
		UsageLimit:         v.UsageLimit,
		UsageCount:         v.UsageCount,
		DiscountPercentage: v.DiscountPercentage,
		MaxDiscountAmount:  v.MaxDiscountAmount,
		DiscountAmount:     v.DiscountAmount,
		MinPurchaseAmount:  v.MinPurchaseAmount,
		MaxShippingAmount:  v.MaxShippingAmount,
		IsValid:            IsValid(*v, now),
		IsExpired:          IsExpired(*v, now),
		UsagePercentage:    v.UsagePercentage(),
		CreatedBy:          v.CreatedBy,
		CreatedAt:          v.CreatedAt,
		UpdatedAt:          v.UpdatedAt,
	}
}
