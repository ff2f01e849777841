package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/redeemly/redeemly-backend/pkg/enums"
)

// Voucher is the single-table representation of every discount variant.
// The Kind column discriminates which of the variant columns are meaningful:
// percentage vouchers use DiscountPercentage/MaxDiscountAmount, fixed-amount
// vouchers use DiscountAmount, free-shipping vouchers use MaxShippingAmount.
// MinPurchaseAmount applies to all kinds.
type Voucher struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code        string              `gorm:"column:code;type:text;not null;uniqueIndex:idx_vouchers_code"`
	Name        string              `gorm:"column:name;not null"`
	Description string              `gorm:"column:description;not null;default:''"`
	Kind        enums.VoucherKind   `gorm:"column:kind;type:voucher_kind;not null"`
	Status      enums.VoucherStatus `gorm:"column:status;type:voucher_status;not null;default:active;index:idx_vouchers_code_status,priority:2;index:idx_vouchers_status_window,priority:1"`
	ValidFrom   time.Time           `gorm:"column:valid_from;not null;index:idx_vouchers_status_window,priority:2"`
	ValidUntil  time.Time           `gorm:"column:valid_until;not null;index:idx_vouchers_status_window,priority:3"`
	UsageLimit  *int                `gorm:"column:usage_limit"`
	UsageCount  int                 `gorm:"column:usage_count;not null;default:0"`

	DiscountPercentage *decimal.Decimal `gorm:"column:discount_percentage;type:numeric(5,2)"`
	MaxDiscountAmount  *decimal.Decimal `gorm:"column:max_discount_amount;type:numeric(10,2)"`
	DiscountAmount     *decimal.Decimal `gorm:"column:discount_amount;type:numeric(10,2)"`
	MinPurchaseAmount  decimal.Decimal  `gorm:"column:min_purchase_amount;type:numeric(10,2);not null;default:0"`
	MaxShippingAmount  *decimal.Decimal `gorm:"column:max_shipping_amount;type:numeric(10,2)"`

	CreatedBy *uuid.UUID `gorm:"column:created_by;type:uuid"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// HasUsageHeadroom reports whether another redemption fits under the limit.
// A nil limit means unlimited usage.
func (v Voucher) HasUsageHeadroom() bool {
	return v.UsageLimit == nil || v.UsageCount < *v.UsageLimit
}

// UsagePercentage returns consumed usage as a 0-100 figure, nil when unlimited.
func (v Voucher) UsagePercentage() *float64 {
	if v.UsageLimit == nil || *v.UsageLimit == 0 {
		return nil
	}
	pct := float64(v.UsageCount) / float64(*v.UsageLimit) * 100
	return &pct
}
