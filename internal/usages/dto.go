package usages

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/redeemly/redeemly-backend/pkg/db/models"
)

// UsageDTO is the transport shape for a single redemption record.
type UsageDTO struct {
	ID              uuid.UUID       `json:"id"`
	VoucherID       uuid.UUID       `json:"voucher_id"`
	VoucherCode     string          `json:"voucher_code,omitempty"`
	UserID          uuid.UUID       `json:"user_id"`
	UserEmail       string          `json:"user_email,omitempty"`
	PurchaseAmount  decimal.Decimal `json:"purchase_amount"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	UsedAt          time.Time       `json:"used_at"`
}

// FromModel builds the transport shape, flattening preloaded associations.
func FromModel(u *models.VoucherUsage) *UsageDTO {
	if u == nil {
		return nil
	}

	dto := &UsageDTO{
		ID:              u.ID,
		VoucherID:       u.VoucherID,
		UserID:          u.UserID,
		PurchaseAmount:  u.PurchaseAmount,
		DiscountApplied: u.DiscountApplied,
		UsedAt:          u.UsedAt,
	}
	if u.Voucher != nil {
		dto.VoucherCode = u.Voucher.Code
	}
	if u.User != nil {
		dto.UserEmail = u.User.Email
	}
	return dto
}
