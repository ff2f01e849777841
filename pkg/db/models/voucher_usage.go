package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VoucherUsage is an immutable ledger row recording a single redemption.
type VoucherUsage struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VoucherID       uuid.UUID       `gorm:"column:voucher_id;type:uuid;not null;index:idx_voucher_usages_voucher_user,priority:1"`
	UserID          uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index:idx_voucher_usages_voucher_user,priority:2;index:idx_voucher_usages_user_used_at,priority:1"`
	PurchaseAmount  decimal.Decimal `gorm:"column:purchase_amount;type:numeric(10,2);not null"`
	DiscountApplied decimal.Decimal `gorm:"column:discount_applied;type:numeric(10,2);not null"`
	UsedAt          time.Time       `gorm:"column:used_at;not null;index:idx_voucher_usages_user_used_at,priority:2"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`

	Voucher *Voucher `gorm:"foreignKey:VoucherID;constraint:OnDelete:CASCADE"`
	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
