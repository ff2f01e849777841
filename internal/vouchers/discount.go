package vouchers

import (
	"github.com/shopspring/decimal"

	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/enums"
)

var (
	oneHundred = decimal.NewFromInt(100)
	// Smallest accepted value for the optional discount/shipping caps. A zero
	// cap would silently zero every discount.
	minCapAmount = decimal.New(1, -2)
)

// CalculateDiscount returns the discount a voucher grants for the given
// purchase and shipping amounts. The result is always rounded to two decimal
// places and never exceeds the relevant base amount. Purchases below the
// voucher's minimum earn nothing regardless of kind.
func CalculateDiscount(v models.Voucher, purchaseAmount, shippingAmount decimal.Decimal) decimal.Decimal {
	if purchaseAmount.LessThan(v.MinPurchaseAmount) {
		return decimal.Zero
	}

	switch v.Kind {
	case enums.VoucherKindPercentage:
		if v.DiscountPercentage == nil {
			return decimal.Zero
		}
		discount := purchaseAmount.Mul(*v.DiscountPercentage).Div(oneHundred).Round(2)
		if v.MaxDiscountAmount != nil && discount.GreaterThan(*v.MaxDiscountAmount) {
			discount = *v.MaxDiscountAmount
		}
		return discount

	case enums.VoucherKindFixedAmount:
		if v.DiscountAmount == nil {
			return decimal.Zero
		}
		discount := *v.DiscountAmount
		if discount.GreaterThan(purchaseAmount) {
			discount = purchaseAmount
		}
		return discount.Round(2)

	case enums.VoucherKindFreeShipping:
		discount := shippingAmount
		if v.MaxShippingAmount != nil && discount.GreaterThan(*v.MaxShippingAmount) {
			discount = *v.MaxShippingAmount
		}
		if discount.IsNegative() {
			return decimal.Zero
		}
		return discount.Round(2)
	}

	return decimal.Zero
}
