package enums

import "fmt"

// VoucherKind discriminates the discount variant a voucher carries.
type VoucherKind string

const (
	VoucherKindPercentage   VoucherKind = "percentage"
	VoucherKindFixedAmount  VoucherKind = "fixed_amount"
	VoucherKindFreeShipping VoucherKind = "free_shipping"
)

var validVoucherKinds = []VoucherKind{
	VoucherKindPercentage,
	VoucherKindFixedAmount,
	VoucherKindFreeShipping,
}

var voucherKindLabels = map[VoucherKind]string{
	VoucherKindPercentage:   "Percentage Discount",
	VoucherKindFixedAmount:  "Fixed Amount Discount",
	VoucherKindFreeShipping: "Free Shipping",
}

// String implements fmt.Stringer.
func (k VoucherKind) String() string {
	return string(k)
}

// Label returns the human-readable form used in API payloads.
func (k VoucherKind) Label() string {
	if label, ok := voucherKindLabels[k]; ok {
		return label
	}
	return string(k)
}

// IsValid reports whether the value is a known VoucherKind.
func (k VoucherKind) IsValid() bool {
	for _, candidate := range validVoucherKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseVoucherKind converts raw input into a VoucherKind.
func ParseVoucherKind(value string) (VoucherKind, error) {
	for _, candidate := range validVoucherKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher kind %q", value)
}
