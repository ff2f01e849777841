package enums

import "fmt"

// VoucherStatus represents the lifecycle state of a voucher.
type VoucherStatus string

const (
	VoucherStatusActive    VoucherStatus = "active"
	VoucherStatusExpired   VoucherStatus = "expired"
	VoucherStatusUsed      VoucherStatus = "used"
	VoucherStatusCancelled VoucherStatus = "cancelled"
)

var validVoucherStatuses = []VoucherStatus{
	VoucherStatusActive,
	VoucherStatusExpired,
	VoucherStatusUsed,
	VoucherStatusCancelled,
}

var voucherStatusLabels = map[VoucherStatus]string{
	VoucherStatusActive:    "Active",
	VoucherStatusExpired:   "Expired",
	VoucherStatusUsed:      "Used",
	VoucherStatusCancelled: "Cancelled",
}

// String implements fmt.Stringer.
func (s VoucherStatus) String() string {
	return string(s)
}

// Label returns the human-readable form used in API payloads.
func (s VoucherStatus) Label() string {
	if label, ok := voucherStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// IsValid reports whether the value is a known VoucherStatus.
func (s VoucherStatus) IsValid() bool {
	for _, candidate := range validVoucherStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVoucherStatus converts raw input into a VoucherStatus.
func ParseVoucherStatus(value string) (VoucherStatus, error) {
	for _, candidate := range validVoucherStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid voucher status %q", value)
}
