package vouchers

import (
	"fmt"
	"time"

	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	pkgerrors "github.com/redeemly/redeemly-backend/pkg/errors"
)

// Redemption rejection reasons, used for diagnostics and metrics labels.
const (
	ReasonNotActive         = "not_active"
	ReasonNotYetValid       = "not_yet_valid"
	ReasonExpired           = "expired"
	ReasonUsageLimitReached = "usage_limit_reached"
	ReasonNotValid          = "not_valid"
)

// IsValid reports whether the voucher can be redeemed at the given instant:
// active status, inside the validity window, with usage headroom remaining.
func IsValid(v models.Voucher, now time.Time) bool {
	if v.Status != enums.VoucherStatusActive {
		return false
	}
	if now.Before(v.ValidFrom) || now.After(v.ValidUntil) {
		return false
	}
	return v.HasUsageHeadroom()
}

// IsExpired reports whether the instant falls after the validity window.
// Expiry is a property of the window alone, independent of status.
func IsExpired(v models.Voucher, now time.Time) bool {
	return now.After(v.ValidUntil)
}

// EligibilityError returns nil when the voucher is redeemable, otherwise a
// validation error whose message names the most specific failing condition.
// Status problems win over window problems, which win over usage exhaustion.
func EligibilityError(v models.Voucher, now time.Time) error {
	reason, message := diagnose(v, now)
	if reason == "" {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, message).WithDetails(map[string]string{"reason": reason})
}

func diagnose(v models.Voucher, now time.Time) (reason, message string) {
	if v.Status != enums.VoucherStatusActive {
		return ReasonNotActive, fmt.Sprintf("Voucher is not active. Current status: %s", v.Status.Label())
	}
	if now.Before(v.ValidFrom) {
		return ReasonNotYetValid, "Voucher is not yet valid."
	}
	if now.After(v.ValidUntil) {
		return ReasonExpired, "Voucher has expired."
	}
	if !v.HasUsageHeadroom() {
		return ReasonUsageLimitReached, "Voucher usage limit has been reached."
	}
	if !IsValid(v, now) {
		return ReasonNotValid, "Voucher is not valid."
	}
	return "", ""
}
