package vouchers

import (
	"testing"
	"time"

	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	pkgerrors "github.com/redeemly/redeemly-backend/pkg/errors"
)

func intPtr(n int) *int { return &n }

func baseVoucher(now time.Time) models.Voucher {
	return models.Voucher{
		Code:       "SPRING20",
		Kind:       enums.VoucherKindPercentage,
		Status:     enums.VoucherStatusActive,
		ValidFrom:  now.Add(-time.Hour),
		ValidUntil: now.Add(time.Hour),
	}
}

func TestIsValid(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name   string
		mutate func(*models.Voucher)
		want   bool
	}{
		{"active inside window", func(v *models.Voucher) {}, true},
		{"cancelled", func(v *models.Voucher) { v.Status = enums.VoucherStatusCancelled }, false},
		{"used", func(v *models.Voucher) { v.Status = enums.VoucherStatusUsed }, false},
		{"before window", func(v *models.Voucher) { v.ValidFrom = now.Add(time.Minute) }, false},
		{"after window", func(v *models.Voucher) { v.ValidUntil = now.Add(-time.Minute) }, false},
		{"at limit", func(v *models.Voucher) { v.UsageLimit = intPtr(3); v.UsageCount = 3 }, false},
		{"below limit", func(v *models.Voucher) { v.UsageLimit = intPtr(3); v.UsageCount = 2 }, true},
		{"unlimited heavy use", func(v *models.Voucher) { v.UsageCount = 100000 }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := baseVoucher(now)
			tc.mutate(&v)
			if got := IsValid(v, now); got != tc.want {
				t.Fatalf("IsValid = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsExpired_IgnoresStatus(t *testing.T) {
	now := time.Now().UTC()

	v := baseVoucher(now)
	v.Status = enums.VoucherStatusCancelled
	if IsExpired(v, now) {
		t.Fatal("voucher inside window must not be expired, whatever its status")
	}

	v.ValidUntil = now.Add(-time.Second)
	if !IsExpired(v, now) {
		t.Fatal("voucher past its window must be expired")
	}
}

func TestEligibilityError_Priority(t *testing.T) {
	now := time.Now().UTC()

	cases := []struct {
		name        string
		mutate      func(*models.Voucher)
		wantReason  string
		wantMessage string
	}{
		{
			name:        "redeemable",
			mutate:      func(v *models.Voucher) {},
			wantReason:  "",
			wantMessage: "",
		},
		{
			name:        "cancelled beats expired",
			mutate:      func(v *models.Voucher) { v.Status = enums.VoucherStatusCancelled; v.ValidUntil = now.Add(-time.Hour) },
			wantReason:  ReasonNotActive,
			wantMessage: "Voucher is not active. Current status: Cancelled",
		},
		{
			name:        "not yet valid",
			mutate:      func(v *models.Voucher) { v.ValidFrom = now.Add(time.Hour); v.ValidUntil = now.Add(2 * time.Hour) },
			wantReason:  ReasonNotYetValid,
			wantMessage: "Voucher is not yet valid.",
		},
		{
			name:        "expired",
			mutate:      func(v *models.Voucher) { v.ValidUntil = now.Add(-time.Minute) },
			wantReason:  ReasonExpired,
			wantMessage: "Voucher has expired.",
		},
		{
			name:        "usage limit reached",
			mutate:      func(v *models.Voucher) { v.UsageLimit = intPtr(1); v.UsageCount = 1 },
			wantReason:  ReasonUsageLimitReached,
			wantMessage: "Voucher usage limit has been reached.",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := baseVoucher(now)
			tc.mutate(&v)

			err := EligibilityError(v, now)
			if tc.wantReason == "" {
				if err != nil {
					t.Fatalf("expected nil, got %v", err)
				}
				return
			}

			typed := pkgerrors.As(err)
			if typed == nil {
				t.Fatalf("expected typed error, got %v", err)
			}
			if typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation code, got %s", typed.Code())
			}
			if typed.Message() != tc.wantMessage {
				t.Fatalf("message = %q, want %q", typed.Message(), tc.wantMessage)
			}
			details, ok := typed.Details().(map[string]string)
			if !ok || details["reason"] != tc.wantReason {
				t.Fatalf("details = %#v, want reason %q", typed.Details(), tc.wantReason)
			}
		})
	}
}

func TestEligibilityError_UsedStatusMessage(t *testing.T) {
	now := time.Now().UTC()
	v := baseVoucher(now)
	v.Status = enums.VoucherStatusUsed

	typed := pkgerrors.As(EligibilityError(v, now))
	if typed == nil {
		t.Fatal("expected error for used voucher")
	}
	if typed.Message() != "Voucher is not active. Current status: Used" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}
