package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/redeemly/redeemly-backend/api/responses"
	"github.com/redeemly/redeemly-backend/api/validators"
	"github.com/redeemly/redeemly-backend/internal/vouchers"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	pkgerrors "github.com/redeemly/redeemly-backend/pkg/errors"
	"github.com/redeemly/redeemly-backend/pkg/logger"
	"github.com/redeemly/redeemly-backend/pkg/pagination"
)

type createVoucherRequest struct {
	Code              string     `json:"code" validate:"required,max=50"`
	Name              string     `json:"name,omitempty" validate:"omitempty,max=200"`
	Description       string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	Kind              string     `json:"kind" validate:"required,oneof=percentage fixed_amount free_shipping"`
	ValidFrom         *time.Time `json:"valid_from,omitempty"`
	ValidUntil        *time.Time `json:"valid_until,omitempty"`
	ValidIndefinitely bool       `json:"valid_indefinitely,omitempty"`
	UsageLimit        *int       `json:"usage_limit,omitempty" validate:"omitempty,min=1"`

	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty"`
	MinPurchaseAmount  *decimal.Decimal `json:"min_purchase_amount,omitempty"`
	MaxShippingAmount  *decimal.Decimal `json:"max_shipping_amount,omitempty"`
}

type updateVoucherRequest struct {
	Code        *string    `json:"code,omitempty" validate:"omitempty,max=50"`
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=200"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	ValidFrom   *time.Time `json:"valid_from,omitempty"`
	ValidUntil  *time.Time `json:"valid_until,omitempty"`
	UsageLimit  *int       `json:"usage_limit,omitempty" validate:"omitempty,min=1"`

	DiscountPercentage *decimal.Decimal `json:"discount_percentage,omitempty"`
	MaxDiscountAmount  *decimal.Decimal `json:"max_discount_amount,omitempty"`
	DiscountAmount     *decimal.Decimal `json:"discount_amount,omitempty"`
	MinPurchaseAmount  *decimal.Decimal `json:"min_purchase_amount,omitempty"`
	MaxShippingAmount  *decimal.Decimal `json:"max_shipping_amount,omitempty"`
}

type validateVoucherRequest struct {
	Code           string           `json:"code" validate:"required,max=50"`
	PurchaseAmount decimal.Decimal  `json:"purchase_amount" validate:"required"`
	ShippingAmount *decimal.Decimal `json:"shipping_amount,omitempty"`
}

type redeemVoucherRequest struct {
	PurchaseAmount decimal.Decimal  `json:"purchase_amount" validate:"required"`
	ShippingAmount *decimal.Decimal `json:"shipping_amount,omitempty"`
}

// VoucherCreate registers a new voucher of any kind.
func VoucherCreate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createVoucherRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucher, err := svc.Create(r.Context(), vouchers.CreateInput{
			ActorUserID:        actorID,
			ActorRole:          role,
			Code:               body.Code,
			Name:               body.Name,
			Description:        body.Description,
			Kind:               enums.VoucherKind(body.Kind),
			ValidFrom:          body.ValidFrom,
			ValidUntil:         body.ValidUntil,
			ValidIndefinitely:  body.ValidIndefinitely,
			UsageLimit:         body.UsageLimit,
			DiscountPercentage: body.DiscountPercentage,
			MaxDiscountAmount:  body.MaxDiscountAmount,
			DiscountAmount:     body.DiscountAmount,
			MinPurchaseAmount:  body.MinPurchaseAmount,
			MaxShippingAmount:  body.MaxShippingAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, voucher)
	}
}

// VoucherList returns a page of vouchers with optional filters.
func VoucherList(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := vouchers.ListInput{
			ActorRole: role,
			Search:    strings.TrimSpace(r.URL.Query().Get("search")),
			Limit:     limit,
			Cursor:    strings.TrimSpace(r.URL.Query().Get("cursor")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParseVoucherStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			input.Status = &parsed
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("kind")); raw != "" {
			parsed, err := enums.ParseVoucherKind(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid kind filter"))
				return
			}
			input.Kind = &parsed
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// VoucherDetail returns a single voucher by id.
func VoucherDetail(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		voucherID, err := pathUUID(r, "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucher, err := svc.Get(r.Context(), vouchers.GetInput{VoucherID: voucherID, ActorRole: role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, voucher)
	}
}

// VoucherUpdate applies changes to a voucher's metadata or amounts.
func VoucherUpdate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		voucherID, err := pathUUID(r, "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateVoucherRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucher, err := svc.Update(r.Context(), vouchers.UpdateInput{
			VoucherID:          voucherID,
			ActorRole:          role,
			Code:               body.Code,
			Name:               body.Name,
			Description:        body.Description,
			ValidFrom:          body.ValidFrom,
			ValidUntil:         body.ValidUntil,
			UsageLimit:         body.UsageLimit,
			DiscountPercentage: body.DiscountPercentage,
			MaxDiscountAmount:  body.MaxDiscountAmount,
			DiscountAmount:     body.DiscountAmount,
			MinPurchaseAmount:  body.MinPurchaseAmount,
			MaxShippingAmount:  body.MaxShippingAmount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, voucher)
	}
}

// VoucherCancel retires an active voucher.
func VoucherCancel(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		voucherID, err := pathUUID(r, "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		voucher, err := svc.Cancel(r.Context(), vouchers.CancelInput{VoucherID: voucherID, ActorRole: role})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, voucher)
	}
}

// VoucherDelete removes a voucher and, through the schema, its usage history.
func VoucherDelete(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, role, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		voucherID, err := pathUUID(r, "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), vouchers.DeleteInput{VoucherID: voucherID, ActorRole: role}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// VoucherValidate reports whether a code is redeemable and the discount it
// would grant, without consuming a use.
func VoucherValidate(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body validateVoucherRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipping := decimal.Zero
		if body.ShippingAmount != nil {
			shipping = *body.ShippingAmount
		}

		result, err := svc.Validate(r.Context(), vouchers.ValidateInput{
			Code:           body.Code,
			PurchaseAmount: body.PurchaseAmount,
			ShippingAmount: shipping,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// VoucherRedeem atomically consumes one use and records the ledger entry.
func VoucherRedeem(svc vouchers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, _, err := actorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		voucherID, err := pathUUID(r, "voucherId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body redeemVoucherRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		shipping := decimal.Zero
		if body.ShippingAmount != nil {
			shipping = *body.ShippingAmount
		}

		result, err := svc.Redeem(r.Context(), vouchers.RedeemInput{
			VoucherID:      voucherID,
			ActorUserID:    actorID,
			PurchaseAmount: body.PurchaseAmount,
			ShippingAmount: shipping,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
