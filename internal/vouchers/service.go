package vouchers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/redeemly/redeemly-backend/pkg/db"
	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	pkgerrors "github.com/redeemly/redeemly-backend/pkg/errors"
	"github.com/redeemly/redeemly-backend/pkg/metrics"
	"github.com/redeemly/redeemly-backend/pkg/pagination"
)

const (
	maxCodeLength = 50
	// Vouchers created without an explicit window stay redeemable for a
	// hundred years, which is as indefinite as anyone needs.
	indefiniteValidityDays = 36500
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type usageRecorder interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, usage *models.VoucherUsage) (*models.VoucherUsage, error)
}

// Service defines voucher lifecycle and redemption operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*VoucherDTO, error)
	Get(ctx context.Context, input GetInput) (*VoucherDTO, error)
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Update(ctx context.Context, input UpdateInput) (*VoucherDTO, error)
	Cancel(ctx context.Context, input CancelInput) (*VoucherDTO, error)
	Delete(ctx context.Context, input DeleteInput) error
	Validate(ctx context.Context, input ValidateInput) (*ValidateResult, error)
	Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error)
}

type service struct {
	repo    Repository
	usages  usageRecorder
	tx      txRunner
	metrics *metrics.RedemptionMetrics
}

// ServiceParams bundles the dependencies required to build a voucher service.
type ServiceParams struct {
	Repo    Repository
	Usages  usageRecorder
	Tx      txRunner
	Metrics *metrics.RedemptionMetrics
}

// NewService constructs a voucher service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("voucher repository is required")
	}
	if params.Usages == nil {
		return nil, fmt.Errorf("usage recorder is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	return &service{
		repo:    params.Repo,
		usages:  params.Usages,
		tx:      params.Tx,
		metrics: params.Metrics,
	}, nil
}

// CreateInput carries the unified voucher creation payload. Which amount
// fields are required depends on Kind.
type CreateInput struct {
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole

	Code              string
	Name              string
	Description       string
	Kind              enums.VoucherKind
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	ValidIndefinitely bool
	UsageLimit        *int

	DiscountPercentage *decimal.Decimal
	MaxDiscountAmount  *decimal.Decimal
	DiscountAmount     *decimal.Decimal
	MinPurchaseAmount  *decimal.Decimal
	MaxShippingAmount  *decimal.Decimal
}

// GetInput identifies the requested voucher plus the acting caller.
type GetInput struct {
	VoucherID uuid.UUID
	ActorRole enums.UserRole
}

// ListInput configures voucher listing filters and pagination.
type ListInput struct {
	ActorRole enums.UserRole
	Status    *enums.VoucherStatus
	Kind      *enums.VoucherKind
	Search    string
	Limit     int
	Cursor    string
}

// ListResult returns one page of vouchers plus the next cursor.
type ListResult struct {
	Items  []VoucherDTO `json:"items"`
	Cursor string       `json:"cursor"`
}

// UpdateInput carries the optional fields a voucher update may change.
type UpdateInput struct {
	VoucherID uuid.UUID
	ActorRole enums.UserRole

	Code        *string
	Name        *string
	Description *string
	ValidFrom   *time.Time
	ValidUntil  *time.Time
	UsageLimit  *int

	DiscountPercentage *decimal.Decimal
	MaxDiscountAmount  *decimal.Decimal
	DiscountAmount     *decimal.Decimal
	MinPurchaseAmount  *decimal.Decimal
	MaxShippingAmount  *decimal.Decimal
}

// CancelInput identifies the voucher to cancel.
type CancelInput struct {
	VoucherID uuid.UUID
	ActorRole enums.UserRole
}

// DeleteInput identifies the voucher an admin wants removed.
type DeleteInput struct {
	VoucherID uuid.UUID
	ActorRole enums.UserRole
}

// ValidateInput carries a code-based eligibility check.
type ValidateInput struct {
	Code           string
	PurchaseAmount decimal.Decimal
	ShippingAmount decimal.Decimal
}

// ValidateResult reports the discount the voucher would grant right now.
type ValidateResult struct {
	Voucher        *VoucherDTO     `json:"voucher"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	FinalAmount    decimal.Decimal `json:"final_amount"`
}

// RedeemInput carries an atomic redemption request.
type RedeemInput struct {
	VoucherID      uuid.UUID
	ActorUserID    uuid.UUID
	PurchaseAmount decimal.Decimal
	ShippingAmount decimal.Decimal
}

// RedeemResult reports the recorded usage and the voucher's state afterwards.
type RedeemResult struct {
	UsageID         uuid.UUID       `json:"usage_id"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	UsedAt          time.Time       `json:"used_at"`
	Voucher         *VoucherDTO     `json:"voucher"`
}

func (s *service) Create(ctx context.Context, input CreateInput) (*VoucherDTO, error) {
	if !CanManageVouchers(input.ActorRole) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and managers may create vouchers")
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if len(code) > maxCodeLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code must be 50 characters or fewer")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid voucher kind")
	}

	now := time.Now().UTC()
	validFrom, validUntil, err := resolveWindow(input.ValidFrom, input.ValidUntil, input.ValidIndefinitely, now)
	if err != nil {
		return nil, err
	}

	if input.UsageLimit != nil && *input.UsageLimit < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be at least 1")
	}

	minPurchase := decimal.Zero
	if input.MinPurchaseAmount != nil {
		if input.MinPurchaseAmount.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum purchase amount cannot be negative")
		}
		minPurchase = *input.MinPurchaseAmount
	}

	voucher := &models.Voucher{
		Code:              code,
		Name:              strings.TrimSpace(input.Name),
		Description:       strings.TrimSpace(input.Description),
		Kind:              input.Kind,
		Status:            enums.VoucherStatusActive,
		ValidFrom:         validFrom,
		ValidUntil:        validUntil,
		UsageLimit:        input.UsageLimit,
		MinPurchaseAmount: minPurchase,
	}
	if voucher.Name == "" {
		voucher.Name = code
	}
	if input.ActorUserID != uuid.Nil {
		actorID := input.ActorUserID
		voucher.CreatedBy = &actorID
	}

	if err := applyVariantFields(voucher, variantFields{
		DiscountPercentage: input.DiscountPercentage,
		MaxDiscountAmount:  input.MaxDiscountAmount,
		DiscountAmount:     input.DiscountAmount,
		MaxShippingAmount:  input.MaxShippingAmount,
	}); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, voucher)
	if err != nil {
		if db.IsUniqueViolation(err, "idx_vouchers_code") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a voucher with this code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create voucher")
	}

	return FromModel(created, now), nil
}

func (s *service) Get(ctx context.Context, input GetInput) (*VoucherDTO, error) {
	if input.VoucherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher id required")
	}

	voucher, err := s.findVoucher(ctx, input.VoucherID)
	if err != nil {
		return nil, err
	}
	// Regular users only see vouchers that are live.
	if !CanManageVouchers(input.ActorRole) && voucher.Status != enums.VoucherStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
	}

	return FromModel(voucher, time.Now().UTC()), nil
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	limit := pagination.NormalizeLimit(input.Limit)

	query := ListQuery{
		OnlyActive: !CanManageVouchers(input.ActorRole),
		Status:     input.Status,
		Kind:       input.Kind,
		Search:     input.Search,
		Limit:      pagination.LimitWithBuffer(input.Limit),
	}
	if input.Cursor != "" {
		cursor, err := pagination.ParseCursor(input.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list vouchers")
	}

	nextCursor := ""
	if len(rows) > limit {
		next := rows[limit]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
		rows = rows[:limit]
	}

	now := time.Now().UTC()
	items := make([]VoucherDTO, len(rows))
	for i := range rows {
		items[i] = *FromModel(&rows[i], now)
	}

	return &ListResult{Items: items, Cursor: nextCursor}, nil
}

func (s *service) Update(ctx context.Context, input UpdateInput) (*VoucherDTO, error) {
	if !CanManageVouchers(input.ActorRole) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and managers may update vouchers")
	}
	if input.VoucherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher id required")
	}

	voucher, err := s.findVoucher(ctx, input.VoucherID)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}

	if input.Code != nil {
		code := strings.ToUpper(strings.TrimSpace(*input.Code))
		if code == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "code cannot be empty")
		}
		if len(code) > maxCodeLength {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "code must be 50 characters or fewer")
		}
		if code != voucher.Code {
			fields["code"] = code
		}
	}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		fields["name"] = name
	}
	if input.Description != nil {
		fields["description"] = strings.TrimSpace(*input.Description)
	}

	validFrom := voucher.ValidFrom
	validUntil := voucher.ValidUntil
	if input.ValidFrom != nil {
		validFrom = input.ValidFrom.UTC()
		fields["valid_from"] = validFrom
	}
	if input.ValidUntil != nil {
		validUntil = input.ValidUntil.UTC()
		fields["valid_until"] = validUntil
	}
	if !validUntil.After(validFrom) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be after valid_from")
	}

	if input.UsageLimit != nil {
		if *input.UsageLimit < 1 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be at least 1")
		}
		if *input.UsageLimit < voucher.UsageCount {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "usage limit cannot be below the recorded usage count")
		}
		fields["usage_limit"] = *input.UsageLimit
	}

	if err := collectVariantUpdates(voucher, input, fields); err != nil {
		return nil, err
	}

	if len(fields) > 0 {
		if err := s.repo.UpdateFields(ctx, input.VoucherID, fields); err != nil {
			if db.IsUniqueViolation(err, "idx_vouchers_code") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "a voucher with this code already exists")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update voucher")
		}
	}

	updated, err := s.findVoucher(ctx, input.VoucherID)
	if err != nil {
		return nil, err
	}
	return FromModel(updated, time.Now().UTC()), nil
}

func (s *service) Cancel(ctx context.Context, input CancelInput) (*VoucherDTO, error) {
	if !CanManageVouchers(input.ActorRole) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins and managers may cancel vouchers")
	}

	voucher, err := s.findVoucher(ctx, input.VoucherID)
	if err != nil {
		return nil, err
	}
	if voucher.Status != enums.VoucherStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("only active vouchers can be cancelled; current status: %s", voucher.Status.Label()))
	}

	if err := s.repo.UpdateFields(ctx, input.VoucherID, map[string]any{
		"status": enums.VoucherStatusCancelled,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel voucher")
	}

	voucher.Status = enums.VoucherStatusCancelled
	return FromModel(voucher, time.Now().UTC()), nil
}

func (s *service) Delete(ctx context.Context, input DeleteInput) error {
	if !CanDeleteVouchers(input.ActorRole) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only admins may delete vouchers")
	}

	if _, err := s.findVoucher(ctx, input.VoucherID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, input.VoucherID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete voucher")
	}
	return nil
}

func (s *service) Validate(ctx context.Context, input ValidateInput) (*ValidateResult, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if input.PurchaseAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase amount cannot be negative")
	}

	voucher, err := s.repo.FindByCode(ctx, input.Code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}

	now := time.Now().UTC()
	if err := EligibilityError(*voucher, now); err != nil {
		return nil, err
	}
	if input.PurchaseAmount.LessThan(voucher.MinPurchaseAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Minimum purchase amount of %s not met.", voucher.MinPurchaseAmount.StringFixed(2)))
	}

	discount := CalculateDiscount(*voucher, input.PurchaseAmount, input.ShippingAmount)
	final := input.PurchaseAmount.Sub(discount)
	if voucher.Kind == enums.VoucherKindFreeShipping {
		final = input.PurchaseAmount
	}

	return &ValidateResult{
		Voucher:        FromModel(voucher, now),
		DiscountAmount: discount,
		FinalAmount:    final,
	}, nil
}

func (s *service) Redeem(ctx context.Context, input RedeemInput) (*RedeemResult, error) {
	if input.VoucherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.PurchaseAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase amount cannot be negative")
	}

	var result *RedeemResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		now := time.Now().UTC()

		voucher, err := repo.FindByID(ctx, input.VoucherID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
		}

		if err := EligibilityError(*voucher, now); err != nil {
			return err
		}
		if input.PurchaseAmount.LessThan(voucher.MinPurchaseAmount) {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("Minimum purchase amount of %s not met.", voucher.MinPurchaseAmount.StringFixed(2)))
		}

		discount := CalculateDiscount(*voucher, input.PurchaseAmount, input.ShippingAmount)

		// The conditional update is the authoritative check. The reads
		// above only exist to produce precise diagnostics; a concurrent
		// redeemer can still win the race between them and here.
		affected, err := repo.ApplyRedemption(ctx, input.VoucherID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply redemption")
		}
		if affected == 0 {
			current, err := repo.FindByID(ctx, input.VoucherID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload voucher")
			}
			if eligErr := EligibilityError(*current, now); eligErr != nil {
				return eligErr
			}
			return pkgerrors.New(pkgerrors.CodeValidation, "Voucher is not valid.")
		}

		usage, err := s.usages.CreateInTx(ctx, tx, &models.VoucherUsage{
			VoucherID:       input.VoucherID,
			UserID:          input.ActorUserID,
			PurchaseAmount:  input.PurchaseAmount.Round(2),
			DiscountApplied: discount,
			UsedAt:          now,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record usage")
		}

		updated, err := repo.FindByID(ctx, input.VoucherID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload voucher")
		}

		result = &RedeemResult{
			UsageID:         usage.ID,
			DiscountApplied: discount,
			UsedAt:          now,
			Voucher:         FromModel(updated, now),
		}
		return nil
	})
	if err != nil {
		s.recordRejection(err)
		return nil, err
	}

	if s.metrics != nil && result != nil {
		kind := string(result.Voucher.Kind)
		s.metrics.IncSuccess(kind)
		discountFloat, _ := result.DiscountApplied.Float64()
		s.metrics.ObserveDiscount(kind, discountFloat)
	}
	return result, nil
}

func (s *service) recordRejection(err error) {
	if s.metrics == nil {
		return
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		return
	}
	reason := ReasonNotValid
	if details, ok := typed.Details().(map[string]string); ok {
		if r := details["reason"]; r != "" {
			reason = r
		}
	}
	s.metrics.IncRejected(reason)
}

func (s *service) findVoucher(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	voucher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}
	return voucher, nil
}

func resolveWindow(from, until *time.Time, indefinitely bool, now time.Time) (time.Time, time.Time, error) {
	if indefinitely || (from == nil && until == nil) {
		return now, now.AddDate(0, 0, indefiniteValidityDays), nil
	}

	validFrom := now
	if from != nil {
		validFrom = from.UTC()
	}
	validUntil := now.AddDate(0, 0, indefiniteValidityDays)
	if until != nil {
		validUntil = until.UTC()
	}
	if !validUntil.After(validFrom) {
		return time.Time{}, time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "valid_until must be after valid_from")
	}
	return validFrom, validUntil, nil
}

type variantFields struct {
	DiscountPercentage *decimal.Decimal
	MaxDiscountAmount  *decimal.Decimal
	DiscountAmount     *decimal.Decimal
	MaxShippingAmount  *decimal.Decimal
}

func applyVariantFields(voucher *models.Voucher, fields variantFields) error {
	switch voucher.Kind {
	case enums.VoucherKindPercentage:
		if fields.DiscountAmount != nil || fields.MaxShippingAmount != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "percentage vouchers only accept discount_percentage and max_discount_amount")
		}
		if fields.DiscountPercentage == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage is required for percentage vouchers")
		}
		pct := *fields.DiscountPercentage
		if !pct.IsPositive() || pct.GreaterThan(oneHundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must be greater than 0 and at most 100")
		}
		if fields.MaxDiscountAmount != nil && fields.MaxDiscountAmount.LessThan(minCapAmount) {
			return pkgerrors.New(pkgerrors.CodeValidation, "max_discount_amount must be at least 0.01")
		}
		voucher.DiscountPercentage = fields.DiscountPercentage
		voucher.MaxDiscountAmount = fields.MaxDiscountAmount

	case enums.VoucherKindFixedAmount:
		if fields.DiscountPercentage != nil || fields.MaxDiscountAmount != nil || fields.MaxShippingAmount != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "fixed amount vouchers only accept discount_amount")
		}
		if fields.DiscountAmount == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount_amount is required for fixed amount vouchers")
		}
		if !fields.DiscountAmount.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "discount_amount must be greater than 0")
		}
		voucher.DiscountAmount = fields.DiscountAmount

	case enums.VoucherKindFreeShipping:
		if fields.DiscountPercentage != nil || fields.MaxDiscountAmount != nil || fields.DiscountAmount != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "free shipping vouchers only accept max_shipping_amount")
		}
		if fields.MaxShippingAmount != nil && fields.MaxShippingAmount.LessThan(minCapAmount) {
			return pkgerrors.New(pkgerrors.CodeValidation, "max_shipping_amount must be at least 0.01")
		}
		voucher.MaxShippingAmount = fields.MaxShippingAmount
	}
	return nil
}

func collectVariantUpdates(voucher *models.Voucher, input UpdateInput, fields map[string]any) error {
	switch voucher.Kind {
	case enums.VoucherKindPercentage:
		if input.DiscountAmount != nil || input.MaxShippingAmount != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "percentage vouchers only accept discount_percentage and max_discount_amount")
		}
		if input.DiscountPercentage != nil {
			pct := *input.DiscountPercentage
			if !pct.IsPositive() || pct.GreaterThan(oneHundred) {
				return pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must be greater than 0 and at most 100")
			}
			fields["discount_percentage"] = pct
		}
		if input.MaxDiscountAmount != nil {
			if input.MaxDiscountAmount.LessThan(minCapAmount) {
				return pkgerrors.New(pkgerrors.CodeValidation, "max_discount_amount must be at least 0.01")
			}
			fields["max_discount_amount"] = *input.MaxDiscountAmount
		}

	case enums.VoucherKindFixedAmount:
		if input.DiscountPercentage != nil || input.MaxDiscountAmount != nil || input.MaxShippingAmount != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "fixed amount vouchers only accept discount_amount")
		}
		if input.DiscountAmount != nil {
			if !input.DiscountAmount.IsPositive() {
				return pkgerrors.New(pkgerrors.CodeValidation, "discount_amount must be greater than 0")
			}
			fields["discount_amount"] = *input.DiscountAmount
		}

	case enums.VoucherKindFreeShipping:
		if input.DiscountPercentage != nil || input.MaxDiscountAmount != nil || input.DiscountAmount != nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "free shipping vouchers only accept max_shipping_amount")
		}
		if input.MaxShippingAmount != nil {
			if input.MaxShippingAmount.LessThan(minCapAmount) {
				return pkgerrors.New(pkgerrors.CodeValidation, "max_shipping_amount must be at least 0.01")
			}
			fields["max_shipping_amount"] = *input.MaxShippingAmount
		}
	}

	if input.MinPurchaseAmount != nil {
		if input.MinPurchaseAmount.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "minimum purchase amount cannot be negative")
		}
		fields["min_purchase_amount"] = *input.MinPurchaseAmount
	}
	return nil
}
