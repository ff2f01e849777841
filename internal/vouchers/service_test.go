package vouchers

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	pkgerrors "github.com/redeemly/redeemly-backend/pkg/errors"
)

type stubVoucherRepo struct {
	vouchers map[uuid.UUID]*models.Voucher
	// forceZeroApply makes ApplyRedemption report no rows affected even when
	// the stored voucher looks redeemable, simulating a lost race.
	forceZeroApply bool
}

func newStubVoucherRepo() *stubVoucherRepo {
	return &stubVoucherRepo{vouchers: map[uuid.UUID]*models.Voucher{}}
}

func (s *stubVoucherRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubVoucherRepo) Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error) {
	for _, existing := range s.vouchers {
		if existing.Code == voucher.Code {
			return nil, errors.New(`duplicate key value violates unique constraint "idx_vouchers_code"`)
		}
	}
	if voucher.ID == uuid.Nil {
		voucher.ID = uuid.New()
	}
	now := time.Now().UTC()
	voucher.CreatedAt = now
	voucher.UpdatedAt = now
	stored := *voucher
	s.vouchers[voucher.ID] = &stored
	return voucher, nil
}

func (s *stubVoucherRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	voucher, ok := s.vouchers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *voucher
	return &copied, nil
}

func (s *stubVoucherRepo) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	for _, voucher := range s.vouchers {
		if voucher.Code == normalized {
			copied := *voucher
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubVoucherRepo) List(ctx context.Context, query ListQuery) ([]models.Voucher, error) {
	var rows []models.Voucher
	for _, voucher := range s.vouchers {
		if query.OnlyActive && voucher.Status != enums.VoucherStatusActive {
			continue
		}
		if query.Status != nil && voucher.Status != *query.Status {
			continue
		}
		if query.Kind != nil && voucher.Kind != *query.Kind {
			continue
		}
		rows = append(rows, *voucher)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].CreatedAt.After(rows[j].CreatedAt)
	})
	if query.Limit > 0 && len(rows) > query.Limit {
		rows = rows[:query.Limit]
	}
	return rows, nil
}

func (s *stubVoucherRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	voucher, ok := s.vouchers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	for column, value := range fields {
		switch column {
		case "code":
			code := value.(string)
			for otherID, other := range s.vouchers {
				if otherID != id && other.Code == code {
					return errors.New(`duplicate key value violates unique constraint "idx_vouchers_code"`)
				}
			}
			voucher.Code = code
		case "name":
			voucher.Name = value.(string)
		case "description":
			voucher.Description = value.(string)
		case "status":
			voucher.Status = value.(enums.VoucherStatus)
		case "valid_from":
			voucher.ValidFrom = value.(time.Time)
		case "valid_until":
			voucher.ValidUntil = value.(time.Time)
		case "usage_limit":
			limit := value.(int)
			voucher.UsageLimit = &limit
		case "discount_percentage":
			d := value.(decimal.Decimal)
			voucher.DiscountPercentage = &d
		case "max_discount_amount":
			d := value.(decimal.Decimal)
			voucher.MaxDiscountAmount = &d
		case "discount_amount":
			d := value.(decimal.Decimal)
			voucher.DiscountAmount = &d
		case "min_purchase_amount":
			voucher.MinPurchaseAmount = value.(decimal.Decimal)
		case "max_shipping_amount":
			d := value.(decimal.Decimal)
			voucher.MaxShippingAmount = &d
		}
	}
	voucher.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *stubVoucherRepo) ApplyRedemption(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	if s.forceZeroApply {
		return 0, nil
	}
	voucher, ok := s.vouchers[id]
	if !ok {
		return 0, nil
	}
	if voucher.Status != enums.VoucherStatusActive {
		return 0, nil
	}
	if now.Before(voucher.ValidFrom) || now.After(voucher.ValidUntil) {
		return 0, nil
	}
	if !voucher.HasUsageHeadroom() {
		return 0, nil
	}
	voucher.UsageCount++
	if voucher.UsageLimit != nil && voucher.UsageCount >= *voucher.UsageLimit {
		voucher.Status = enums.VoucherStatusUsed
	}
	voucher.UpdatedAt = now
	return 1, nil
}

func (s *stubVoucherRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(s.vouchers, id)
	return nil
}

type stubUsageRecorder struct {
	usages []*models.VoucherUsage
	err    error
}

func (s *stubUsageRecorder) CreateInTx(ctx context.Context, tx *gorm.DB, usage *models.VoucherUsage) (*models.VoucherUsage, error) {
	if s.err != nil {
		return nil, s.err
	}
	usage.ID = uuid.New()
	s.usages = append(s.usages, usage)
	return usage, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubVoucherRepo) (Service, *stubUsageRecorder) {
	t.Helper()
	usages := &stubUsageRecorder{}
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Usages: usages,
		Tx:     stubTxRunner{},
	})
	if err != nil {
		t.Fatalf("failed to build service: %v", err)
	}
	return svc, usages
}

func seedVoucher(t *testing.T, repo *stubVoucherRepo, mutate func(*models.Voucher)) *models.Voucher {
	t.Helper()
	now := time.Now().UTC()
	pct := dec("20")
	voucher := &models.Voucher{
		Code:               "SPRING20",
		Name:               "SPRING20",
		Kind:               enums.VoucherKindPercentage,
		Status:             enums.VoucherStatusActive,
		ValidFrom:          now.Add(-time.Hour),
		ValidUntil:         now.Add(time.Hour),
		DiscountPercentage: &pct,
	}
	if mutate != nil {
		mutate(voucher)
	}
	created, err := repo.Create(context.Background(), voucher)
	if err != nil {
		t.Fatalf("failed to seed voucher: %v", err)
	}
	return created
}

func expectCode(t *testing.T, err error, code pkgerrors.Code) *pkgerrors.Error {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected typed error, got %v", err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s (%s)", code, typed.Code(), typed.Message())
	}
	return typed
}

func TestCreate_ForbiddenForRegularUsers(t *testing.T) {
	svc, _ := newTestService(t, newStubVoucherRepo())

	_, err := svc.Create(context.Background(), CreateInput{
		ActorRole: enums.UserRoleUser,
		Code:      "spring20",
		Kind:      enums.VoucherKindFreeShipping,
	})
	expectCode(t, err, pkgerrors.CodeForbidden)
}

func TestCreate_NormalizesCodeAndDefaults(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)

	pct := dec("15")
	got, err := svc.Create(context.Background(), CreateInput{
		ActorUserID:        uuid.New(),
		ActorRole:          enums.UserRoleManager,
		Code:               "  spring20 ",
		Kind:               enums.VoucherKindPercentage,
		DiscountPercentage: &pct,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Code != "SPRING20" {
		t.Fatalf("expected upper-cased code, got %q", got.Code)
	}
	if got.Name != "SPRING20" {
		t.Fatalf("expected name defaulted to code, got %q", got.Name)
	}
	if got.Status != enums.VoucherStatusActive {
		t.Fatalf("expected active status, got %s", got.Status)
	}
	if !got.IsValid {
		t.Fatal("freshly created voucher must be valid")
	}
	// No explicit window means the voucher is effectively indefinite.
	if got.ValidUntil.Before(time.Now().UTC().AddDate(99, 0, 0)) {
		t.Fatalf("expected far-future valid_until, got %s", got.ValidUntil)
	}
	if got.CreatedBy == nil {
		t.Fatal("expected created_by to be recorded")
	}
}

func TestCreate_DuplicateCode(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	seedVoucher(t, repo, nil)

	pct := dec("10")
	_, err := svc.Create(context.Background(), CreateInput{
		ActorRole:          enums.UserRoleAdmin,
		Code:               "spring20",
		Kind:               enums.VoucherKindPercentage,
		DiscountPercentage: &pct,
	})
	typed := expectCode(t, err, pkgerrors.CodeConflict)
	if typed.Message() != "a voucher with this code already exists" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestCreate_VariantFieldValidation(t *testing.T) {
	svc, _ := newTestService(t, newStubVoucherRepo())
	ctx := context.Background()

	pct := dec("120")
	amount := dec("10")
	tenPct := dec("10")
	zero := dec("0")

	cases := []struct {
		name  string
		input CreateInput
	}{
		{
			name: "percentage requires rate",
			input: CreateInput{
				ActorRole: enums.UserRoleAdmin, Code: "A1",
				Kind: enums.VoucherKindPercentage,
			},
		},
		{
			name: "percentage above 100",
			input: CreateInput{
				ActorRole: enums.UserRoleAdmin, Code: "A2",
				Kind: enums.VoucherKindPercentage, DiscountPercentage: &pct,
			},
		},
		{
			name: "fixed requires amount",
			input: CreateInput{
				ActorRole: enums.UserRoleAdmin, Code: "A3",
				Kind: enums.VoucherKindFixedAmount,
			},
		},
		{
			name: "fixed rejects percentage field",
			input: CreateInput{
				ActorRole: enums.UserRoleAdmin, Code: "A4",
				Kind: enums.VoucherKindFixedAmount, DiscountAmount: &amount, DiscountPercentage: &amount,
			},
		},
		{
			name: "free shipping rejects discount amount",
			input: CreateInput{
				ActorRole: enums.UserRoleAdmin, Code: "A5",
				Kind: enums.VoucherKindFreeShipping, DiscountAmount: &amount,
			},
		},
		{
			name: "percentage rejects zero discount cap",
			input: CreateInput{
				ActorRole: enums.UserRoleAdmin, Code: "A7",
				Kind: enums.VoucherKindPercentage, DiscountPercentage: &tenPct, MaxDiscountAmount: &zero,
			},
		},
		{
			name: "free shipping rejects zero shipping cap",
			input: CreateInput{
				ActorRole: enums.UserRoleAdmin, Code: "A8",
				Kind: enums.VoucherKindFreeShipping, MaxShippingAmount: &zero,
			},
		},
		{
			name: "invalid window",
			input: func() CreateInput {
				from := time.Now().UTC()
				until := from.Add(-time.Hour)
				return CreateInput{
					ActorRole: enums.UserRoleAdmin, Code: "A6",
					Kind: enums.VoucherKindFreeShipping, ValidFrom: &from, ValidUntil: &until,
				}
			}(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			expectCode(t, err, pkgerrors.CodeValidation)
		})
	}
}

func TestGet_HidesNonActiveFromRegularUsers(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	voucher := seedVoucher(t, repo, func(v *models.Voucher) {
		v.Status = enums.VoucherStatusCancelled
	})

	_, err := svc.Get(context.Background(), GetInput{VoucherID: voucher.ID, ActorRole: enums.UserRoleUser})
	expectCode(t, err, pkgerrors.CodeNotFound)

	got, err := svc.Get(context.Background(), GetInput{VoucherID: voucher.ID, ActorRole: enums.UserRoleAdmin})
	if err != nil {
		t.Fatalf("admin must see cancelled vouchers: %v", err)
	}
	if got.Status != enums.VoucherStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}
}

func TestList_ForcesActiveForRegularUsers(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	seedVoucher(t, repo, nil)
	seedVoucher(t, repo, func(v *models.Voucher) {
		v.Code = "GONE"
		v.Status = enums.VoucherStatusCancelled
	})

	result, err := svc.List(context.Background(), ListInput{ActorRole: enums.UserRoleUser})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 1 || result.Items[0].Code != "SPRING20" {
		t.Fatalf("expected only the active voucher, got %d items", len(result.Items))
	}

	result, err = svc.List(context.Background(), ListInput{ActorRole: enums.UserRoleManager})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 2 {
		t.Fatalf("managers must see all vouchers, got %d items", len(result.Items))
	}
}

func TestUpdate_WindowAndLimitValidation(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	voucher := seedVoucher(t, repo, func(v *models.Voucher) {
		v.UsageCount = 5
	})
	ctx := context.Background()

	badUntil := voucher.ValidFrom.Add(-time.Minute)
	_, err := svc.Update(ctx, UpdateInput{
		VoucherID: voucher.ID, ActorRole: enums.UserRoleAdmin, ValidUntil: &badUntil,
	})
	expectCode(t, err, pkgerrors.CodeValidation)

	lowLimit := 3
	_, err = svc.Update(ctx, UpdateInput{
		VoucherID: voucher.ID, ActorRole: enums.UserRoleAdmin, UsageLimit: &lowLimit,
	})
	typed := expectCode(t, err, pkgerrors.CodeValidation)
	if typed.Message() != "usage limit cannot be below the recorded usage count" {
		t.Fatalf("unexpected message %q", typed.Message())
	}

	okLimit := 10
	newName := "Spring Sale"
	got, err := svc.Update(ctx, UpdateInput{
		VoucherID: voucher.ID, ActorRole: enums.UserRoleAdmin,
		UsageLimit: &okLimit, Name: &newName,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "Spring Sale" || got.UsageLimit == nil || *got.UsageLimit != 10 {
		t.Fatalf("update not applied: %+v", got)
	}
}

func TestUpdate_RejectsCrossVariantFields(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	voucher := seedVoucher(t, repo, nil) // percentage kind

	amount := dec("5")
	_, err := svc.Update(context.Background(), UpdateInput{
		VoucherID: voucher.ID, ActorRole: enums.UserRoleAdmin, DiscountAmount: &amount,
	})
	expectCode(t, err, pkgerrors.CodeValidation)
}

func TestUpdate_RejectsZeroDiscountCap(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	voucher := seedVoucher(t, repo, nil) // percentage kind

	zero := dec("0")
	_, err := svc.Update(context.Background(), UpdateInput{
		VoucherID: voucher.ID, ActorRole: enums.UserRoleAdmin, MaxDiscountAmount: &zero,
	})
	typed := expectCode(t, err, pkgerrors.CodeValidation)
	if typed.Message() != "max_discount_amount must be at least 0.01" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestCancel(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	voucher := seedVoucher(t, repo, nil)
	ctx := context.Background()

	got, err := svc.Cancel(ctx, CancelInput{VoucherID: voucher.ID, ActorRole: enums.UserRoleManager})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != enums.VoucherStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got.Status)
	}

	_, err = svc.Cancel(ctx, CancelInput{VoucherID: voucher.ID, ActorRole: enums.UserRoleManager})
	typed := expectCode(t, err, pkgerrors.CodeValidation)
	if typed.Message() != "only active vouchers can be cancelled; current status: Cancelled" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestDelete_AdminOnly(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	voucher := seedVoucher(t, repo, nil)
	ctx := context.Background()

	err := svc.Delete(ctx, DeleteInput{VoucherID: voucher.ID, ActorRole: enums.UserRoleManager})
	expectCode(t, err, pkgerrors.CodeForbidden)

	if err := svc.Delete(ctx, DeleteInput{VoucherID: voucher.ID, ActorRole: enums.UserRoleAdmin}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.vouchers[voucher.ID]; ok {
		t.Fatal("voucher should be gone")
	}
}

func TestValidate(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	seedVoucher(t, repo, func(v *models.Voucher) {
		v.MinPurchaseAmount = dec("50.00")
	})
	ctx := context.Background()

	_, err := svc.Validate(ctx, ValidateInput{Code: "NOPE", PurchaseAmount: dec("100")})
	expectCode(t, err, pkgerrors.CodeNotFound)

	_, err = svc.Validate(ctx, ValidateInput{Code: "spring20", PurchaseAmount: dec("49.99")})
	typed := expectCode(t, err, pkgerrors.CodeValidation)
	if typed.Message() != "Minimum purchase amount of 50.00 not met." {
		t.Fatalf("unexpected message %q", typed.Message())
	}

	result, err := svc.Validate(ctx, ValidateInput{Code: " spring20 ", PurchaseAmount: dec("150.00")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DiscountAmount.Equal(dec("30.00")) {
		t.Fatalf("expected discount 30.00, got %s", result.DiscountAmount)
	}
	if !result.FinalAmount.Equal(dec("120.00")) {
		t.Fatalf("expected final 120.00, got %s", result.FinalAmount)
	}
}

func TestValidate_ExpiredVoucher(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, _ := newTestService(t, repo)
	seedVoucher(t, repo, func(v *models.Voucher) {
		v.ValidFrom = time.Now().UTC().Add(-2 * time.Hour)
		v.ValidUntil = time.Now().UTC().Add(-time.Hour)
	})

	_, err := svc.Validate(context.Background(), ValidateInput{Code: "SPRING20", PurchaseAmount: dec("100")})
	typed := expectCode(t, err, pkgerrors.CodeValidation)
	if typed.Message() != "Voucher has expired." {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestRedeem_RecordsUsageAndFlipsStatusAtLimit(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, usages := newTestService(t, repo)
	voucher := seedVoucher(t, repo, func(v *models.Voucher) {
		v.UsageLimit = intPtr(1)
	})
	userID := uuid.New()
	ctx := context.Background()

	result, err := svc.Redeem(ctx, RedeemInput{
		VoucherID:      voucher.ID,
		ActorUserID:    userID,
		PurchaseAmount: dec("200.00"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.DiscountApplied.Equal(dec("40.00")) {
		t.Fatalf("expected discount 40.00, got %s", result.DiscountApplied)
	}
	if result.Voucher.UsageCount != 1 {
		t.Fatalf("expected usage count 1, got %d", result.Voucher.UsageCount)
	}
	if result.Voucher.Status != enums.VoucherStatusUsed {
		t.Fatalf("expected status used at limit, got %s", result.Voucher.Status)
	}
	if len(usages.usages) != 1 {
		t.Fatalf("expected one usage record, got %d", len(usages.usages))
	}
	usage := usages.usages[0]
	if usage.VoucherID != voucher.ID || usage.UserID != userID {
		t.Fatalf("usage record mismatch: %+v", usage)
	}
	if !usage.DiscountApplied.Equal(dec("40.00")) {
		t.Fatalf("expected recorded discount 40.00, got %s", usage.DiscountApplied)
	}

	_, err = svc.Redeem(ctx, RedeemInput{
		VoucherID:      voucher.ID,
		ActorUserID:    userID,
		PurchaseAmount: dec("200.00"),
	})
	typed := expectCode(t, err, pkgerrors.CodeValidation)
	if typed.Message() != "Voucher is not active. Current status: Used" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	if len(usages.usages) != 1 {
		t.Fatal("rejected redemption must not record usage")
	}
}

func TestRedeem_MinimumPurchaseEnforced(t *testing.T) {
	repo := newStubVoucherRepo()
	svc, usages := newTestService(t, repo)
	voucher := seedVoucher(t, repo, func(v *models.Voucher) {
		v.MinPurchaseAmount = dec("25.00")
	})

	_, err := svc.Redeem(context.Background(), RedeemInput{
		VoucherID:      voucher.ID,
		ActorUserID:    uuid.New(),
		PurchaseAmount: dec("10.00"),
	})
	typed := expectCode(t, err, pkgerrors.CodeValidation)
	if typed.Message() != "Minimum purchase amount of 25.00 not met." {
		t.Fatalf("unexpected message %q", typed.Message())
	}
	if len(usages.usages) != 0 {
		t.Fatal("no usage may be recorded below the minimum")
	}
	if repo.vouchers[voucher.ID].UsageCount != 0 {
		t.Fatal("usage count must not move below the minimum")
	}
}

func TestRedeem_LostRaceFallsBackToDiagnosis(t *testing.T) {
	repo := newStubVoucherRepo()
	repo.forceZeroApply = true
	svc, _ := newTestService(t, repo)
	voucher := seedVoucher(t, repo, nil)

	_, err := svc.Redeem(context.Background(), RedeemInput{
		VoucherID:      voucher.ID,
		ActorUserID:    uuid.New(),
		PurchaseAmount: dec("100.00"),
	})
	typed := expectCode(t, err, pkgerrors.CodeValidation)
	// The reload still shows a redeemable voucher, so only the generic
	// message remains.
	if typed.Message() != "Voucher is not valid." {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestRedeem_UnknownVoucher(t *testing.T) {
	svc, _ := newTestService(t, newStubVoucherRepo())

	_, err := svc.Redeem(context.Background(), RedeemInput{
		VoucherID:      uuid.New(),
		ActorUserID:    uuid.New(),
		PurchaseAmount: dec("100.00"),
	})
	expectCode(t, err, pkgerrors.CodeNotFound)
}
