package usages

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/redeemly/redeemly-backend/internal/vouchers"
	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	pkgerrors "github.com/redeemly/redeemly-backend/pkg/errors"
	"github.com/redeemly/redeemly-backend/pkg/pagination"
)

type voucherFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
}

// Service exposes read access to the redemption ledger.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	ListForVoucher(ctx context.Context, input ListForVoucherInput) (*ListResult, error)
	ListForUser(ctx context.Context, input ListForUserInput) (*ListResult, error)
}

type service struct {
	repo     Repository
	vouchers voucherFinder
}

// ServiceParams bundles the dependencies required to build a usage service.
type ServiceParams struct {
	Repo     Repository
	Vouchers voucherFinder
}

// NewService constructs a usage service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("usage repository is required")
	}
	if params.Vouchers == nil {
		return nil, fmt.Errorf("voucher finder is required")
	}
	return &service{repo: params.Repo, vouchers: params.Vouchers}, nil
}

// ListInput scopes the ledger listing to the caller's visibility.
type ListInput struct {
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
	Limit       int
	Cursor      string
}

// ListForVoucherInput identifies the voucher whose ledger is requested.
type ListForVoucherInput struct {
	VoucherID   uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
	Limit       int
	Cursor      string
}

// ListForUserInput identifies the user whose redemptions are requested.
// A nil UserID means the caller's own history.
type ListForUserInput struct {
	UserID      uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.UserRole
	Limit       int
	Cursor      string
}

// ListResult returns one page of usage records plus the next cursor.
type ListResult struct {
	Items  []UsageDTO `json:"items"`
	Cursor string     `json:"cursor"`
}

// List returns the full ledger for admins and managers, and the caller's own
// redemptions for everyone else.
func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	if vouchers.CanViewAllUsages(input.ActorRole) {
		return s.list(ctx, input.Limit, input.Cursor, func(query ListQuery) ([]models.VoucherUsage, error) {
			return s.repo.ListAll(ctx, query)
		})
	}
	return s.list(ctx, input.Limit, input.Cursor, func(query ListQuery) ([]models.VoucherUsage, error) {
		return s.repo.ListByUser(ctx, input.ActorUserID, query)
	})
}

// ListForVoucher returns the redemption history of a voucher. Admins and
// managers see any voucher's ledger; other callers only the ledgers of
// vouchers they created.
func (s *service) ListForVoucher(ctx context.Context, input ListForVoucherInput) (*ListResult, error) {
	if input.VoucherID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "voucher id required")
	}

	voucher, err := s.vouchers.FindByID(ctx, input.VoucherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load voucher")
	}

	if !vouchers.CanViewAllUsages(input.ActorRole) {
		isCreator := voucher.CreatedBy != nil && *voucher.CreatedBy == input.ActorUserID
		if !isCreator {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view this voucher's usage history")
		}
	}

	return s.list(ctx, input.Limit, input.Cursor, func(query ListQuery) ([]models.VoucherUsage, error) {
		return s.repo.ListByVoucher(ctx, input.VoucherID, query)
	})
}

// ListForUser returns a user's redemption history. Admins and managers may
// request any user's history; everyone else only their own.
func (s *service) ListForUser(ctx context.Context, input ListForUserInput) (*ListResult, error) {
	userID := input.UserID
	if userID == uuid.Nil {
		userID = input.ActorUserID
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	if userID != input.ActorUserID && !vouchers.CanViewAllUsages(input.ActorRole) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "not allowed to view another user's usage history")
	}

	return s.list(ctx, input.Limit, input.Cursor, func(query ListQuery) ([]models.VoucherUsage, error) {
		return s.repo.ListByUser(ctx, userID, query)
	})
}

func (s *service) list(ctx context.Context, limit int, cursorValue string, fetch func(ListQuery) ([]models.VoucherUsage, error)) (*ListResult, error) {
	normalized := pagination.NormalizeLimit(limit)

	query := ListQuery{Limit: pagination.LimitWithBuffer(limit)}
	if cursorValue != "" {
		cursor, err := pagination.ParseCursor(cursorValue)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, err := fetch(query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list voucher usages")
	}

	nextCursor := ""
	if len(rows) > normalized {
		next := rows[normalized]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID})
		rows = rows[:normalized]
	}

	items := make([]UsageDTO, len(rows))
	for i := range rows {
		items[i] = *FromModel(&rows[i])
	}
	return &ListResult{Items: items, Cursor: nextCursor}, nil
}
