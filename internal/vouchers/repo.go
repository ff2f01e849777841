package vouchers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/enums"
	"github.com/redeemly/redeemly-backend/pkg/pagination"
)

// Repository exposes voucher persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error)
	FindByCode(ctx context.Context, code string) (*models.Voucher, error)
	List(ctx context.Context, query ListQuery) ([]models.Voucher, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error
	ApplyRedemption(ctx context.Context, id uuid.UUID, now time.Time) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a voucher repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListQuery configures voucher listing filters.
type ListQuery struct {
	OnlyActive bool
	Status     *enums.VoucherStatus
	Kind       *enums.VoucherKind
	Search     string
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repository) Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error) {
	if err := r.db.WithContext(ctx).Create(voucher).Error; err != nil {
		return nil, err
	}
	return voucher, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.WithContext(ctx).First(&voucher, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

// FindByCode resolves the voucher stored under the normalized form of code.
func (r *repository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	normalized := strings.ToUpper(strings.TrimSpace(code))
	if err := r.db.WithContext(ctx).Where("code = ?", normalized).First(&voucher).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

// List returns vouchers ordered by (created_at, id) descending.
// The caller passes limit+1 to detect whether another page exists.
func (r *repository) List(ctx context.Context, query ListQuery) ([]models.Voucher, error) {
	tx := r.db.WithContext(ctx).Model(&models.Voucher{})

	if query.OnlyActive {
		tx = tx.Where("status = ?", enums.VoucherStatusActive)
	}
	if query.Status != nil {
		tx = tx.Where("status = ?", *query.Status)
	}
	if query.Kind != nil {
		tx = tx.Where("kind = ?", *query.Kind)
	}
	if search := strings.TrimSpace(query.Search); search != "" {
		pattern := "%" + strings.ToUpper(search) + "%"
		tx = tx.Where("code LIKE ? OR UPPER(name) LIKE ?", pattern, pattern)
	}
	if query.Cursor != nil {
		tx = tx.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.Voucher
	err := tx.Order("created_at DESC, id DESC").
		Limit(query.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// ApplyRedemption performs the conditional usage increment. The WHERE clause
// re-checks status, window, and headroom so concurrent redeemers cannot push
// usage_count past the limit; the CASE flips status to used when the increment
// lands exactly on the limit. Zero rows affected means the voucher was not
// redeemable at execution time and the caller must re-diagnose.
func (r *repository) ApplyRedemption(ctx context.Context, id uuid.UUID, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where(
			"id = ? AND status = ? AND valid_from <= ? AND valid_until >= ? AND (usage_limit IS NULL OR usage_count < usage_limit)",
			id, enums.VoucherStatusActive, now, now,
		).
		Updates(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"status": gorm.Expr(
				"CASE WHEN usage_limit IS NOT NULL AND usage_count + 1 >= usage_limit THEN ? ELSE status END",
				enums.VoucherStatusUsed,
			),
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.Voucher{}).Error
}
