package usages

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/redeemly/redeemly-backend/pkg/db/models"
	"github.com/redeemly/redeemly-backend/pkg/pagination"
)

// Repository exposes the redemption ledger. Usage rows are append-only; there
// are no update or delete operations.
type Repository interface {
	CreateInTx(ctx context.Context, tx *gorm.DB, usage *models.VoucherUsage) (*models.VoucherUsage, error)
	ListByVoucher(ctx context.Context, voucherID uuid.UUID, query ListQuery) ([]models.VoucherUsage, error)
	ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]models.VoucherUsage, error)
	ListAll(ctx context.Context, query ListQuery) ([]models.VoucherUsage, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a usage repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// ListQuery configures usage listing pagination.
type ListQuery struct {
	Limit  int
	Cursor *pagination.Cursor
}

// CreateInTx inserts the usage row on the caller's transaction so the insert
// commits or rolls back together with the voucher counter update. A nil tx
// falls back to the repository's own connection.
func (r *repository) CreateInTx(ctx context.Context, tx *gorm.DB, usage *models.VoucherUsage) (*models.VoucherUsage, error) {
	conn := r.db
	if tx != nil {
		conn = tx
	}
	if err := conn.WithContext(ctx).Create(usage).Error; err != nil {
		return nil, err
	}
	return usage, nil
}

func (r *repository) ListByVoucher(ctx context.Context, voucherID uuid.UUID, query ListQuery) ([]models.VoucherUsage, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.VoucherUsage{}).
		Preload("User").
		Where("voucher_id = ?", voucherID)
	return listPage(tx, query)
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, query ListQuery) ([]models.VoucherUsage, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.VoucherUsage{}).
		Preload("Voucher").
		Where("user_id = ?", userID)
	return listPage(tx, query)
}

func (r *repository) ListAll(ctx context.Context, query ListQuery) ([]models.VoucherUsage, error) {
	tx := r.db.WithContext(ctx).
		Model(&models.VoucherUsage{}).
		Preload("Voucher").
		Preload("User")
	return listPage(tx, query)
}

func listPage(tx *gorm.DB, query ListQuery) ([]models.VoucherUsage, error) {
	if query.Cursor != nil {
		tx = tx.Where("(created_at, id) < (?, ?)", query.Cursor.CreatedAt, query.Cursor.ID)
	}

	var rows []models.VoucherUsage
	err := tx.Order("created_at DESC, id DESC").
		Limit(query.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
