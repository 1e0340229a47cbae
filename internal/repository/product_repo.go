package repository

import (
	"context"

	"perfumeria/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via in-memory stubs.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// Used inside transactions. Callers must pass the tx instance.
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error)
	// DecrementStockTx subtracts qty only when stock >= qty.
	// Returns ErrNoRowsAffected when the guard fails or the product is missing.
	DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (StockLevel, error)
	// IncrementStockTx adds qty. Returns gorm.ErrRecordNotFound for unknown ids.
	IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (StockLevel, error)
}

// StockLevel is the row state after a stock update.
type StockLevel struct {
	Name  string
	Stock int
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := tx.First(&p, "id = ?", id).Error
	return &p, err
}

// DecrementStockTx is a single conditional UPDATE, so concurrent reservations
// of the last unit cannot both succeed.
func (r *productRepo) DecrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (StockLevel, error) {
	var rows []StockLevel
	err := tx.Raw(`UPDATE products SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?
		RETURNING name, stock`, qty, id, qty).Scan(&rows).Error
	if err != nil {
		return StockLevel{}, err
	}
	if len(rows) == 0 {
		return StockLevel{}, ErrNoRowsAffected
	}
	return rows[0], nil
}

func (r *productRepo) IncrementStockTx(tx *gorm.DB, id uuid.UUID, qty int) (StockLevel, error) {
	var rows []StockLevel
	err := tx.Raw(`UPDATE products SET stock = stock + ?, updated_at = NOW()
		WHERE id = ?
		RETURNING name, stock`, qty, id).Scan(&rows).Error
	if err != nil {
		return StockLevel{}, err
	}
	if len(rows) == 0 {
		return StockLevel{}, gorm.ErrRecordNotFound
	}
	return rows[0], nil
}
