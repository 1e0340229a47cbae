package repository

import (
	"context"

	"perfumeria/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CashRepository interface {
	CreateRegister(ctx context.Context, r *model.CashRegister) error
	FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
	ListRegisters(ctx context.Context) ([]model.CashRegister, error)
	// FindActiveRegisterByResponsible returns the active register assigned to userID.
	FindActiveRegisterByResponsible(ctx context.Context, userID uuid.UUID) (*model.CashRegister, error)
	FindOpenSession(ctx context.Context, registerID uuid.UUID) (*model.CashSession, error)
	FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error)
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error)
	// ListSessions and ListSessionsByUser return newest first.
	ListSessions(ctx context.Context, registerID uuid.UUID) ([]model.CashSession, error)
	ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]model.CashSession, error)

	// Used inside transactions. The *ForUpdateTx variants take a row lock.
	FindRegisterForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error)
	UpdateRegisterBalanceTx(tx *gorm.DB, id uuid.UUID, balance decimal.Decimal) error
	UpdateRegisterTx(tx *gorm.DB, r *model.CashRegister) error
	FindOpenSessionTx(tx *gorm.DB, registerID uuid.UUID) (*model.CashSession, error)
	FindSessionForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error)
	CreateSessionTx(tx *gorm.DB, s *model.CashSession) error
	UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error
	// CreateMovementTx appends to the ledger. Movements are never updated or deleted.
	CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error
}

type cashRepo struct{ db *gorm.DB }

func NewCashRepository(db *gorm.DB) CashRepository { return &cashRepo{db: db} }

func (r *cashRepo) CreateRegister(ctx context.Context, reg *model.CashRegister) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *cashRepo) FindRegisterByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).First(&reg, "id = ?", id).Error
	return &reg, err
}

func (r *cashRepo) ListRegisters(ctx context.Context) ([]model.CashRegister, error) {
	var regs []model.CashRegister
	err := r.db.WithContext(ctx).Order("name ASC").Find(&regs).Error
	return regs, err
}

func (r *cashRepo) FindActiveRegisterByResponsible(ctx context.Context, userID uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).
		Where("responsible_user_id = ? AND is_active = ?", userID, true).
		Order("name ASC").
		First(&reg).Error
	return &reg, err
}

func (r *cashRepo) FindOpenSession(ctx context.Context, registerID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).
		Where("cash_register_id = ? AND status = ?", registerID, model.SessionOpen).
		First(&s).Error
	return &s, err
}

func (r *cashRepo) FindSessionByID(ctx context.Context, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cashRepo) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var movs []model.CashMovement
	err := r.db.WithContext(ctx).Where("cash_session_id = ?", sessionID).Order("created_at ASC").Find(&movs).Error
	return movs, err
}

func (r *cashRepo) ListSessions(ctx context.Context, registerID uuid.UUID) ([]model.CashSession, error) {
	var out []model.CashSession
	err := r.db.WithContext(ctx).Where("cash_register_id = ?", registerID).Order("opened_at DESC").Find(&out).Error
	return out, err
}

func (r *cashRepo) ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]model.CashSession, error) {
	var out []model.CashSession
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("opened_at DESC").Find(&out).Error
	return out, err
}

func (r *cashRepo) FindRegisterForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&reg, "id = ?", id).Error
	return &reg, err
}

func (r *cashRepo) UpdateRegisterBalanceTx(tx *gorm.DB, id uuid.UUID, balance decimal.Decimal) error {
	return tx.Model(&model.CashRegister{}).Where("id = ?", id).Update("current_balance", balance).Error
}

// UpdateRegisterTx writes the editable columns. current_balance only moves
// through session close.
func (r *cashRepo) UpdateRegisterTx(tx *gorm.DB, reg *model.CashRegister) error {
	return tx.Model(reg).
		Select("name", "code", "location", "responsible_user_id", "is_active", "is_collection_box").
		Updates(reg).Error
}

func (r *cashRepo) FindOpenSessionTx(tx *gorm.DB, registerID uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Where("cash_register_id = ? AND status = ?", registerID, model.SessionOpen).First(&s).Error
	return &s, err
}

func (r *cashRepo) FindSessionForUpdateTx(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	var s model.CashSession
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *cashRepo) CreateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Omit(clause.Associations).Create(s).Error
}

func (r *cashRepo) UpdateSessionTx(tx *gorm.DB, s *model.CashSession) error {
	return tx.Omit(clause.Associations).Save(s).Error
}

func (r *cashRepo) CreateMovementTx(tx *gorm.DB, m *model.CashMovement) error {
	return tx.Create(m).Error
}
