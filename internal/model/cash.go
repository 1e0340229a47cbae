package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Cash movement types.
const (
	CashMoveSale       = "sale"
	CashMovePurchase   = "purchase"
	CashMoveIncome     = "income"
	CashMoveExpense    = "expense"
	CashMoveOpening    = "opening"
	CashMoveDeposit    = "deposit"
	CashMoveWithdrawal = "withdrawal"
)

// CashRegister is a physical till or a collection box.
type CashRegister struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name              string          `gorm:"not null"`
	Code              string          `gorm:"uniqueIndex;not null"`
	Location          string
	ResponsibleUserID *uuid.UUID      `gorm:"type:uuid"`
	IsActive          bool            `gorm:"not null;default:true"`
	IsCollectionBox   bool            `gorm:"not null;default:false"`
	CurrentBalance    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CashSession is one open→closed period of a register.
// At most one session per register may be open (partial unique index).
type CashSession struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashRegisterID uuid.UUID        `gorm:"type:uuid;not null;index"`
	UserID         *uuid.UUID       `gorm:"type:uuid"`
	OpenedAt       time.Time        `gorm:"not null"`
	ClosedAt       *time.Time
	OpeningAmount  decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ExpectedAmount decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	ClosingAmount  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status         string           `gorm:"type:varchar(10);not null;default:'open'"`
	Notes          string

	Movements    []CashMovement `gorm:"foreignKey:CashSessionID"`
	CashRegister *CashRegister  `gorm:"foreignKey:CashRegisterID"`
}

func (s *CashSession) IsOpen() bool { return s.Status == SessionOpen }

// CashMovement is an append-only ledger entry. Amount is always a positive
// magnitude; the type decides whether it adds to or subtracts from the
// session's expected amount.
type CashMovement struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CashSessionID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Type             string          `gorm:"type:varchar(20);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Description      string          `gorm:"not null"`
	ReferenceID      *uuid.UUID      `gorm:"type:uuid"`
	ReferenceType    string
	UserID           *uuid.UUID `gorm:"type:uuid"`
	SellerID         *uuid.UUID `gorm:"type:uuid"`
	CustomerName     string
	CustomerDocument string
	PaymentMethod    string `gorm:"type:varchar(20)"`
	DocumentType     string `gorm:"type:varchar(10)"`
	CreatedAt        time.Time
}

// CashEffect returns +1 for credits, -1 for debits and 0 for types that do not
// move the expected amount (opening, unknown).
func CashEffect(movementType string) int {
	switch movementType {
	case CashMoveSale, CashMoveIncome, CashMoveDeposit:
		return 1
	case CashMovePurchase, CashMoveExpense, CashMoveWithdrawal:
		return -1
	default:
		return 0
	}
}

// SignedAmount is Amount with the sign of its effect on the expected amount.
func (m *CashMovement) SignedAmount() decimal.Decimal {
	return m.Amount.Mul(decimal.NewFromInt(int64(CashEffect(m.Type))))
}
