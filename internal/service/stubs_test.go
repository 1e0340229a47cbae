package service_test

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"

	"perfumeria/internal/dto"
	"perfumeria/internal/model"
	"perfumeria/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── In-memory database ────────────────────────────────────────────────────────
// All stub repositories share one memDB. memTx snapshots it when a
// transaction starts and restores the snapshot when fn fails, so tests can
// assert rollback without Postgres.

type memDB struct {
	mu sync.Mutex

	products       map[uuid.UUID]model.Product
	stockMovements []model.StockMovement
	orders         map[uuid.UUID]model.Order
	registers      map[uuid.UUID]model.CashRegister
	sessions       map[uuid.UUID]model.CashSession
	cashMovements  []model.CashMovement
	purchases      map[uuid.UUID]model.Purchase
	sales          map[uuid.UUID]model.Sale
	partners       map[uuid.UUID]model.BusinessPartner
	customers      map[uuid.UUID]model.SellerCustomer
	notifications  []model.Notification

	// onDecrement runs after a successful DecrementStockTx, standing in for
	// a concurrent writer that changes the row between reads.
	onDecrement func(p *model.Product)
}

func newMemDB() *memDB {
	return &memDB{
		products:  map[uuid.UUID]model.Product{},
		orders:    map[uuid.UUID]model.Order{},
		registers: map[uuid.UUID]model.CashRegister{},
		sessions:  map[uuid.UUID]model.CashSession{},
		purchases: map[uuid.UUID]model.Purchase{},
		sales:     map[uuid.UUID]model.Sale{},
		partners:  map[uuid.UUID]model.BusinessPartner{},
		customers: map[uuid.UUID]model.SellerCustomer{},
	}
}

func (db *memDB) snapshot() *memDB {
	return &memDB{
		products:       maps.Clone(db.products),
		stockMovements: slices.Clone(db.stockMovements),
		orders:         maps.Clone(db.orders),
		registers:      maps.Clone(db.registers),
		sessions:       maps.Clone(db.sessions),
		cashMovements:  slices.Clone(db.cashMovements),
		purchases:      maps.Clone(db.purchases),
		sales:          maps.Clone(db.sales),
		partners:       maps.Clone(db.partners),
		customers:      maps.Clone(db.customers),
		notifications:  slices.Clone(db.notifications),
	}
}

func (db *memDB) restore(s *memDB) {
	db.products = s.products
	db.stockMovements = s.stockMovements
	db.orders = s.orders
	db.registers = s.registers
	db.sessions = s.sessions
	db.cashMovements = s.cashMovements
	db.purchases = s.purchases
	db.sales = s.sales
	db.partners = s.partners
	db.customers = s.customers
	db.notifications = s.notifications
}

func (db *memDB) addProduct(name string, stock int, price string) model.Product {
	p := model.Product{
		ID:       uuid.New(),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		IsActive: true,
	}
	db.products[p.ID] = p
	return p
}

func (db *memDB) stockOf(id uuid.UUID) int { return db.products[id].Stock }

func (db *memDB) movementsOf(id uuid.UUID) []model.StockMovement {
	var out []model.StockMovement
	for _, m := range db.stockMovements {
		if m.ProductID == id {
			out = append(out, m)
		}
	}
	return out
}

// ── Transactor ────────────────────────────────────────────────────────────────

// memTx serialises transactions with the memDB lock, standing in for row locks.
type memTx struct{ db *memDB }

var _ repository.Transactor = (*memTx)(nil)

func (t *memTx) WithinTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	t.db.mu.Lock()
	defer t.db.mu.Unlock()
	snap := t.db.snapshot()
	if err := fn(nil); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

// ── Products ──────────────────────────────────────────────────────────────────
// Non-Tx reads run outside memTx and are not locked; tests drive them from a
// single goroutine.

type stubProductRepo struct{ db *memDB }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	return r.FindByIDTx(nil, id)
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	p, ok := r.db.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *stubProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (repository.StockLevel, error) {
	p, ok := r.db.products[id]
	if !ok || p.Stock < qty {
		return repository.StockLevel{}, repository.ErrNoRowsAffected
	}
	p.Stock -= qty
	if r.db.onDecrement != nil {
		r.db.onDecrement(&p)
	}
	r.db.products[id] = p
	return repository.StockLevel{Name: p.Name, Stock: p.Stock}, nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (repository.StockLevel, error) {
	p, ok := r.db.products[id]
	if !ok {
		return repository.StockLevel{}, gorm.ErrRecordNotFound
	}
	p.Stock += qty
	r.db.products[id] = p
	return repository.StockLevel{Name: p.Name, Stock: p.Stock}, nil
}

// ── Stock movements ───────────────────────────────────────────────────────────

type stubStockMovementRepo struct{ db *memDB }

var _ repository.StockMovementRepository = (*stubStockMovementRepo)(nil)

func (r *stubStockMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	m.ID = uuid.New()
	r.db.stockMovements = append(r.db.stockMovements, *m)
	return nil
}

func (r *stubStockMovementRepo) List(_ context.Context, f repository.StockMovementFilter) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range r.db.stockMovements {
		if f.ProductID != nil && m.ProductID != *f.ProductID {
			continue
		}
		if f.Type != "" && m.Type != f.Type {
			continue
		}
		out = append(out, m)
	}
	return out, int64(len(out)), nil
}

// ── Orders ────────────────────────────────────────────────────────────────────

type stubOrderRepo struct{ db *memDB }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

func (r *stubOrderRepo) CreateTx(_ *gorm.DB, o *model.Order) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	r.db.orders[o.ID] = *o
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return r.FindForUpdateTx(nil, id)
}

func (r *stubOrderRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Order, error) {
	o, ok := r.db.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r *stubOrderRepo) UpdateTx(_ *gorm.DB, o *model.Order) error {
	r.db.orders[o.ID] = *o
	return nil
}

func (r *stubOrderRepo) NumberExists(_ context.Context, n string) (bool, error) {
	for _, o := range r.db.orders {
		if o.OrderNumber == n {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubOrderRepo) List(_ context.Context, f dto.OrderFilter) ([]model.Order, int64, error) {
	var out []model.Order
	for _, o := range r.db.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.Source != "" && o.Source != f.Source {
			continue
		}
		if f.RequiresConfirmation != nil && o.RequiresAdminConfirmation != *f.RequiresConfirmation {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderNumber < out[j].OrderNumber })
	return out, int64(len(out)), nil
}

// ── Cash ──────────────────────────────────────────────────────────────────────

type stubCashRepo struct{ db *memDB }

var _ repository.CashRepository = (*stubCashRepo)(nil)

func (r *stubCashRepo) CreateRegister(_ context.Context, reg *model.CashRegister) error {
	for _, existing := range r.db.registers {
		if existing.Code == reg.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	reg.ID = uuid.New()
	r.db.registers[reg.ID] = *reg
	return nil
}

func (r *stubCashRepo) FindRegisterByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	return r.FindRegisterForUpdateTx(nil, id)
}

func (r *stubCashRepo) ListRegisters(_ context.Context) ([]model.CashRegister, error) {
	out := slices.Collect(maps.Values(r.db.registers))
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *stubCashRepo) FindActiveRegisterByResponsible(_ context.Context, userID uuid.UUID) (*model.CashRegister, error) {
	for _, reg := range r.db.registers {
		if reg.IsActive && reg.ResponsibleUserID != nil && *reg.ResponsibleUserID == userID {
			return &reg, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCashRepo) ListSessions(_ context.Context, registerID uuid.UUID) ([]model.CashSession, error) {
	return r.sessionsWhere(func(s model.CashSession) bool { return s.CashRegisterID == registerID }), nil
}

func (r *stubCashRepo) ListSessionsByUser(_ context.Context, userID uuid.UUID) ([]model.CashSession, error) {
	return r.sessionsWhere(func(s model.CashSession) bool { return s.UserID != nil && *s.UserID == userID }), nil
}

func (r *stubCashRepo) sessionsWhere(keep func(model.CashSession) bool) []model.CashSession {
	var out []model.CashSession
	for _, s := range r.db.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return out
}

func (r *stubCashRepo) FindOpenSession(_ context.Context, registerID uuid.UUID) (*model.CashSession, error) {
	return r.FindOpenSessionTx(nil, registerID)
}

func (r *stubCashRepo) FindSessionByID(_ context.Context, id uuid.UUID) (*model.CashSession, error) {
	return r.FindSessionForUpdateTx(nil, id)
}

func (r *stubCashRepo) ListMovements(_ context.Context, sessionID uuid.UUID) ([]model.CashMovement, error) {
	var out []model.CashMovement
	for _, m := range r.db.cashMovements {
		if m.CashSessionID == sessionID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *stubCashRepo) FindRegisterForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	reg, ok := r.db.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &reg, nil
}

func (r *stubCashRepo) UpdateRegisterBalanceTx(_ *gorm.DB, id uuid.UUID, balance decimal.Decimal) error {
	reg := r.db.registers[id]
	reg.CurrentBalance = balance
	r.db.registers[id] = reg
	return nil
}

func (r *stubCashRepo) UpdateRegisterTx(_ *gorm.DB, reg *model.CashRegister) error {
	for id, existing := range r.db.registers {
		if id != reg.ID && existing.Code == reg.Code {
			return gorm.ErrDuplicatedKey
		}
	}
	r.db.registers[reg.ID] = *reg
	return nil
}

func (r *stubCashRepo) FindOpenSessionTx(_ *gorm.DB, registerID uuid.UUID) (*model.CashSession, error) {
	for _, s := range r.db.sessions {
		if s.CashRegisterID == registerID && s.Status == model.SessionOpen {
			return &s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubCashRepo) FindSessionForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	s, ok := r.db.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

// CreateSessionTx enforces the one-open-session-per-register index.
func (r *stubCashRepo) CreateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	for _, existing := range r.db.sessions {
		if existing.CashRegisterID == s.CashRegisterID && existing.Status == model.SessionOpen {
			return gorm.ErrDuplicatedKey
		}
	}
	r.db.sessions[s.ID] = *s
	return nil
}

func (r *stubCashRepo) UpdateSessionTx(_ *gorm.DB, s *model.CashSession) error {
	r.db.sessions[s.ID] = *s
	return nil
}

func (r *stubCashRepo) CreateMovementTx(_ *gorm.DB, m *model.CashMovement) error {
	m.ID = uuid.New()
	r.db.cashMovements = append(r.db.cashMovements, *m)
	return nil
}

// ── Purchases / sales ─────────────────────────────────────────────────────────

type stubPurchaseRepo struct{ db *memDB }

var _ repository.PurchaseRepository = (*stubPurchaseRepo)(nil)

func (r *stubPurchaseRepo) CreateTx(_ *gorm.DB, p *model.Purchase) error {
	r.db.purchases[p.ID] = *p
	return nil
}

func (r *stubPurchaseRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	return r.FindForUpdateTx(nil, id)
}

func (r *stubPurchaseRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Purchase, error) {
	p, ok := r.db.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (r *stubPurchaseRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	p := r.db.purchases[id]
	p.Status = status
	r.db.purchases[id] = p
	return nil
}

type stubSaleRepo struct{ db *memDB }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	r.db.sales[s.ID] = *s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	return r.FindForUpdateTx(nil, id)
}

func (r *stubSaleRepo) FindForUpdateTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.db.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &s, nil
}

func (r *stubSaleRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	s := r.db.sales[id]
	s.Status = status
	r.db.sales[id] = s
	return nil
}

// ── Partners ──────────────────────────────────────────────────────────────────

type stubPartnerRepo struct{ db *memDB }

var _ repository.PartnerRepository = (*stubPartnerRepo)(nil)

func (r *stubPartnerRepo) FindByRUC(_ context.Context, ruc, partnerType string) (*model.BusinessPartner, error) {
	for _, p := range r.db.partners {
		if p.RUC == ruc && p.Type == partnerType {
			return &p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPartnerRepo) Create(_ context.Context, p *model.BusinessPartner) error {
	p.ID = uuid.New()
	r.db.partners[p.ID] = *p
	return nil
}

func (r *stubPartnerRepo) Update(_ context.Context, p *model.BusinessPartner) error {
	r.db.partners[p.ID] = *p
	return nil
}

func (r *stubPartnerRepo) FindSellerCustomer(_ context.Context, sellerID uuid.UUID, document, name string) (*model.SellerCustomer, error) {
	for _, c := range r.db.customers {
		if c.SellerID != sellerID {
			continue
		}
		if (document != "" && c.Document == document) || (document == "" && c.Name == name) {
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubPartnerRepo) CreateSellerCustomer(_ context.Context, c *model.SellerCustomer) error {
	c.ID = uuid.New()
	r.db.customers[c.ID] = *c
	return nil
}

func (r *stubPartnerRepo) UpdateSellerCustomer(_ context.Context, c *model.SellerCustomer) error {
	r.db.customers[c.ID] = *c
	return nil
}

func (r *stubPartnerRepo) ListSellerCustomers(_ context.Context, sellerID uuid.UUID) ([]model.SellerCustomer, error) {
	var out []model.SellerCustomer
	for _, c := range r.db.customers {
		if c.SellerID == sellerID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
