package repository

import (
	"context"

	"perfumeria/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PartnerRepository interface {
	FindByRUC(ctx context.Context, ruc, partnerType string) (*model.BusinessPartner, error)
	Create(ctx context.Context, p *model.BusinessPartner) error
	Update(ctx context.Context, p *model.BusinessPartner) error

	// FindSellerCustomer matches by document when it is set, by name otherwise.
	FindSellerCustomer(ctx context.Context, sellerID uuid.UUID, document, name string) (*model.SellerCustomer, error)
	CreateSellerCustomer(ctx context.Context, c *model.SellerCustomer) error
	UpdateSellerCustomer(ctx context.Context, c *model.SellerCustomer) error
	ListSellerCustomers(ctx context.Context, sellerID uuid.UUID) ([]model.SellerCustomer, error)
}

type partnerRepo struct{ db *gorm.DB }

func NewPartnerRepository(db *gorm.DB) PartnerRepository { return &partnerRepo{db: db} }

func (r *partnerRepo) FindByRUC(ctx context.Context, ruc, partnerType string) (*model.BusinessPartner, error) {
	var p model.BusinessPartner
	err := r.db.WithContext(ctx).Where("ruc = ? AND type = ?", ruc, partnerType).First(&p).Error
	return &p, err
}

func (r *partnerRepo) Create(ctx context.Context, p *model.BusinessPartner) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *partnerRepo) Update(ctx context.Context, p *model.BusinessPartner) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *partnerRepo) FindSellerCustomer(ctx context.Context, sellerID uuid.UUID, document, name string) (*model.SellerCustomer, error) {
	q := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	if document != "" {
		q = q.Where("document = ?", document)
	} else {
		q = q.Where("name = ?", name)
	}
	var c model.SellerCustomer
	err := q.First(&c).Error
	return &c, err
}

func (r *partnerRepo) CreateSellerCustomer(ctx context.Context, c *model.SellerCustomer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *partnerRepo) UpdateSellerCustomer(ctx context.Context, c *model.SellerCustomer) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *partnerRepo) ListSellerCustomers(ctx context.Context, sellerID uuid.UUID) ([]model.SellerCustomer, error) {
	var out []model.SellerCustomer
	err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("name ASC").Find(&out).Error
	return out, err
}
