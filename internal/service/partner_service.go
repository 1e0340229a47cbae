package service

import (
	"context"
	"strings"

	"perfumeria/internal/dto"
	"perfumeria/internal/model"
	"perfumeria/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Walk-in placeholders that must never become business partners.
var placeholderCustomers = map[string]bool{
	"cliente en tienda": true,
	"clientes varios":   true,
}

const placeholderDocument = "00000000"

// PartnerService keeps the customer directories in sync with seller orders:
// the seller's own list and the global business partner table.
type PartnerService interface {
	// SaveCustomerFromOrder upserts the order's customer. Orders without a
	// seller (UserID) are ignored. Errors are logged and swallowed so a
	// directory problem never fails an order.
	SaveCustomerFromOrder(ctx context.Context, o *model.Order)
	ListSellerCustomers(ctx context.Context, sellerID uuid.UUID) ([]dto.SellerCustomerResponse, error)
}

type partnerService struct {
	repo repository.PartnerRepository
}

func NewPartnerService(repo repository.PartnerRepository) PartnerService {
	return &partnerService{repo: repo}
}

func (s *partnerService) SaveCustomerFromOrder(ctx context.Context, o *model.Order) {
	name := strings.TrimSpace(o.CustomerName)
	if o.UserID == nil || name == "" || placeholderCustomers[strings.ToLower(name)] {
		return
	}
	doc := strings.TrimSpace(o.CustomerDocument)
	if doc == placeholderDocument {
		doc = ""
	}

	s.saveSellerCustomer(ctx, *o.UserID, name, doc, o)
	if doc != "" {
		s.savePartner(ctx, name, doc, o)
	}
}

func (s *partnerService) saveSellerCustomer(ctx context.Context, sellerID uuid.UUID, name, doc string, o *model.Order) {
	existing, err := s.repo.FindSellerCustomer(ctx, sellerID, doc, name)
	switch {
	case err == nil:
		changed := fillEmpty(&existing.Document, doc)
		changed = fillEmpty(&existing.Phone, o.CustomerPhone) || changed
		changed = fillEmpty(&existing.Email, o.CustomerEmail) || changed
		changed = fillEmpty(&existing.Address, o.ShippingAddress) || changed
		if !changed {
			return
		}
		if err := s.repo.UpdateSellerCustomer(ctx, existing); err != nil {
			log.Warn().Err(err).Str("seller_id", sellerID.String()).Msg("failed to update seller customer")
		}
	case repository.IsNotFound(err):
		// A bare name is not worth keeping.
		if doc == "" && strings.TrimSpace(o.CustomerPhone) == "" && strings.TrimSpace(o.CustomerEmail) == "" {
			return
		}
		c := &model.SellerCustomer{
			SellerID: sellerID,
			Name:     name,
			Document: doc,
			Phone:    o.CustomerPhone,
			Email:    o.CustomerEmail,
			Address:  o.ShippingAddress,
		}
		if err := s.repo.CreateSellerCustomer(ctx, c); err != nil {
			log.Warn().Err(err).Str("seller_id", sellerID.String()).Msg("failed to create seller customer")
		}
	default:
		log.Warn().Err(err).Str("seller_id", sellerID.String()).Msg("failed to look up seller customer")
	}
}

func (s *partnerService) savePartner(ctx context.Context, name, doc string, o *model.Order) {
	existing, err := s.repo.FindByRUC(ctx, doc, model.PartnerCustomer)
	switch {
	case err == nil:
		changed := fillEmpty(&existing.Phone, o.CustomerPhone)
		changed = fillEmpty(&existing.Email, o.CustomerEmail) || changed
		changed = fillEmpty(&existing.Address, o.ShippingAddress) || changed
		if !changed {
			return
		}
		if err := s.repo.Update(ctx, existing); err != nil {
			log.Warn().Err(err).Str("ruc", doc).Msg("failed to update business partner from order")
		}
	case repository.IsNotFound(err):
		p := &model.BusinessPartner{
			Name:     name,
			Type:     model.PartnerCustomer,
			RUC:      doc,
			Phone:    o.CustomerPhone,
			Email:    o.CustomerEmail,
			Address:  o.ShippingAddress,
			IsActive: true,
			Notes:    "Auto-creado desde venta #" + o.OrderNumber,
		}
		if err := s.repo.Create(ctx, p); err != nil {
			log.Warn().Err(err).Str("ruc", doc).Msg("failed to create business partner from order")
			return
		}
		log.Info().Str("ruc", doc).Str("order_number", o.OrderNumber).Msg("customer saved as business partner")
	default:
		log.Warn().Err(err).Str("ruc", doc).Msg("failed to look up business partner")
	}
}

func (s *partnerService) ListSellerCustomers(ctx context.Context, sellerID uuid.UUID) ([]dto.SellerCustomerResponse, error) {
	rows, err := s.repo.ListSellerCustomers(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SellerCustomerResponse, 0, len(rows))
	for _, c := range rows {
		out = append(out, dto.SellerCustomerResponse{
			ID:       c.ID.String(),
			SellerID: c.SellerID.String(),
			Name:     c.Name,
			Document: c.Document,
			Phone:    c.Phone,
			Email:    c.Email,
			Address:  c.Address,
		})
	}
	return out, nil
}

// fillEmpty sets *dst to v only when *dst is empty and v is not.
func fillEmpty(dst *string, v string) bool {
	if *dst != "" || strings.TrimSpace(v) == "" {
		return false
	}
	*dst = v
	return true
}
