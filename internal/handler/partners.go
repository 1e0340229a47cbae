package handler

import (
	"net/http"

	"perfumeria/internal/service"

	"github.com/gin-gonic/gin"
)

type PartnersHandler struct{ svc service.PartnerService }

func NewPartnersHandler(svc service.PartnerService) *PartnersHandler {
	return &PartnersHandler{svc: svc}
}

// ListSellerCustomers godoc
// @Summary Lista los clientes guardados por el vendedor
// @Tags partners
// @Produce json
// @Param X-User-ID header string true "Vendedor"
// @Success 200 {array} dto.SellerCustomerResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /seller-customers [get]
func (h *PartnersHandler) ListSellerCustomers(c *gin.Context) {
	seller, ok := requireActor(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListSellerCustomers(c.Request.Context(), seller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
