package handler

import (
	"net/http"

	"perfumeria/internal/dto"
	"perfumeria/internal/service"

	"github.com/gin-gonic/gin"
)

// CommerceHandler serves the direct purchase and sale endpoints. Both move
// stock and optionally register a cash movement in the same transaction.
type CommerceHandler struct {
	purchases service.PurchaseService
	sales     service.SaleService
}

func NewCommerceHandler(purchases service.PurchaseService, sales service.SaleService) *CommerceHandler {
	return &CommerceHandler{purchases: purchases, sales: sales}
}

// RegisterPurchase godoc
// @Summary Registra una compra a proveedor e ingresa el stock
// @Tags purchases
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Usuario"
// @Param body body dto.RegisterPurchaseRequest true "Compra"
// @Success 201 {object} dto.PurchaseResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /purchases [post]
func (h *CommerceHandler) RegisterPurchase(c *gin.Context) {
	var req dto.RegisterPurchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.purchases.Register(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CancelPurchase godoc
// @Summary Anula una compra y retira el stock ingresado
// @Tags purchases
// @Produce json
// @Param id path string true "ID de compra"
// @Success 200 {object} dto.PurchaseResponse
// @Failure 400 {object} apierror.APIError
// @Router /purchases/{id} [delete]
func (h *CommerceHandler) CancelPurchase(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.purchases.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegisterSale godoc
// @Summary Registra una venta directa y descuenta el stock
// @Tags sales
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Vendedor"
// @Param body body dto.RegisterSaleRequest true "Venta"
// @Success 201 {object} dto.SaleResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /sales [post]
func (h *CommerceHandler) RegisterSale(c *gin.Context) {
	var req dto.RegisterSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sales.Register(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CancelSale godoc
// @Summary Anula una venta y devuelve el stock
// @Tags sales
// @Produce json
// @Param id path string true "ID de venta"
// @Success 200 {object} dto.SaleResponse
// @Failure 400 {object} apierror.APIError
// @Router /sales/{id} [delete]
func (h *CommerceHandler) CancelSale(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.sales.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
