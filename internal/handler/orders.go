package handler

import (
	"net/http"

	"perfumeria/internal/apierror"
	"perfumeria/internal/dto"
	"perfumeria/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

// Create godoc
// @Summary Crea un pedido y reserva el stock de cada item
// @Tags orders
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Usuario que registra el pedido"
// @Param body body dto.CreateOrderRequest true "Pedido"
// @Success 201 {object} dto.OrderResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /orders [post]
func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary Lista pedidos con filtros y paginacion
// @Tags orders
// @Produce json
// @Param source query string false "web | seller"
// @Param status query string false "Estado del pedido"
// @Param payment_status query string false "Estado del pago"
// @Param customer_email query string false "Email del cliente"
// @Param requires_confirmation query bool false "Solo pedidos pendientes de confirmacion"
// @Param page query int false "Pagina" default(1)
// @Param per_page query int false "Items por pagina" default(20)
// @Success 200 {object} dto.OrderListResponse
// @Router /orders [get]
func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros de consulta invalidos"))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary Obtiene un pedido
// @Tags orders
// @Produce json
// @Param id path string true "ID del pedido"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Router /orders/{id} [get]
func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Update godoc
// @Summary Actualiza estado, pago, tracking o costo de envio
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID del pedido"
// @Param body body dto.UpdateOrderRequest true "Cambios"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /orders/{id} [put]
func (h *OrdersHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmPayment godoc
// @Summary Confirma el pago de un pedido yape o transferencia
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID del pedido"
// @Param body body dto.ConfirmPaymentRequest false "Transaccion"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Router /orders/{id}/confirm-payment [post]
func (h *OrdersHandler) ConfirmPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ConfirmPaymentRequest
	if !bindOptional(c, &req) {
		return
	}
	resp, err := h.svc.ConfirmPayment(c.Request.Context(), id, req.TransactionID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary Cancela un pedido y devuelve el stock
// @Tags orders
// @Accept json
// @Produce json
// @Param id path string true "ID del pedido"
// @Param body body dto.CancelOrderRequest false "Motivo"
// @Success 200 {object} dto.OrderResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /orders/{id} [delete]
func (h *OrdersHandler) Cancel(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelOrderRequest
	if !bindOptional(c, &req) {
		return
	}
	resp, err := h.svc.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
