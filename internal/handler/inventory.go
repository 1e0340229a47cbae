package handler

import (
	"net/http"

	"perfumeria/internal/apierror"
	"perfumeria/internal/dto"
	"perfumeria/internal/service"

	"github.com/gin-gonic/gin"
)

type InventoryHandler struct{ svc service.StockService }

func NewInventoryHandler(svc service.StockService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

// RegisterMovement godoc
// @Summary Ingreso o retiro manual de stock
// @Tags inventory
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Usuario"
// @Param body body dto.InventoryMovementRequest true "Movimiento"
// @Success 201 {object} dto.StockMovementResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /inventory-movements [post]
func (h *InventoryHandler) RegisterMovement(c *gin.Context) {
	var req dto.InventoryMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RegisterMovement(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListMovements godoc
// @Summary Historial de movimientos de stock
// @Tags inventory
// @Produce json
// @Param product_id query string false "Producto"
// @Param type query string false "Tipo de movimiento"
// @Param page query int false "Pagina" default(1)
// @Param limit query int false "Items por pagina" default(50)
// @Success 200 {object} dto.StockMovementListResponse
// @Router /inventory-movements [get]
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	var filter dto.StockMovementFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parametros de consulta invalidos"))
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct godoc
// @Summary Stock y precio actual de un producto
// @Tags inventory
// @Produce json
// @Param id path string true "ID del producto"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /products/{id} [get]
func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
