package handler

import (
	"net/http"

	"perfumeria/internal/dto"
	"perfumeria/internal/service"

	"github.com/gin-gonic/gin"
)

type CashHandler struct{ svc service.CashService }

func NewCashHandler(svc service.CashService) *CashHandler { return &CashHandler{svc: svc} }

// CreateRegister godoc
// @Summary Crea una caja registradora
// @Tags cash
// @Accept json
// @Produce json
// @Param body body dto.CreateRegisterRequest true "Caja"
// @Success 201 {object} dto.RegisterResponse
// @Failure 422 {object} apierror.ValidationError
// @Router /cash-registers [post]
func (h *CashHandler) CreateRegister(c *gin.Context) {
	var req dto.CreateRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateRegister(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListRegisters godoc
// @Summary Lista las cajas registradoras
// @Tags cash
// @Produce json
// @Success 200 {array} dto.RegisterResponse
// @Router /cash-registers [get]
func (h *CashHandler) ListRegisters(c *gin.Context) {
	resp, err := h.svc.ListRegisters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetRegister godoc
// @Summary Obtiene una caja con su sesion abierta
// @Tags cash
// @Produce json
// @Param id path string true "ID de caja"
// @Success 200 {object} dto.RegisterResponse
// @Failure 404 {object} apierror.APIError
// @Router /cash-registers/{id} [get]
func (h *CashHandler) GetRegister(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetRegister(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateRegister godoc
// @Summary Actualiza una caja registradora
// @Tags cash
// @Accept json
// @Produce json
// @Param id path string true "ID de caja"
// @Param body body dto.UpdateRegisterRequest true "Cambios"
// @Success 200 {object} dto.RegisterResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /cash-registers/{id} [put]
func (h *CashHandler) UpdateRegister(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateRegister(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DeactivateRegister godoc
// @Summary Desactiva una caja sin sesion abierta
// @Tags cash
// @Param id path string true "ID de caja"
// @Success 204
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /cash-registers/{id} [delete]
func (h *CashHandler) DeactivateRegister(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeactivateRegister(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListSessions godoc
// @Summary Historial de sesiones de una caja
// @Tags cash
// @Produce json
// @Param id path string true "ID de caja"
// @Success 200 {array} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /cash-registers/{id}/sessions [get]
func (h *CashHandler) ListSessions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListSessions(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SellerRegister godoc
// @Summary Caja asignada al vendedor
// @Tags cash
// @Produce json
// @Param X-User-ID header string true "Vendedor"
// @Success 200 {object} dto.RegisterResponse
// @Failure 404 {object} apierror.APIError
// @Router /cash-registers/mine [get]
func (h *CashHandler) SellerRegister(c *gin.Context) {
	seller, ok := requireActor(c)
	if !ok {
		return
	}
	resp, err := h.svc.SellerRegister(c.Request.Context(), seller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SellerSessions godoc
// @Summary Sesiones abiertas por el vendedor
// @Tags cash
// @Produce json
// @Param X-User-ID header string true "Vendedor"
// @Success 200 {array} dto.SessionResponse
// @Router /cash-registers/sessions/mine [get]
func (h *CashHandler) SellerSessions(c *gin.Context) {
	seller, ok := requireActor(c)
	if !ok {
		return
	}
	resp, err := h.svc.ListSellerSessions(c.Request.Context(), seller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CurrentSession godoc
// @Summary Obtiene la sesion abierta de una caja
// @Tags cash
// @Produce json
// @Param id path string true "ID de caja"
// @Success 200 {object} dto.SessionResponse
// @Failure 404 {object} apierror.APIError
// @Router /cash-registers/{id}/current-session [get]
func (h *CashHandler) CurrentSession(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.CurrentSession(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// OpenSession godoc
// @Summary Abre una sesion de caja
// @Tags cash
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Cajero"
// @Param body body dto.OpenSessionRequest true "Apertura"
// @Success 201 {object} dto.SessionResponse
// @Failure 400 {object} apierror.APIError
// @Failure 404 {object} apierror.APIError
// @Router /cash-registers/sessions/open [post]
func (h *CashHandler) OpenSession(c *gin.Context) {
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.OpenSession(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CloseSession godoc
// @Summary Cierra la sesion con el monto contado y calcula la diferencia
// @Tags cash
// @Accept json
// @Produce json
// @Param id path string true "ID de sesion"
// @Param body body dto.CloseSessionRequest true "Cierre"
// @Success 200 {object} dto.SessionResponse
// @Failure 400 {object} apierror.APIError
// @Router /cash-registers/sessions/{id}/close [put]
func (h *CashHandler) CloseSession(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CloseSession(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AppendNotes godoc
// @Summary Agrega notas a una sesion, abierta o cerrada
// @Tags cash
// @Accept json
// @Produce json
// @Param id path string true "ID de sesion"
// @Param body body dto.AppendNotesRequest true "Notas"
// @Success 200 {object} dto.SessionResponse
// @Router /cash-registers/sessions/{id}/notes [patch]
func (h *CashHandler) AppendNotes(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.AppendNotesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AppendNotes(c.Request.Context(), id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListMovements godoc
// @Summary Lista los movimientos de una sesion
// @Tags cash
// @Produce json
// @Param id path string true "ID de sesion"
// @Success 200 {array} dto.MovementResponse
// @Router /cash-registers/sessions/{id}/movements [get]
func (h *CashHandler) ListMovements(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListMovements(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddMovement godoc
// @Summary Registra un movimiento en una sesion abierta
// @Tags cash
// @Accept json
// @Produce json
// @Param X-User-ID header string false "Usuario"
// @Param body body dto.AddMovementRequest true "Movimiento"
// @Success 201 {object} dto.MovementResponse
// @Failure 400 {object} apierror.APIError
// @Failure 422 {object} apierror.ValidationError
// @Router /cash-registers/movements [post]
func (h *CashHandler) AddMovement(c *gin.Context) {
	var req dto.AddMovementRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddMovement(c.Request.Context(), actorID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
