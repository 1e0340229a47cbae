package handler

import (
	"net/http"

	"perfumeria/internal/service"

	"github.com/gin-gonic/gin"
)

type DocumentsHandler struct{ svc service.DocumentService }

func NewDocumentsHandler(svc service.DocumentService) *DocumentsHandler {
	return &DocumentsHandler{svc: svc}
}

// LookupDNI godoc
// @Summary Consulta nombres por DNI
// @Tags documents
// @Produce json
// @Param dni path string true "DNI de 8 digitos"
// @Success 200 {object} dto.DNIResponse
// @Failure 404 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError
// @Router /documents/dni/{dni} [get]
func (h *DocumentsHandler) LookupDNI(c *gin.Context) {
	resp, err := h.svc.LookupDNI(c.Request.Context(), c.Param("dni"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LookupRUC godoc
// @Summary Consulta razon social por RUC
// @Tags documents
// @Produce json
// @Param ruc path string true "RUC de 11 digitos"
// @Success 200 {object} dto.RUCResponse
// @Failure 404 {object} apierror.APIError
// @Failure 502 {object} apierror.APIError
// @Router /documents/ruc/{ruc} [get]
func (h *DocumentsHandler) LookupRUC(c *gin.Context) {
	resp, err := h.svc.LookupRUC(c.Request.Context(), c.Param("ruc"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
