package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad", map[string]string{"x": "required"}), http.StatusUnprocessableEntity},
		{"not found", E(ErrNotFound, "Pedido no encontrado"), http.StatusNotFound},
		{"stock", E(ErrInsufficientStock, "Stock insuficiente"), http.StatusBadRequest},
		{"transition", E(ErrInvalidStateTransition, "no"), http.StatusBadRequest},
		{"session open", E(ErrSessionAlreadyOpen, "ya abierta"), http.StatusBadRequest},
		{"wrapped", fmt.Errorf("reserve: %w", E(ErrInsufficientStock, "x")), http.StatusBadRequest},
		{"upstream", E(ErrUpstream, "caido"), http.StatusBadGateway},
		{"internal", errors.New("pq: connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusFor(tc.err))
		})
	}
}

func TestSessionErrorsShareConflictKind(t *testing.T) {
	assert.ErrorIs(t, E(ErrSessionAlreadyOpen, "x"), ErrSessionConflict)
	assert.ErrorIs(t, E(ErrSessionClosed, "x"), ErrSessionConflict)
	assert.ErrorIs(t, E(ErrSessionAlreadyClosed, "x"), ErrSessionConflict)
	assert.NotErrorIs(t, E(ErrSessionClosed, "x"), ErrSessionAlreadyClosed)
}

func TestBodyHidesInternalErrors(t *testing.T) {
	body := Body(errors.New("pq: relation \"orders\" does not exist"), false)
	assert.Equal(t, "Error interno del servidor", body.(*APIError).Detail)

	body = Body(Validation("Error de validacion", map[string]string{"tracking_number": "required"}), false)
	ve, ok := body.(*ValidationError)
	assert.True(t, ok)
	assert.Equal(t, "required", ve.Fields["tracking_number"])
}
