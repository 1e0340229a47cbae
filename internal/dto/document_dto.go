package dto

import "encoding/json"

type DNIResponse struct {
	DNI            string          `json:"dni"`
	Nombres        string          `json:"nombres"`
	Apellidos      string          `json:"apellidos"`
	NombreCompleto string          `json:"nombreCompleto"`
	Raw            json.RawMessage `json:"raw,omitempty"`
}

type RUCResponse struct {
	RUC  string          `json:"ruc"`
	Data json.RawMessage `json:"data"`
}
