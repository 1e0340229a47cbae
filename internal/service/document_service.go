package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"perfumeria/internal/apierror"
	"perfumeria/internal/dto"

	"github.com/rs/zerolog/log"
)

var (
	dniPattern = regexp.MustCompile(`^\d{8}$`)
	rucPattern = regexp.MustCompile(`^\d{11}$`)
)

// DocumentProvider is the upstream RENIEC/SUNAT lookup (infra.DocumentClient).
type DocumentProvider interface {
	ConsultDNI(ctx context.Context, dni string) (json.RawMessage, error)
	ConsultRUC(ctx context.Context, ruc string) (json.RawMessage, error)
}

type DocumentService interface {
	LookupDNI(ctx context.Context, dni string) (*dto.DNIResponse, error)
	LookupRUC(ctx context.Context, ruc string) (*dto.RUCResponse, error)
}

type documentService struct {
	provider DocumentProvider
	notFound error
}

// NewDocumentService wires the provider. notFound is the provider's sentinel
// for unknown documents; it is reported as 404 instead of an upstream failure.
func NewDocumentService(provider DocumentProvider, notFound error) DocumentService {
	return &documentService{provider: provider, notFound: notFound}
}

func (s *documentService) LookupDNI(ctx context.Context, dni string) (*dto.DNIResponse, error) {
	if !dniPattern.MatchString(dni) {
		return nil, apierror.Validation("DNI inválido. Debe tener 8 dígitos.", map[string]string{"dni": "len=8"})
	}
	raw, err := s.provider.ConsultDNI(ctx, dni)
	if err != nil {
		return nil, s.upstreamError(err, "dni", "No se pudo obtener información del DNI")
	}

	nombres, apellidos := extractNames(raw)
	return &dto.DNIResponse{
		DNI:            dni,
		Nombres:        nombres,
		Apellidos:      apellidos,
		NombreCompleto: strings.TrimSpace(nombres + " " + apellidos),
		Raw:            raw,
	}, nil
}

func (s *documentService) LookupRUC(ctx context.Context, ruc string) (*dto.RUCResponse, error) {
	if !rucPattern.MatchString(ruc) {
		return nil, apierror.Validation("RUC inválido. Debe tener 11 dígitos.", map[string]string{"ruc": "len=11"})
	}
	raw, err := s.provider.ConsultRUC(ctx, ruc)
	if err != nil {
		return nil, s.upstreamError(err, "ruc", "No se pudo obtener información del RUC")
	}
	return &dto.RUCResponse{RUC: ruc, Data: raw}, nil
}

func (s *documentService) upstreamError(err error, kind, detail string) error {
	if s.notFound != nil && errors.Is(err, s.notFound) {
		return apierror.E(apierror.ErrNotFound, strings.ToUpper(kind)+" no encontrado")
	}
	log.Error().Err(err).Str("document", kind).Msg("document lookup failed")
	return apierror.E(apierror.ErrUpstream, detail)
}

// extractNames reads nombres/apellidos (or nombre/apellido) from the "data"
// object, falling back to the top level.
func extractNames(raw json.RawMessage) (string, string) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return "", ""
	}
	fields := envelope
	if inner, ok := envelope["data"]; ok {
		var m map[string]json.RawMessage
		if json.Unmarshal(inner, &m) == nil {
			fields = m
		}
	}
	return firstString(fields, "nombres", "nombre"), firstString(fields, "apellidos", "apellido")
}

func firstString(m map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		var v string
		if raw, ok := m[k]; ok && json.Unmarshal(raw, &v) == nil && v != "" {
			return v
		}
	}
	return ""
}
