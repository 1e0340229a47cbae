package service

import (
	"context"
	"fmt"
	"time"

	"perfumeria/internal/apierror"
	"perfumeria/internal/dto"
	"perfumeria/internal/event"
	"perfumeria/internal/model"
	"perfumeria/internal/repository"
	"perfumeria/internal/telemetry"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CashService owns registers, sessions and the append-only movement ledger.
type CashService interface {
	CreateRegister(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error)
	ListRegisters(ctx context.Context) ([]dto.RegisterResponse, error)
	GetRegister(ctx context.Context, id uuid.UUID) (*dto.RegisterResponse, error)
	UpdateRegister(ctx context.Context, id uuid.UUID, req dto.UpdateRegisterRequest) (*dto.RegisterResponse, error)
	// DeactivateRegister retires a register. Registers with an open session
	// are refused. History stays readable.
	DeactivateRegister(ctx context.Context, id uuid.UUID) error
	// SellerRegister returns the active register assigned to userID.
	SellerRegister(ctx context.Context, userID uuid.UUID) (*dto.RegisterResponse, error)
	ListSessions(ctx context.Context, registerID uuid.UUID) ([]dto.SessionResponse, error)
	ListSellerSessions(ctx context.Context, userID uuid.UUID) ([]dto.SessionResponse, error)

	OpenSession(ctx context.Context, userID *uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	AddMovement(ctx context.Context, userID *uuid.UUID, req dto.AddMovementRequest) (*dto.MovementResponse, error)
	CloseSession(ctx context.Context, id uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	AppendNotes(ctx context.Context, id uuid.UUID, notes string) (*dto.SessionResponse, error)
	CurrentSession(ctx context.Context, registerID uuid.UUID) (*dto.SessionResponse, error)
	ListMovements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error)

	// AppendMovementTx records m on the session inside the caller's
	// transaction and moves the expected amount by its signed value.
	AppendMovementTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, m *model.CashMovement) error
}

type cashService struct {
	tx     repository.Transactor
	repo   repository.CashRepository
	events event.Publisher
	now    func() time.Time
}

func NewCashService(tx repository.Transactor, repo repository.CashRepository, events event.Publisher) CashService {
	return &cashService{tx: tx, repo: repo, events: events, now: time.Now}
}

func (s *cashService) CreateRegister(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error) {
	responsible, err := parseOptionalUUID(req.ResponsibleUserID)
	if err != nil {
		return nil, apierror.Validation("responsible_user_id inválido", map[string]string{"responsible_user_id": "uuid"})
	}
	reg := &model.CashRegister{
		Name:              req.Name,
		Code:              orDefault(req.Code, fmt.Sprintf("CAJ-%d", s.now().Unix())),
		Location:          req.Location,
		ResponsibleUserID: responsible,
		IsActive:          true,
		IsCollectionBox:   req.IsCollectionBox,
		CurrentBalance:    decimal.Zero,
	}
	if err := s.repo.CreateRegister(ctx, reg); err != nil {
		if repository.IsDuplicateKey(err) {
			return nil, apierror.Validation("Ya existe una caja con ese código", map[string]string{"code": "unique"})
		}
		return nil, err
	}
	return registerToResponse(reg, nil), nil
}

func (s *cashService) ListRegisters(ctx context.Context) ([]dto.RegisterResponse, error) {
	regs, err := s.repo.ListRegisters(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RegisterResponse, 0, len(regs))
	for i := range regs {
		out = append(out, *registerToResponse(&regs[i], nil))
	}
	return out, nil
}

func (s *cashService) GetRegister(ctx context.Context, id uuid.UUID) (*dto.RegisterResponse, error) {
	reg, err := s.repo.FindRegisterByID(ctx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.E(apierror.ErrNotFound, "Caja no encontrada")
	}
	if err != nil {
		return nil, err
	}
	sess, err := s.repo.FindOpenSession(ctx, id)
	switch {
	case repository.IsNotFound(err):
		sess = nil
	case err != nil:
		return nil, err
	}
	return registerToResponse(reg, sess), nil
}

func (s *cashService) UpdateRegister(ctx context.Context, id uuid.UUID, req dto.UpdateRegisterRequest) (*dto.RegisterResponse, error) {
	var responsible *uuid.UUID
	if req.ResponsibleUserID != nil && *req.ResponsibleUserID != "" {
		uid, err := uuid.Parse(*req.ResponsibleUserID)
		if err != nil {
			return nil, apierror.Validation("responsible_user_id inválido", map[string]string{"responsible_user_id": "uuid"})
		}
		responsible = &uid
	}

	var reg *model.CashRegister
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		reg, err = s.lockRegister(tx, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			reg.Name = *req.Name
		}
		if req.Code != nil {
			reg.Code = *req.Code
		}
		if req.Location != nil {
			reg.Location = *req.Location
		}
		if req.ResponsibleUserID != nil {
			reg.ResponsibleUserID = responsible
		}
		if req.IsActive != nil {
			reg.IsActive = *req.IsActive
		}
		if req.IsCollectionBox != nil {
			reg.IsCollectionBox = *req.IsCollectionBox
		}
		if !reg.IsActive {
			if err := s.refuseOpenSession(tx, id); err != nil {
				return err
			}
		}
		return s.repo.UpdateRegisterTx(tx, reg)
	})
	if repository.IsDuplicateKey(err) {
		return nil, apierror.Validation("Ya existe una caja con ese código", map[string]string{"code": "unique"})
	}
	if err != nil {
		return nil, err
	}
	return registerToResponse(reg, nil), nil
}

func (s *cashService) DeactivateRegister(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		reg, err := s.lockRegister(tx, id)
		if err != nil {
			return err
		}
		if err := s.refuseOpenSession(tx, id); err != nil {
			return err
		}
		reg.IsActive = false
		return s.repo.UpdateRegisterTx(tx, reg)
	})
	if err != nil {
		return err
	}
	log.Info().Str("cash_register_id", id.String()).Msg("cash register deactivated")
	return nil
}

func (s *cashService) lockRegister(tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	reg, err := s.repo.FindRegisterForUpdateTx(tx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.E(apierror.ErrNotFound, "Caja no encontrada")
	}
	return reg, err
}

func (s *cashService) refuseOpenSession(tx *gorm.DB, registerID uuid.UUID) error {
	_, err := s.repo.FindOpenSessionTx(tx, registerID)
	if err == nil {
		return apierror.E(apierror.ErrSessionAlreadyOpen, "No se puede desactivar una caja con sesión abierta")
	}
	if repository.IsNotFound(err) {
		return nil
	}
	return err
}

func (s *cashService) SellerRegister(ctx context.Context, userID uuid.UUID) (*dto.RegisterResponse, error) {
	reg, err := s.repo.FindActiveRegisterByResponsible(ctx, userID)
	if repository.IsNotFound(err) {
		return nil, apierror.E(apierror.ErrNotFound, "No tienes una caja asignada")
	}
	if err != nil {
		return nil, err
	}
	return s.GetRegister(ctx, reg.ID)
}

// ── Sessions ─────────────────────────────────────────────────────────────────

func (s *cashService) ListSessions(ctx context.Context, registerID uuid.UUID) ([]dto.SessionResponse, error) {
	if _, err := s.repo.FindRegisterByID(ctx, registerID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.E(apierror.ErrNotFound, "Caja no encontrada")
		}
		return nil, err
	}
	sessions, err := s.repo.ListSessions(ctx, registerID)
	if err != nil {
		return nil, err
	}
	return sessionsToResponse(sessions), nil
}

func (s *cashService) ListSellerSessions(ctx context.Context, userID uuid.UUID) ([]dto.SessionResponse, error) {
	sessions, err := s.repo.ListSessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sessionsToResponse(sessions), nil
}

func (s *cashService) OpenSession(ctx context.Context, userID *uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	registerID, err := uuid.Parse(req.CashRegisterID)
	if err != nil {
		return nil, apierror.Validation("cash_register_id inválido", map[string]string{"cash_register_id": "uuid"})
	}
	if req.OpeningAmount.IsNegative() {
		return nil, apierror.Validation("El monto de apertura no puede ser negativo", map[string]string{"opening_amount": "min"})
	}

	var sess *model.CashSession
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		// The register lock serialises concurrent opens; the partial unique
		// index catches anything that slips through.
		reg, err := s.repo.FindRegisterForUpdateTx(tx, registerID)
		if repository.IsNotFound(err) {
			return apierror.E(apierror.ErrNotFound, "Caja no encontrada")
		}
		if err != nil {
			return err
		}
		if !reg.IsActive {
			return apierror.Validation("La caja está inactiva", map[string]string{"cash_register_id": "inactive"})
		}

		_, err = s.repo.FindOpenSessionTx(tx, registerID)
		if err == nil {
			return apierror.E(apierror.ErrSessionAlreadyOpen, "Ya existe una sesión abierta para esta caja")
		}
		if !repository.IsNotFound(err) {
			return err
		}

		sess = &model.CashSession{
			ID:             uuid.New(),
			CashRegisterID: registerID,
			UserID:         userID,
			OpenedAt:       s.now(),
			OpeningAmount:  req.OpeningAmount,
			ExpectedAmount: req.OpeningAmount,
			Status:         model.SessionOpen,
			Notes:          req.Notes,
		}
		if err := s.repo.CreateSessionTx(tx, sess); err != nil {
			if repository.IsDuplicateKey(err) {
				return apierror.E(apierror.ErrSessionAlreadyOpen, "Ya existe una sesión abierta para esta caja")
			}
			return err
		}
		return s.repo.CreateMovementTx(tx, &model.CashMovement{
			CashSessionID: sess.ID,
			Type:          model.CashMoveOpening,
			Amount:        req.OpeningAmount,
			Description:   "Apertura de caja",
			UserID:        userID,
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("session_id", sess.ID.String()).Str("cash_register_id", registerID.String()).Msg("cash session opened")
	return sessionToResponse(sess), nil
}

func (s *cashService) AddMovement(ctx context.Context, userID *uuid.UUID, req dto.AddMovementRequest) (*dto.MovementResponse, error) {
	sessionID, err := uuid.Parse(req.CashSessionID)
	if err != nil {
		return nil, apierror.Validation("cash_session_id inválido", map[string]string{"cash_session_id": "uuid"})
	}
	refID, err := parseOptionalUUID(req.ReferenceID)
	if err != nil {
		return nil, apierror.Validation("reference_id inválido", map[string]string{"reference_id": "uuid"})
	}
	sellerID, err := parseOptionalUUID(req.SellerID)
	if err != nil {
		return nil, apierror.Validation("seller_id inválido", map[string]string{"seller_id": "uuid"})
	}

	m := &model.CashMovement{
		Type:             req.Type,
		Amount:           req.Amount,
		Description:      req.Description,
		ReferenceID:      refID,
		ReferenceType:    req.ReferenceType,
		UserID:           userID,
		SellerID:         sellerID,
		CustomerName:     req.CustomerName,
		CustomerDocument: req.CustomerDocument,
		PaymentMethod:    req.PaymentMethod,
		DocumentType:     req.DocumentType,
	}
	err = s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		return s.AppendMovementTx(ctx, tx, sessionID, m)
	})
	if err != nil {
		return nil, err
	}
	return movementToResponse(m), nil
}

func (s *cashService) AppendMovementTx(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID, m *model.CashMovement) error {
	if !m.Amount.IsPositive() {
		return apierror.Validation("El monto debe ser mayor a cero", map[string]string{"amount": "gt"})
	}
	sess, err := s.repo.FindSessionForUpdateTx(tx, sessionID)
	if repository.IsNotFound(err) {
		return apierror.E(apierror.ErrNotFound, "Sesión de caja no encontrada")
	}
	if err != nil {
		return err
	}
	if !sess.IsOpen() {
		return apierror.E(apierror.ErrSessionClosed, "La sesión de caja está cerrada")
	}

	m.CashSessionID = sess.ID
	if err := s.repo.CreateMovementTx(tx, m); err != nil {
		return err
	}
	sess.ExpectedAmount = sess.ExpectedAmount.Add(m.SignedAmount())
	if err := s.repo.UpdateSessionTx(tx, sess); err != nil {
		return err
	}
	telemetry.CashMovement(ctx, m.Type)
	return nil
}

func (s *cashService) CloseSession(ctx context.Context, id uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	if req.ClosingAmount.IsNegative() {
		return nil, apierror.Validation("El monto de cierre no puede ser negativo", map[string]string{"closing_amount": "min"})
	}

	var sess *model.CashSession
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		sess, err = s.lockSession(tx, id)
		if err != nil {
			return err
		}
		if !sess.IsOpen() {
			return apierror.E(apierror.ErrSessionAlreadyClosed, "La sesión ya está cerrada")
		}

		closing := req.ClosingAmount
		diff := closing.Sub(sess.ExpectedAmount)
		now := s.now()
		sess.ClosingAmount = &closing
		sess.Difference = &diff
		sess.ClosedAt = &now
		sess.Status = model.SessionClosed
		sess.Notes = appendNote(sess.Notes, req.Notes)
		if err := s.repo.UpdateSessionTx(tx, sess); err != nil {
			return err
		}
		return s.repo.UpdateRegisterBalanceTx(tx, sess.CashRegisterID, closing)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", sess.ID.String()).
		Str("expected", sess.ExpectedAmount.StringFixed(2)).
		Str("difference", sess.Difference.StringFixed(2)).
		Msg("cash session closed")
	s.events.Publish(ctx, event.CashSessionClosed{
		SessionID:      sess.ID,
		CashRegisterID: sess.CashRegisterID,
		ExpectedAmount: sess.ExpectedAmount,
		ClosingAmount:  *sess.ClosingAmount,
		Difference:     *sess.Difference,
		ClosedAt:       *sess.ClosedAt,
	})
	return sessionToResponse(sess), nil
}

func (s *cashService) AppendNotes(ctx context.Context, id uuid.UUID, notes string) (*dto.SessionResponse, error) {
	var sess *model.CashSession
	err := s.tx.WithinTx(ctx, func(tx *gorm.DB) error {
		var err error
		sess, err = s.lockSession(tx, id)
		if err != nil {
			return err
		}
		sess.Notes = appendNote(sess.Notes, notes)
		return s.repo.UpdateSessionTx(tx, sess)
	})
	if err != nil {
		return nil, err
	}
	return sessionToResponse(sess), nil
}

func (s *cashService) lockSession(tx *gorm.DB, id uuid.UUID) (*model.CashSession, error) {
	sess, err := s.repo.FindSessionForUpdateTx(tx, id)
	if repository.IsNotFound(err) {
		return nil, apierror.E(apierror.ErrNotFound, "Sesión de caja no encontrada")
	}
	return sess, err
}

func (s *cashService) CurrentSession(ctx context.Context, registerID uuid.UUID) (*dto.SessionResponse, error) {
	sess, err := s.repo.FindOpenSession(ctx, registerID)
	if repository.IsNotFound(err) {
		return nil, apierror.E(apierror.ErrNotFound, "No hay una sesión abierta para esta caja")
	}
	if err != nil {
		return nil, err
	}
	return sessionToResponse(sess), nil
}

func (s *cashService) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]dto.MovementResponse, error) {
	if _, err := s.repo.FindSessionByID(ctx, sessionID); err != nil {
		if repository.IsNotFound(err) {
			return nil, apierror.E(apierror.ErrNotFound, "Sesión de caja no encontrada")
		}
		return nil, err
	}
	movs, err := s.repo.ListMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(movs))
	for i := range movs {
		out = append(out, *movementToResponse(&movs[i]))
	}
	return out, nil
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func registerToResponse(r *model.CashRegister, open *model.CashSession) *dto.RegisterResponse {
	resp := &dto.RegisterResponse{
		ID:                r.ID.String(),
		Name:              r.Name,
		Code:              r.Code,
		Location:          r.Location,
		ResponsibleUserID: uuidString(r.ResponsibleUserID),
		IsActive:          r.IsActive,
		IsCollectionBox:   r.IsCollectionBox,
		CurrentBalance:    r.CurrentBalance,
	}
	if open != nil {
		resp.CurrentSession = sessionToResponse(open)
	}
	return resp
}

func sessionToResponse(s *model.CashSession) *dto.SessionResponse {
	return &dto.SessionResponse{
		ID:             s.ID.String(),
		CashRegisterID: s.CashRegisterID.String(),
		UserID:         uuidString(s.UserID),
		OpenedAt:       s.OpenedAt,
		ClosedAt:       s.ClosedAt,
		OpeningAmount:  s.OpeningAmount,
		ExpectedAmount: s.ExpectedAmount,
		ClosingAmount:  s.ClosingAmount,
		Difference:     s.Difference,
		Status:         s.Status,
		Notes:          s.Notes,
	}
}

func sessionsToResponse(sessions []model.CashSession) []dto.SessionResponse {
	out := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		out = append(out, *sessionToResponse(&sessions[i]))
	}
	return out
}

func movementToResponse(m *model.CashMovement) *dto.MovementResponse {
	return &dto.MovementResponse{
		ID:               m.ID.String(),
		CashSessionID:    m.CashSessionID.String(),
		Type:             m.Type,
		Amount:           m.Amount,
		Description:      m.Description,
		ReferenceID:      uuidString(m.ReferenceID),
		ReferenceType:    m.ReferenceType,
		UserID:           uuidString(m.UserID),
		SellerID:         uuidString(m.SellerID),
		CustomerName:     m.CustomerName,
		CustomerDocument: m.CustomerDocument,
		PaymentMethod:    m.PaymentMethod,
		DocumentType:     m.DocumentType,
		CreatedAt:        m.CreatedAt,
	}
}
