package worker

// notifier.go
// Turns domain events into admin-panel Notification rows. Actual delivery
// (mail, push) is out of scope; the panel polls the notifications table.

import (
	"context"
	"fmt"

	"perfumeria/internal/event"
	"perfumeria/internal/model"
	"perfumeria/internal/repository"

	"github.com/rs/zerolog/log"
)

var paymentLabels = map[string]string{
	model.PaymentCard:     "Tarjeta",
	model.PaymentCash:     "Efectivo",
	model.PaymentYape:     "Yape",
	model.PaymentTransfer: "Transferencia",
	model.PaymentPaypal:   "PayPal",
}

var statusTitles = map[string]string{
	model.OrderStatusProcessing: "Pedido en preparación",
	model.OrderStatusShipped:    "Pedido enviado",
	model.OrderStatusDelivered:  "Pedido entregado",
	model.OrderStatusCancelled:  "Pedido cancelado",
}

type Notifier struct {
	repo repository.NotificationRepository
}

func NewNotifier(repo repository.NotificationRepository) *Notifier {
	return &Notifier{repo: repo}
}

// Handle persists at most one notification per event. Events that are not
// worth an admin's attention are ignored.
func (n *Notifier) Handle(ctx context.Context, ev event.Event) error {
	note := build(ev)
	if note == nil {
		return nil
	}
	if err := n.repo.Create(ctx, note); err != nil {
		return fmt.Errorf("notifier: %s: %w", ev.Name(), err)
	}
	log.Debug().Str("event", ev.Name()).Str("type", note.Type).Msg("notification stored")
	return nil
}

func build(ev event.Event) *model.Notification {
	switch e := ev.(type) {
	case event.OrderCreated:
		// Only payments an admin has to verify by hand.
		if e.PaymentMethod != model.PaymentYape && e.PaymentMethod != model.PaymentTransfer {
			return nil
		}
		return &model.Notification{
			Type:       "order",
			Title:      "Nueva orden pendiente de pago",
			Message:    fmt.Sprintf("Pedido #%s por S/ %s mediante %s", e.OrderNumber, e.Total.StringFixed(2), label(e.PaymentMethod)),
			Priority:   model.PriorityHigh,
			RelatedTab: "pedidos",
			OrderID:    &e.OrderID,
			UserID:     e.UserID,
			Data: map[string]any{
				"order_number":          e.OrderNumber,
				"customer_name":         e.CustomerName,
				"amount":                e.Total.StringFixed(2),
				"payment_method":        e.PaymentMethod,
				"requires_confirmation": e.RequiresAdminConfirmation,
			},
		}

	case event.PaymentConfirmed:
		return &model.Notification{
			Type:       "payment_confirmed",
			Title:      "Pago confirmado",
			Message:    fmt.Sprintf("Pago confirmado para pedido #%s - S/ %s", e.OrderNumber, e.Total.StringFixed(2)),
			Priority:   model.PriorityMedium,
			RelatedTab: "pedidos",
			OrderID:    &e.OrderID,
			UserID:     e.UserID,
			Data: map[string]any{
				"order_number":   e.OrderNumber,
				"total":          e.Total.StringFixed(2),
				"transaction_id": e.TransactionID,
			},
		}

	case event.OrderStatusChanged:
		title, ok := statusTitles[e.To]
		if !ok {
			return nil
		}
		return &model.Notification{
			Type:       "order_status_change",
			Title:      title,
			Message:    fmt.Sprintf("Pedido #%s - Estado: %s", e.OrderNumber, e.To),
			Priority:   model.PriorityMedium,
			RelatedTab: "pedidos",
			OrderID:    &e.OrderID,
			UserID:     e.UserID,
			Data: map[string]any{
				"order_number": e.OrderNumber,
				"old_status":   e.From,
				"new_status":   e.To,
			},
		}

	case event.CashSessionClosed:
		if e.Difference.IsZero() {
			return nil
		}
		return &model.Notification{
			Type:       "cash_difference",
			Title:      "Descuadre de caja",
			Message:    fmt.Sprintf("Cierre de caja con diferencia de S/ %s", e.Difference.StringFixed(2)),
			Priority:   model.PriorityHigh,
			RelatedTab: "caja",
			Data: map[string]any{
				"session_id": e.SessionID.String(),
				"expected":   e.ExpectedAmount.StringFixed(2),
				"closing":    e.ClosingAmount.StringFixed(2),
				"difference": e.Difference.StringFixed(2),
			},
		}
	}
	return nil
}

func label(method string) string {
	if l, ok := paymentLabels[method]; ok {
		return l
	}
	return method
}
