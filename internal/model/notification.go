package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Notification is an admin-panel message produced by event listeners.
// Delivery (mail, push) is not handled here.
type Notification struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Type       string         `gorm:"type:varchar(40);not null" json:"type"`
	Title      string         `gorm:"not null" json:"title"`
	Message    string         `gorm:"not null" json:"message"`
	Priority   string         `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Read       bool           `gorm:"not null;default:false" json:"read"`
	RelatedTab string         `json:"related_tab,omitempty"`
	OrderID    *uuid.UUID     `gorm:"type:uuid;index" json:"order_id,omitempty"`
	UserID     *uuid.UUID     `gorm:"type:uuid" json:"user_id,omitempty"`
	Data       map[string]any `gorm:"type:jsonb;serializer:json" json:"data,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
