// internal/models/payment.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Metadata keys recorded during gateway reconciliation.
const (
	PaymentMetaClientSecret     = "client_secret"
	PaymentMetaGatewayStatus    = "last_gateway_status"
	PaymentMetaLastCheckedAt    = "last_checked_at"
	PaymentMetaConfirmedAt      = "confirmed_at"
	PaymentMetaCompletedVia     = "completed_via"
	PaymentCompletedViaGateway  = "gateway"
	PaymentCompletedViaFinalize = "finalization"
)

type Payment struct {
	BaseModel
	ApplicationID     uuid.UUID     `json:"application_id" gorm:"type:uuid;not null;index"`
	OwnerID           uuid.UUID     `json:"owner_id" gorm:"type:uuid;not null;index"`
	Amount            float64       `json:"amount" gorm:"type:decimal(10,2);not null"`
	Currency          string        `json:"currency" gorm:"size:3;not null;default:'usd'"`
	PaymentMethod     string        `json:"payment_method" gorm:"size:50"`
	Status            PaymentStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	ExternalReference string        `json:"external_reference" gorm:"size:255"`
	Metadata          JSONB         `json:"metadata" gorm:"type:jsonb"`
	ProcessedAt       *time.Time    `json:"processed_at"`
}

// Reconciled reports whether this payment has ever been checked against the
// payment gateway. Finalization may only auto-complete an unreconciled
// pending payment; a payment last seen by the gateway in a non-success state
// must not be promoted without the gateway's say-so.
func (p *Payment) Reconciled() bool {
	if p.Metadata == nil {
		return false
	}
	_, ok := p.Metadata[PaymentMetaGatewayStatus]
	return ok
}

func (p *Payment) SetMeta(key string, value interface{}) {
	if p.Metadata == nil {
		p.Metadata = JSONB{}
	}
	p.Metadata[key] = value
}
