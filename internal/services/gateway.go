// internal/services/gateway.go
package services

import (
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"github.com/opencampus/admissions-backend/internal/config"
)

// GatewayStatus is the gateway's authoritative status vocabulary,
// reconciled onto models.PaymentStatus by the pipeline.
type GatewayStatus string

const (
	GatewayStatusSucceeded             GatewayStatus = "succeeded"
	GatewayStatusProcessing            GatewayStatus = "processing"
	GatewayStatusRequiresAction        GatewayStatus = "requires_action"
	GatewayStatusRequiresPaymentMethod GatewayStatus = "requires_payment_method"
	GatewayStatusUnknown               GatewayStatus = "unknown"
)

// PaymentIntent is the gateway's handle on a created payment.
type PaymentIntent struct {
	GatewayReference string
	ClientSecret     string
	Status           GatewayStatus
}

// PaymentGateway issues payment intents and reports authoritative status.
// Implementations must tolerate idempotent retries with the same metadata;
// the pipeline does not deduplicate at this layer.
type PaymentGateway interface {
	CreateIntent(amount float64, currency, methodRef string, metadata map[string]string) (*PaymentIntent, error)
	ConfirmIntent(gatewayReference, methodRef string) (GatewayStatus, error)
}

// StripeGateway backs the PaymentGateway contract with Stripe PaymentIntents.
type StripeGateway struct {
	config *config.Config
}

func NewStripeGateway(config *config.Config) *StripeGateway {
	stripe.Key = config.Payment.StripeSecretKey

	return &StripeGateway{config: config}
}

func (g *StripeGateway) CreateIntent(amount float64, currency, methodRef string, metadata map[string]string) (*PaymentIntent, error) {
	// Convert amount to cents for Stripe
	amountInCents := int64(amount * 100)

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountInCents),
		Currency: stripe.String(currency),
	}
	if methodRef != "" {
		params.PaymentMethod = stripe.String(methodRef)
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &PaymentIntent{
		GatewayReference: pi.ID,
		ClientSecret:     pi.ClientSecret,
		Status:           mapStripeStatus(pi.Status),
	}, nil
}

func (g *StripeGateway) ConfirmIntent(gatewayReference, methodRef string) (GatewayStatus, error) {
	pi, err := paymentintent.Get(gatewayReference, nil)
	if err != nil {
		return GatewayStatusUnknown, fmt.Errorf("failed to get payment intent: %w", err)
	}

	// A redirect-based flow may land here while the intent still wants
	// confirmation; push it forward once before reporting.
	if pi.Status == stripe.PaymentIntentStatusRequiresConfirmation {
		confirmParams := &stripe.PaymentIntentConfirmParams{}
		if methodRef != "" {
			confirmParams.PaymentMethod = stripe.String(methodRef)
		}
		pi, err = paymentintent.Confirm(gatewayReference, confirmParams)
		if err != nil {
			return GatewayStatusUnknown, fmt.Errorf("failed to confirm payment intent: %w", err)
		}
	}

	return mapStripeStatus(pi.Status), nil
}

func mapStripeStatus(status stripe.PaymentIntentStatus) GatewayStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return GatewayStatusSucceeded
	case stripe.PaymentIntentStatusProcessing:
		return GatewayStatusProcessing
	case stripe.PaymentIntentStatusRequiresAction, stripe.PaymentIntentStatusRequiresConfirmation:
		return GatewayStatusRequiresAction
	case stripe.PaymentIntentStatusRequiresPaymentMethod:
		return GatewayStatusRequiresPaymentMethod
	default:
		return GatewayStatusUnknown
	}
}
