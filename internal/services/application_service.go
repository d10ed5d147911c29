// internal/services/application_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opencampus/admissions-backend/internal/i18n"
	"github.com/opencampus/admissions-backend/internal/models"
	"github.com/opencampus/admissions-backend/internal/repository"
	"github.com/opencampus/admissions-backend/internal/txlock"
	"github.com/opencampus/admissions-backend/internal/utils"
)

// ApplicationService orchestrates the submission pipeline: draft mutation,
// payment initiation and confirmation, and the atomic conversion of a paid
// draft into an admission. Every state-changing step runs under a
// transaction lock so concurrent tabs and retried requests stay
// single-flight. Gateway and repository calls happen while holding the
// logical lock, never while holding the lock table's mutex.
type ApplicationService struct {
	repo    repository.ApplicationRepository
	gateway PaymentGateway
	locks   *txlock.Service
}

type InitiatePaymentRequest struct {
	Amount        float64 `json:"amount" validate:"required,min=0.01"`
	Currency      string  `json:"currency,omitempty" validate:"omitempty,currency_code"`
	PaymentMethod string  `json:"payment_method" validate:"required"`
}

type PaymentIntentResponse struct {
	PaymentID    uuid.UUID `json:"payment_id"`
	ClientSecret string    `json:"client_secret,omitempty"`
	Status       string    `json:"status"`
}

// ConfirmPaymentResult carries the reconciled payment plus a translation key
// describing the outcome for the applicant.
type ConfirmPaymentResult struct {
	Payment    *models.Payment `json:"payment"`
	MessageKey string          `json:"-"`
}

// StepContext identifies who is attempting a step and from where; TabID lets
// the same tab retry without tripping its own lock.
type StepContext struct {
	OwnerID       uuid.UUID
	TabID         string
	ClientContext string
}

func NewApplicationService(repo repository.ApplicationRepository, gateway PaymentGateway, locks *txlock.Service) *ApplicationService {
	return &ApplicationService{
		repo:    repo,
		gateway: gateway,
		locks:   locks,
	}
}

// StartApplication returns the owner's draft, creating it on first call.
// Idempotent: a repeat call returns the existing draft unchanged. An owner
// who has already finalized gets a conflict, never a second application.
func (s *ApplicationService) StartApplication(ownerID uuid.UUID) (*models.ApplicationDraft, error) {
	draft, err := s.repo.FindDraftByOwner(ownerID)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up draft: %w", err)
	}

	if _, err := s.repo.FindAdmissionByOwner(ownerID); err == nil {
		return nil, ErrAlreadySubmitted
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up admission: %w", err)
	}

	draft = &models.ApplicationDraft{
		ApplicationID:  uuid.New(),
		OwnerID:        ownerID,
		CompletedSteps: []string{},
	}
	if err := s.repo.SaveDraft(draft); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with another tab creating the same draft.
			return s.repo.FindDraftByOwner(ownerID)
		}
		return nil, fmt.Errorf("failed to create draft: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"owner_id":       ownerID,
		"application_id": draft.ApplicationID,
	}).Info("Application started")

	return draft, nil
}

// GetDraft returns the owner's current draft.
func (s *ApplicationService) GetDraft(ownerID uuid.UUID) (*models.ApplicationDraft, error) {
	draft, err := s.repo.FindDraftByOwner(ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return draft, nil
}

// SaveSection overwrites one named section of the draft and records the step
// as completed. Section overwrites commute by name, but the lock keeps two
// tabs from racing a last-write-wins on the same section.
func (s *ApplicationService) SaveSection(ctx StepContext, applicationID uuid.UUID, section models.SectionName, data models.JSONB) (*models.ApplicationDraft, error) {
	if !section.Valid() {
		return nil, ErrInvalidSection
	}

	var draft *models.ApplicationDraft
	err := s.guarded(ctx, txlock.TypeSectionSave, applicationID.String(), func() error {
		var err error
		draft, err = s.findOwnedDraft(ctx, applicationID)
		if err != nil {
			return err
		}

		draft.SetSection(section, data)
		draft.MarkCompleted(section)

		return s.repo.SaveDraft(draft)
	})
	if err != nil {
		return nil, err
	}
	return draft, nil
}

// InitiatePayment creates a pending payment for the draft and opens an
// intent at the gateway, tagging it with the payment and owner ids for later
// reconciliation. The lock is the duplicate-charge guard: without it two
// tabs could open two gateway intents for one draft.
func (s *ApplicationService) InitiatePayment(ctx StepContext, applicationID uuid.UUID, req *InitiatePaymentRequest) (*PaymentIntentResponse, error) {
	if applicationID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing application id", ErrPaymentProcessing)
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPaymentProcessing, err)
	}

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	var resp *PaymentIntentResponse
	err := s.guarded(ctx, txlock.TypePayment, applicationID.String(), func() error {
		draft, err := s.findOwnedDraft(ctx, applicationID)
		if err != nil {
			return err
		}

		payment := &models.Payment{
			ApplicationID: draft.ApplicationID,
			OwnerID:       draft.OwnerID,
			Amount:        req.Amount,
			Currency:      currency,
			PaymentMethod: req.PaymentMethod,
			Status:        models.PaymentStatusPending,
		}
		if err := s.repo.SavePayment(payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}

		intent, err := s.gateway.CreateIntent(req.Amount, currency, req.PaymentMethod, map[string]string{
			"payment_id": payment.ID.String(),
			"owner_id":   draft.OwnerID.String(),
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentProcessing, err)
		}

		payment.ExternalReference = intent.GatewayReference
		if intent.ClientSecret != "" {
			payment.SetMeta(models.PaymentMetaClientSecret, intent.ClientSecret)
		}
		if err := s.repo.SavePayment(payment); err != nil {
			return fmt.Errorf("failed to store gateway reference: %w", err)
		}

		resp = &PaymentIntentResponse{
			PaymentID:    payment.ID,
			ClientSecret: intent.ClientSecret,
			Status:       string(payment.Status),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ConfirmPayment reconciles the payment against the gateway's authoritative
// status. Idempotent at the gateway; the lock serializes overlapping confirm
// attempts from tabs following a redirect flow.
func (s *ApplicationService) ConfirmPayment(ctx StepContext, paymentID uuid.UUID) (*ConfirmPaymentResult, error) {
	var result *ConfirmPaymentResult
	err := s.guarded(ctx, txlock.TypePaymentConfirm, paymentID.String(), func() error {
		payment, err := s.findOwnedPayment(ctx, paymentID)
		if err != nil {
			return err
		}

		status, err := s.gateway.ConfirmIntent(payment.ExternalReference, payment.PaymentMethod)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPaymentProcessing, err)
		}

		now := time.Now()
		payment.SetMeta(models.PaymentMetaGatewayStatus, string(status))
		payment.SetMeta(models.PaymentMetaLastCheckedAt, now.Format(time.RFC3339))

		var messageKey string
		switch status {
		case GatewayStatusSucceeded:
			payment.Status = models.PaymentStatusCompleted
			payment.ProcessedAt = &now
			payment.SetMeta(models.PaymentMetaConfirmedAt, now.Format(time.RFC3339))
			payment.SetMeta(models.PaymentMetaCompletedVia, models.PaymentCompletedViaGateway)
			messageKey = i18n.KeyPaymentSuccess

		case GatewayStatusProcessing:
			payment.Status = models.PaymentStatusPending
			messageKey = i18n.KeyPaymentPending

		case GatewayStatusRequiresAction:
			payment.Status = models.PaymentStatusPending
			messageKey = i18n.KeyPaymentRequiresAction

		default:
			// Recorded as failed for audit; never retried automatically.
			payment.Status = models.PaymentStatusFailed
			messageKey = i18n.KeyPaymentFailed
			logrus.WithFields(logrus.Fields{
				"payment_id":     payment.ID,
				"gateway_status": status,
			}).Warn("Payment failed at gateway")
		}

		if err := s.repo.SavePayment(payment); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}

		result = &ConfirmPaymentResult{Payment: payment, MessageKey: messageKey}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// FinalizeAdmission atomically converts the paid draft into an immutable
// admission: the admission insert and the draft delete commit together, and
// the unique index on the admission's application id rejects a replay even
// if a stale draft row survives a partial failure.
func (s *ApplicationService) FinalizeAdmission(ctx StepContext, applicationID, paymentID uuid.UUID) (*models.Admission, error) {
	if applicationID == uuid.Nil || paymentID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing application or payment id", ErrFinalizationFailed)
	}

	var admission *models.Admission
	err := s.guarded(ctx, txlock.TypeFinalize, applicationID.String(), func() error {
		// A missing draft is also how a second finalize attempt is rejected:
		// the first success deleted it.
		draft, err := s.findOwnedDraft(ctx, applicationID)
		if err != nil {
			return err
		}

		payment, err := s.repo.FindPaymentByID(paymentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}

		if payment.OwnerID != draft.OwnerID {
			return ErrPaymentMismatch
		}

		if payment.Status != models.PaymentStatusCompleted {
			// Cover the record that lagged behind a confirmation that already
			// succeeded at the gateway, without re-invoking the gateway. A
			// payment the gateway last reported in a non-success state stays
			// as it is and blocks finalization.
			if payment.Status == models.PaymentStatusPending && !payment.Reconciled() {
				now := time.Now()
				payment.Status = models.PaymentStatusCompleted
				payment.ProcessedAt = &now
				payment.SetMeta(models.PaymentMetaCompletedVia, models.PaymentCompletedViaFinalize)
				if err := s.repo.SavePayment(payment); err != nil {
					return fmt.Errorf("failed to complete payment: %w", err)
				}
			} else {
				return fmt.Errorf("%w: payment is %s", ErrFinalizationFailed, payment.Status)
			}
		}

		admission = models.NewAdmissionFromDraft(draft, payment.ID)
		if err := s.repo.Finalize(admission, draft); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadySubmitted
			}
			return fmt.Errorf("%w: %v", ErrFinalizationFailed, err)
		}

		logrus.WithFields(logrus.Fields{
			"owner_id":       draft.OwnerID,
			"application_id": draft.ApplicationID,
			"payment_id":     payment.ID,
		}).Info("Application finalized")

		return nil
	})
	if err != nil {
		return nil, err
	}
	return admission, nil
}

// findOwnedDraft loads the draft and enforces that it belongs to the caller.
// A foreign draft is reported as absent so the id leaks nothing; this is
// also what keeps the lock key honest, since guarded keys on the caller's
// owner id.
func (s *ApplicationService) findOwnedDraft(ctx StepContext, applicationID uuid.UUID) (*models.ApplicationDraft, error) {
	draft, err := s.repo.FindDraftByApplicationID(applicationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if draft.OwnerID != ctx.OwnerID {
		return nil, ErrApplicationNotFound
	}
	return draft, nil
}

// findOwnedPayment loads the payment and enforces that it belongs to the
// caller, reported as absent on mismatch like findOwnedDraft.
func (s *ApplicationService) findOwnedPayment(ctx StepContext, paymentID uuid.UUID) (*models.Payment, error) {
	payment, err := s.repo.FindPaymentByID(paymentID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.OwnerID != ctx.OwnerID {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// guarded runs fn while holding the transaction lock for the step. A denial
// is surfaced to the caller immediately; retry policy belongs to the client.
func (s *ApplicationService) guarded(ctx StepContext, transactionType, transactionID string, fn func() error) error {
	res := s.locks.Acquire(txlock.AcquireRequest{
		OwnerID:         ctx.OwnerID.String(),
		TransactionType: transactionType,
		TransactionID:   transactionID,
		TabID:           ctx.TabID,
		ClientContext:   ctx.ClientContext,
	})
	if !res.Granted {
		return &LockDeniedError{Conflict: res.Conflict}
	}
	defer s.locks.Release(ctx.OwnerID.String(), transactionType, transactionID, res.LockID)

	return fn()
}
