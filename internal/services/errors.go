// internal/services/errors.go
package services

import (
	"errors"
	"fmt"

	"github.com/opencampus/admissions-backend/internal/txlock"
)

// Domain errors raised by the application pipeline. Each maps 1:1 to a
// user-facing status at the HTTP boundary.
var (
	ErrInvalidSection          = errors.New("unrecognized application section")
	ErrApplicationNotFound     = errors.New("application not found")
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentMismatch         = errors.New("payment does not belong to this application's owner")
	ErrPaymentProcessing       = errors.New("payment processing failed")
	ErrFinalizationFailed      = errors.New("admission finalization failed")
	ErrAlreadySubmitted        = errors.New("application already submitted")
	ErrAdmissionNotFound       = errors.New("admission not found")
	ErrInvalidToken            = errors.New("confirmation token invalid or expired")
	ErrInvalidStatusTransition = errors.New("invalid admission status transition")
)

// LockDeniedError reports that another tab or session holds the transaction
// lock for the attempted step. Contention is expected and recoverable; the
// caller decides whether and when to retry.
type LockDeniedError struct {
	Conflict *txlock.LockInfo
}

func (e *LockDeniedError) Error() string {
	return fmt.Sprintf("transaction %q already in progress", e.Conflict.TransactionType)
}

// AsLockDenied extracts a LockDeniedError from err, if present.
func AsLockDenied(err error) (*LockDeniedError, bool) {
	var denied *LockDeniedError
	if errors.As(err, &denied) {
		return denied, true
	}
	return nil, false
}
