// internal/repository/repository.go

// Package repository defines the persistence boundary consumed by the
// application pipeline and its GORM-backed production implementation.
package repository

import (
	"errors"

	"github.com/google/uuid"

	"github.com/opencampus/admissions-backend/internal/models"
	"github.com/opencampus/admissions-backend/internal/utils"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a uniqueness guarantee,
	// e.g. finalizing an application that already has an admission.
	ErrDuplicate = errors.New("record already exists")
)

// ApplicationRepository persists drafts, payments and admissions. Finalize
// must create the admission and delete the draft as one transactional unit.
type ApplicationRepository interface {
	FindDraftByOwner(ownerID uuid.UUID) (*models.ApplicationDraft, error)
	FindDraftByApplicationID(applicationID uuid.UUID) (*models.ApplicationDraft, error)
	SaveDraft(draft *models.ApplicationDraft) error

	FindPaymentByID(id uuid.UUID) (*models.Payment, error)
	SavePayment(payment *models.Payment) error

	FindAdmissionByID(id uuid.UUID) (*models.Admission, error)
	FindAdmissionByOwner(ownerID uuid.UUID) (*models.Admission, error)
	FindAdmissionByToken(token string) (*models.Admission, error)
	SaveAdmission(admission *models.Admission) error
	ListAdmissions(params utils.PaginationParams, status *models.AdmissionStatus) ([]models.Admission, int64, error)

	Finalize(admission *models.Admission, draft *models.ApplicationDraft) error
}
