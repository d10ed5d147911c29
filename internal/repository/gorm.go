// internal/repository/gorm.go
package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/opencampus/admissions-backend/internal/models"
	"github.com/opencampus/admissions-backend/internal/utils"
)

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) FindDraftByOwner(ownerID uuid.UUID) (*models.ApplicationDraft, error) {
	var draft models.ApplicationDraft
	if err := r.db.Where("owner_id = ?", ownerID).First(&draft).Error; err != nil {
		return nil, translate(err)
	}
	return &draft, nil
}

func (r *GormRepository) FindDraftByApplicationID(applicationID uuid.UUID) (*models.ApplicationDraft, error) {
	var draft models.ApplicationDraft
	if err := r.db.Where("application_id = ?", applicationID).First(&draft).Error; err != nil {
		return nil, translate(err)
	}
	return &draft, nil
}

func (r *GormRepository) SaveDraft(draft *models.ApplicationDraft) error {
	if err := r.db.Save(draft).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormRepository) FindPaymentByID(id uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &payment, nil
}

func (r *GormRepository) SavePayment(payment *models.Payment) error {
	if err := r.db.Save(payment).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormRepository) FindAdmissionByID(id uuid.UUID) (*models.Admission, error) {
	var admission models.Admission
	if err := r.db.First(&admission, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &admission, nil
}

func (r *GormRepository) FindAdmissionByOwner(ownerID uuid.UUID) (*models.Admission, error) {
	var admission models.Admission
	if err := r.db.Where("owner_id = ?", ownerID).First(&admission).Error; err != nil {
		return nil, translate(err)
	}
	return &admission, nil
}

func (r *GormRepository) FindAdmissionByToken(token string) (*models.Admission, error) {
	var admission models.Admission
	if err := r.db.Where("confirmation_token = ?", token).First(&admission).Error; err != nil {
		return nil, translate(err)
	}
	return &admission, nil
}

func (r *GormRepository) SaveAdmission(admission *models.Admission) error {
	if err := r.db.Save(admission).Error; err != nil {
		return translate(err)
	}
	return nil
}

func (r *GormRepository) ListAdmissions(params utils.PaginationParams, status *models.AdmissionStatus) ([]models.Admission, int64, error) {
	query := r.db.Model(&models.Admission{})
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count admissions: %w", err)
	}

	allowedSortFields := []string{"created_at", "status", "updated_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var admissions []models.Admission
	if err := query.Find(&admissions).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch admissions: %w", err)
	}

	return admissions, total, nil
}

// Finalize creates the admission and deletes the draft in one transaction.
// The draft delete is unscoped so the one-draft-per-owner unique index is
// freed in the same commit that creates the admission.
func (r *GormRepository) Finalize(admission *models.Admission, draft *models.ApplicationDraft) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(admission).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(draft).Error
	})
	if err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	default:
		return err
	}
}
