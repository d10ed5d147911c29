// internal/services/admission_service.go
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opencampus/admissions-backend/internal/models"
	"github.com/opencampus/admissions-backend/internal/repository"
	"github.com/opencampus/admissions-backend/internal/utils"
)

// Offer confirmation links stay valid for two weeks.
const offerTokenTTL = 14 * 24 * time.Hour

// AdmissionService is the review side of the pipeline: once an application
// is finalized, admissions staff move the record through its statuses. It
// never touches drafts or payments.
type AdmissionService struct {
	repo repository.ApplicationRepository
}

type RejectAdmissionRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func NewAdmissionService(repo repository.ApplicationRepository) *AdmissionService {
	return &AdmissionService{repo: repo}
}

// GetMyAdmission returns the applicant's own admission record.
func (s *AdmissionService) GetMyAdmission(ownerID uuid.UUID) (*models.Admission, error) {
	admission, err := s.repo.FindAdmissionByOwner(ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAdmissionNotFound
		}
		return nil, err
	}
	return admission, nil
}

func (s *AdmissionService) ListAdmissions(params utils.PaginationParams, status *models.AdmissionStatus) ([]models.Admission, int64, error) {
	return s.repo.ListAdmissions(params, status)
}

// MakeOffer transitions a pending admission to offered and issues the
// confirmation token the applicant uses to accept.
func (s *AdmissionService) MakeOffer(admissionID uuid.UUID) (*models.Admission, error) {
	admission, err := s.find(admissionID)
	if err != nil {
		return nil, err
	}

	if admission.Status != models.AdmissionStatusPending {
		return nil, fmt.Errorf("%w: cannot offer from %s", ErrInvalidStatusTransition, admission.Status)
	}

	token, err := utils.GenerateConfirmationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate confirmation token: %w", err)
	}

	expiry := time.Now().Add(offerTokenTTL)
	admission.Status = models.AdmissionStatusOffered
	admission.ConfirmationToken = token
	admission.TokenExpiry = &expiry

	if err := s.repo.SaveAdmission(admission); err != nil {
		return nil, fmt.Errorf("failed to save admission: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"admission_id": admission.ID,
		"owner_id":     admission.OwnerID,
	}).Info("Admission offer extended")

	return admission, nil
}

// AcceptOffer lets the applicant accept an offer through the emailed token.
func (s *AdmissionService) AcceptOffer(token string) (*models.Admission, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	admission, err := s.repo.FindAdmissionByToken(token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if admission.Status != models.AdmissionStatusOffered {
		return nil, ErrInvalidToken
	}
	if admission.TokenExpiry == nil || time.Now().After(*admission.TokenExpiry) {
		return nil, ErrInvalidToken
	}

	admission.Status = models.AdmissionStatusApproved
	admission.ConfirmationToken = ""
	admission.TokenExpiry = nil

	if err := s.repo.SaveAdmission(admission); err != nil {
		return nil, fmt.Errorf("failed to save admission: %w", err)
	}

	return admission, nil
}

// Approve marks an admission approved directly, without the offer round.
func (s *AdmissionService) Approve(admissionID uuid.UUID) (*models.Admission, error) {
	admission, err := s.find(admissionID)
	if err != nil {
		return nil, err
	}

	if admission.Status == models.AdmissionStatusRejected {
		return nil, fmt.Errorf("%w: cannot approve a rejected admission", ErrInvalidStatusTransition)
	}

	admission.Status = models.AdmissionStatusApproved
	admission.ConfirmationToken = ""
	admission.TokenExpiry = nil

	if err := s.repo.SaveAdmission(admission); err != nil {
		return nil, fmt.Errorf("failed to save admission: %w", err)
	}
	return admission, nil
}

func (s *AdmissionService) Reject(admissionID, adminID uuid.UUID, req *RejectAdmissionRequest) (*models.Admission, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	admission, err := s.find(admissionID)
	if err != nil {
		return nil, err
	}

	if admission.Status == models.AdmissionStatusApproved {
		return nil, fmt.Errorf("%w: cannot reject an approved admission", ErrInvalidStatusTransition)
	}

	admission.Status = models.AdmissionStatusRejected
	admission.RejectedBy = &adminID
	admission.RejectionReason = req.Reason
	admission.ConfirmationToken = ""
	admission.TokenExpiry = nil

	if err := s.repo.SaveAdmission(admission); err != nil {
		return nil, fmt.Errorf("failed to save admission: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"admission_id": admission.ID,
		"rejected_by":  adminID,
	}).Info("Admission rejected")

	return admission, nil
}

func (s *AdmissionService) find(admissionID uuid.UUID) (*models.Admission, error) {
	admission, err := s.repo.FindAdmissionByID(admissionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAdmissionNotFound
		}
		return nil, err
	}
	return admission, nil
}
