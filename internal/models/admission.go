// internal/models/admission.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Admission is the immutable record created by finalizing a paid draft.
// The unique index on ApplicationID guarantees a draft can finalize at most
// once even if a stale draft row survives a partial failure.
type Admission struct {
	BaseModel
	ApplicationID uuid.UUID `json:"application_id" gorm:"type:uuid;uniqueIndex;not null"`
	OwnerID       uuid.UUID `json:"owner_id" gorm:"type:uuid;uniqueIndex;not null"`
	PaymentID     uuid.UUID `json:"payment_id" gorm:"type:uuid;not null;index"`

	PersonalInfo     JSONB `json:"personal_info" gorm:"type:jsonb"`
	StudyChoices     JSONB `json:"study_choices" gorm:"type:jsonb"`
	EducationHistory JSONB `json:"education_history" gorm:"type:jsonb"`
	Achievements     JSONB `json:"achievements" gorm:"type:jsonb"`
	Disclosures      JSONB `json:"disclosures" gorm:"type:jsonb"`
	Documents        JSONB `json:"documents" gorm:"type:jsonb"`
	Declarations     JSONB `json:"declarations" gorm:"type:jsonb"`

	CompletedSteps pq.StringArray `json:"completed_steps" gorm:"type:text[]"`

	Status            AdmissionStatus `json:"status" gorm:"type:varchar(20);default:'pending';index"`
	RejectedBy        *uuid.UUID      `json:"rejected_by,omitempty" gorm:"type:uuid"`
	RejectionReason   string          `json:"rejection_reason,omitempty" gorm:"type:text"`
	ConfirmationToken string          `json:"-" gorm:"size:64;index"`
	TokenExpiry       *time.Time      `json:"token_expiry,omitempty"`
}

// NewAdmissionFromDraft copies every draft section into a fresh pending
// admission referencing the payment that funded it.
func NewAdmissionFromDraft(draft *ApplicationDraft, paymentID uuid.UUID) *Admission {
	return &Admission{
		ApplicationID:    draft.ApplicationID,
		OwnerID:          draft.OwnerID,
		PaymentID:        paymentID,
		PersonalInfo:     draft.PersonalInfo,
		StudyChoices:     draft.StudyChoices,
		EducationHistory: draft.EducationHistory,
		Achievements:     draft.Achievements,
		Disclosures:      draft.Disclosures,
		Documents:        draft.Documents,
		Declarations:     draft.Declarations,
		CompletedSteps:   draft.CompletedSteps,
		Status:           AdmissionStatusPending,
	}
}
