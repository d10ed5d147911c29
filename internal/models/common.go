// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserType string

const (
	UserTypeApplicant UserType = "applicant"
	UserTypeAdmin     UserType = "admin"
)

type UserStatus string

const (
	UserStatusActive    UserStatus = "active"
	UserStatusSuspended UserStatus = "suspended"
	UserStatusBanned    UserStatus = "banned"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

type AdmissionStatus string

const (
	AdmissionStatusPending  AdmissionStatus = "pending"
	AdmissionStatusOffered  AdmissionStatus = "offered"
	AdmissionStatusApproved AdmissionStatus = "approved"
	AdmissionStatusRejected AdmissionStatus = "rejected"
)

// SectionName identifies one of the fixed application form sections.
type SectionName string

const (
	SectionPersonalInfo     SectionName = "personal_info"
	SectionStudyChoices     SectionName = "study_choices"
	SectionEducationHistory SectionName = "education_history"
	SectionAchievements     SectionName = "achievements"
	SectionDisclosures      SectionName = "disclosures"
	SectionDocuments        SectionName = "documents"
	SectionDeclarations     SectionName = "declarations"
)

// AllSections lists every recognized section name in form order.
var AllSections = []SectionName{
	SectionPersonalInfo,
	SectionStudyChoices,
	SectionEducationHistory,
	SectionAchievements,
	SectionDisclosures,
	SectionDocuments,
	SectionDeclarations,
}

func (s SectionName) Valid() bool {
	switch s {
	case SectionPersonalInfo, SectionStudyChoices, SectionEducationHistory,
		SectionAchievements, SectionDisclosures, SectionDocuments, SectionDeclarations:
		return true
	}
	return false
}
