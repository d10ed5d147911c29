// internal/models/application.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// ApplicationDraft is the mutable, in-progress form of an application.
// Exactly one draft exists per owner; ApplicationID is the public, stable
// identifier that survives into the Admission on finalization.
type ApplicationDraft struct {
	BaseModel
	ApplicationID uuid.UUID `json:"application_id" gorm:"type:uuid;uniqueIndex;not null"`
	OwnerID       uuid.UUID `json:"owner_id" gorm:"type:uuid;uniqueIndex;not null"`

	PersonalInfo     JSONB `json:"personal_info" gorm:"type:jsonb"`
	StudyChoices     JSONB `json:"study_choices" gorm:"type:jsonb"`
	EducationHistory JSONB `json:"education_history" gorm:"type:jsonb"`
	Achievements     JSONB `json:"achievements" gorm:"type:jsonb"`
	Disclosures      JSONB `json:"disclosures" gorm:"type:jsonb"`
	Documents        JSONB `json:"documents" gorm:"type:jsonb"`
	Declarations     JSONB `json:"declarations" gorm:"type:jsonb"`

	CompletedSteps pq.StringArray `json:"completed_steps" gorm:"type:text[]"`
}

// Section returns the payload stored under the given section name.
func (d *ApplicationDraft) Section(name SectionName) (JSONB, bool) {
	switch name {
	case SectionPersonalInfo:
		return d.PersonalInfo, true
	case SectionStudyChoices:
		return d.StudyChoices, true
	case SectionEducationHistory:
		return d.EducationHistory, true
	case SectionAchievements:
		return d.Achievements, true
	case SectionDisclosures:
		return d.Disclosures, true
	case SectionDocuments:
		return d.Documents, true
	case SectionDeclarations:
		return d.Declarations, true
	}
	return nil, false
}

// SetSection overwrites the payload stored under the given section name.
// Returns false for an unrecognized name without touching the draft.
func (d *ApplicationDraft) SetSection(name SectionName, data JSONB) bool {
	switch name {
	case SectionPersonalInfo:
		d.PersonalInfo = data
	case SectionStudyChoices:
		d.StudyChoices = data
	case SectionEducationHistory:
		d.EducationHistory = data
	case SectionAchievements:
		d.Achievements = data
	case SectionDisclosures:
		d.Disclosures = data
	case SectionDocuments:
		d.Documents = data
	case SectionDeclarations:
		d.Declarations = data
	default:
		return false
	}
	return true
}

func (d *ApplicationDraft) HasCompleted(name SectionName) bool {
	for _, step := range d.CompletedSteps {
		if step == string(name) {
			return true
		}
	}
	return false
}

// MarkCompleted adds the section to the completed set if not already present.
func (d *ApplicationDraft) MarkCompleted(name SectionName) {
	if !d.HasCompleted(name) {
		d.CompletedSteps = append(d.CompletedSteps, string(name))
	}
}
