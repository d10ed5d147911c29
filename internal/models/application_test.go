// internal/models/application_test.go
package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSectionNameValid(t *testing.T) {
	for _, name := range AllSections {
		assert.True(t, name.Valid(), "expected %q to be a valid section", name)
	}
	assert.False(t, SectionName("hobbies").Valid())
	assert.False(t, SectionName("").Valid())
}

func TestSetSectionRoundTrip(t *testing.T) {
	draft := &ApplicationDraft{}
	data := JSONB{"first_name": "Ada"}

	assert.True(t, draft.SetSection(SectionPersonalInfo, data))

	got, ok := draft.Section(SectionPersonalInfo)
	assert.True(t, ok)
	assert.Equal(t, data, got)

	assert.False(t, draft.SetSection(SectionName("hobbies"), data))
	_, ok = draft.Section(SectionName("hobbies"))
	assert.False(t, ok)
}

func TestMarkCompletedIsIdempotent(t *testing.T) {
	draft := &ApplicationDraft{}

	draft.MarkCompleted(SectionPersonalInfo)
	draft.MarkCompleted(SectionPersonalInfo)
	draft.MarkCompleted(SectionDocuments)

	assert.Len(t, draft.CompletedSteps, 2)
	assert.True(t, draft.HasCompleted(SectionPersonalInfo))
	assert.True(t, draft.HasCompleted(SectionDocuments))
	assert.False(t, draft.HasCompleted(SectionDeclarations))
}

func TestPaymentReconciled(t *testing.T) {
	payment := &Payment{}
	assert.False(t, payment.Reconciled())

	payment.SetMeta(PaymentMetaLastCheckedAt, "2026-01-01T00:00:00Z")
	assert.False(t, payment.Reconciled())

	payment.SetMeta(PaymentMetaGatewayStatus, "requires_action")
	assert.True(t, payment.Reconciled())
}
