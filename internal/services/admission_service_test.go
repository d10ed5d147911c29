// internal/services/admission_service_test.go
package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/opencampus/admissions-backend/internal/models"
	"github.com/opencampus/admissions-backend/internal/utils"
)

type AdmissionServiceTestSuite struct {
	suite.Suite
	repo    *memoryRepository
	service *AdmissionService
}

func (suite *AdmissionServiceTestSuite) SetupTest() {
	suite.repo = newMemoryRepository()
	suite.service = NewAdmissionService(suite.repo)
}

func (suite *AdmissionServiceTestSuite) seedAdmission(status models.AdmissionStatus) *models.Admission {
	admission := &models.Admission{
		ApplicationID: uuid.New(),
		OwnerID:       uuid.New(),
		PaymentID:     uuid.New(),
		Status:        status,
	}
	require.NoError(suite.T(), suite.repo.SaveAdmission(admission))
	return admission
}

func (suite *AdmissionServiceTestSuite) TestGetMyAdmission() {
	admission := suite.seedAdmission(models.AdmissionStatusPending)

	found, err := suite.service.GetMyAdmission(admission.OwnerID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), admission.ID, found.ID)

	_, err = suite.service.GetMyAdmission(uuid.New())
	assert.ErrorIs(suite.T(), err, ErrAdmissionNotFound)
}

func (suite *AdmissionServiceTestSuite) TestMakeOfferIssuesToken() {
	admission := suite.seedAdmission(models.AdmissionStatusPending)

	offered, err := suite.service.MakeOffer(admission.ID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.AdmissionStatusOffered, offered.Status)
	assert.NotEmpty(suite.T(), offered.ConfirmationToken)
	require.NotNil(suite.T(), offered.TokenExpiry)
	assert.True(suite.T(), offered.TokenExpiry.After(time.Now()))
}

func (suite *AdmissionServiceTestSuite) TestMakeOfferOnlyFromPending() {
	admission := suite.seedAdmission(models.AdmissionStatusApproved)

	_, err := suite.service.MakeOffer(admission.ID)
	assert.ErrorIs(suite.T(), err, ErrInvalidStatusTransition)

	_, err = suite.service.MakeOffer(uuid.New())
	assert.ErrorIs(suite.T(), err, ErrAdmissionNotFound)
}

func (suite *AdmissionServiceTestSuite) TestAcceptOfferApprovesAndClearsToken() {
	admission := suite.seedAdmission(models.AdmissionStatusPending)
	offered, err := suite.service.MakeOffer(admission.ID)
	require.NoError(suite.T(), err)

	accepted, err := suite.service.AcceptOffer(offered.ConfirmationToken)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.AdmissionStatusApproved, accepted.Status)
	assert.Empty(suite.T(), accepted.ConfirmationToken)
	assert.Nil(suite.T(), accepted.TokenExpiry)

	// Token is single use.
	_, err = suite.service.AcceptOffer(offered.ConfirmationToken)
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}

func (suite *AdmissionServiceTestSuite) TestAcceptOfferRejectsExpiredToken() {
	admission := suite.seedAdmission(models.AdmissionStatusOffered)
	expired := time.Now().Add(-time.Hour)
	admission.ConfirmationToken = "stale-token"
	admission.TokenExpiry = &expired
	require.NoError(suite.T(), suite.repo.SaveAdmission(admission))

	_, err := suite.service.AcceptOffer("stale-token")
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)

	_, err = suite.service.AcceptOffer("")
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)

	_, err = suite.service.AcceptOffer("never-issued")
	assert.ErrorIs(suite.T(), err, ErrInvalidToken)
}

func (suite *AdmissionServiceTestSuite) TestRejectRecordsReviewer() {
	admission := suite.seedAdmission(models.AdmissionStatusPending)
	adminID := uuid.New()

	rejected, err := suite.service.Reject(admission.ID, adminID, &RejectAdmissionRequest{Reason: "incomplete records"})

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.AdmissionStatusRejected, rejected.Status)
	require.NotNil(suite.T(), rejected.RejectedBy)
	assert.Equal(suite.T(), adminID, *rejected.RejectedBy)
	assert.Equal(suite.T(), "incomplete records", rejected.RejectionReason)
}

func (suite *AdmissionServiceTestSuite) TestRejectRequiresReason() {
	admission := suite.seedAdmission(models.AdmissionStatusPending)

	_, err := suite.service.Reject(admission.ID, uuid.New(), &RejectAdmissionRequest{})
	assert.Error(suite.T(), err)

	stored, findErr := suite.repo.FindAdmissionByID(admission.ID)
	require.NoError(suite.T(), findErr)
	assert.Equal(suite.T(), models.AdmissionStatusPending, stored.Status)
}

func (suite *AdmissionServiceTestSuite) TestTerminalStatusesCannotCross() {
	approved := suite.seedAdmission(models.AdmissionStatusApproved)
	_, err := suite.service.Reject(approved.ID, uuid.New(), &RejectAdmissionRequest{Reason: "late"})
	assert.ErrorIs(suite.T(), err, ErrInvalidStatusTransition)

	rejected := suite.seedAdmission(models.AdmissionStatusRejected)
	_, err = suite.service.Approve(rejected.ID)
	assert.ErrorIs(suite.T(), err, ErrInvalidStatusTransition)
}

func (suite *AdmissionServiceTestSuite) TestListAdmissionsFiltersByStatus() {
	suite.seedAdmission(models.AdmissionStatusPending)
	suite.seedAdmission(models.AdmissionStatusPending)
	suite.seedAdmission(models.AdmissionStatusApproved)

	pending := models.AdmissionStatusPending
	admissions, total, err := suite.service.ListAdmissions(utils.PaginationParams{Page: 1, Limit: 20}, &pending)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), int64(2), total)
	assert.Len(suite.T(), admissions, 2)
}

func TestAdmissionServiceSuite(t *testing.T) {
	suite.Run(t, new(AdmissionServiceTestSuite))
}
