// internal/services/application_service_test.go
package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/opencampus/admissions-backend/internal/i18n"
	"github.com/opencampus/admissions-backend/internal/models"
	"github.com/opencampus/admissions-backend/internal/repository"
	"github.com/opencampus/admissions-backend/internal/txlock"
	"github.com/opencampus/admissions-backend/internal/utils"
)

// memoryRepository is an in-memory ApplicationRepository for pipeline tests.
// It mirrors the production uniqueness guarantees: one draft per owner and at
// most one admission per application id.
type memoryRepository struct {
	drafts     map[uuid.UUID]*models.ApplicationDraft
	payments   map[uuid.UUID]*models.Payment
	admissions map[uuid.UUID]*models.Admission
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		drafts:     make(map[uuid.UUID]*models.ApplicationDraft),
		payments:   make(map[uuid.UUID]*models.Payment),
		admissions: make(map[uuid.UUID]*models.Admission),
	}
}

func (r *memoryRepository) FindDraftByOwner(ownerID uuid.UUID) (*models.ApplicationDraft, error) {
	for _, draft := range r.drafts {
		if draft.OwnerID == ownerID {
			copied := *draft
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepository) FindDraftByApplicationID(applicationID uuid.UUID) (*models.ApplicationDraft, error) {
	draft, ok := r.drafts[applicationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *draft
	return &copied, nil
}

func (r *memoryRepository) SaveDraft(draft *models.ApplicationDraft) error {
	if draft.ID == uuid.Nil {
		for _, existing := range r.drafts {
			if existing.OwnerID == draft.OwnerID {
				return repository.ErrDuplicate
			}
		}
		draft.ID = uuid.New()
	}
	copied := *draft
	r.drafts[draft.ApplicationID] = &copied
	return nil
}

func (r *memoryRepository) FindPaymentByID(id uuid.UUID) (*models.Payment, error) {
	payment, ok := r.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *payment
	return &copied, nil
}

func (r *memoryRepository) SavePayment(payment *models.Payment) error {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	copied := *payment
	r.payments[payment.ID] = &copied
	return nil
}

func (r *memoryRepository) FindAdmissionByID(id uuid.UUID) (*models.Admission, error) {
	for _, admission := range r.admissions {
		if admission.ID == id {
			copied := *admission
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepository) FindAdmissionByOwner(ownerID uuid.UUID) (*models.Admission, error) {
	for _, admission := range r.admissions {
		if admission.OwnerID == ownerID {
			copied := *admission
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepository) FindAdmissionByToken(token string) (*models.Admission, error) {
	for _, admission := range r.admissions {
		if admission.ConfirmationToken == token {
			copied := *admission
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryRepository) SaveAdmission(admission *models.Admission) error {
	if admission.ID == uuid.Nil {
		admission.ID = uuid.New()
	}
	copied := *admission
	r.admissions[admission.ApplicationID] = &copied
	return nil
}

func (r *memoryRepository) ListAdmissions(params utils.PaginationParams, status *models.AdmissionStatus) ([]models.Admission, int64, error) {
	var out []models.Admission
	for _, admission := range r.admissions {
		if status != nil && admission.Status != *status {
			continue
		}
		out = append(out, *admission)
	}
	return out, int64(len(out)), nil
}

func (r *memoryRepository) Finalize(admission *models.Admission, draft *models.ApplicationDraft) error {
	if _, exists := r.admissions[admission.ApplicationID]; exists {
		return repository.ErrDuplicate
	}
	admission.ID = uuid.New()
	copied := *admission
	r.admissions[admission.ApplicationID] = &copied
	delete(r.drafts, draft.ApplicationID)
	return nil
}

// fakeGateway scripts gateway responses and counts invocations.
type fakeGateway struct {
	confirmStatus GatewayStatus
	confirmErr    error
	createErr     error
	createCalls   int
	confirmCalls  int
}

func (g *fakeGateway) CreateIntent(amount float64, currency, methodRef string, metadata map[string]string) (*PaymentIntent, error) {
	g.createCalls++
	if g.createErr != nil {
		return nil, g.createErr
	}
	return &PaymentIntent{
		GatewayReference: fmt.Sprintf("pi_test_%d", g.createCalls),
		ClientSecret:     fmt.Sprintf("pi_test_%d_secret", g.createCalls),
		Status:           GatewayStatusRequiresAction,
	}, nil
}

func (g *fakeGateway) ConfirmIntent(gatewayReference, methodRef string) (GatewayStatus, error) {
	g.confirmCalls++
	if g.confirmErr != nil {
		return GatewayStatusUnknown, g.confirmErr
	}
	return g.confirmStatus, nil
}

type ApplicationServiceTestSuite struct {
	suite.Suite
	repo    *memoryRepository
	gateway *fakeGateway
	locks   *txlock.Service
	service *ApplicationService
	ownerID uuid.UUID
	ctx     StepContext
}

func (suite *ApplicationServiceTestSuite) SetupTest() {
	suite.repo = newMemoryRepository()
	suite.gateway = &fakeGateway{confirmStatus: GatewayStatusSucceeded}
	suite.locks = txlock.NewService(txlock.DefaultTTL, time.Hour)
	suite.service = NewApplicationService(suite.repo, suite.gateway, suite.locks)
	suite.ownerID = uuid.New()
	suite.ctx = StepContext{OwnerID: suite.ownerID, TabID: "tab-a", ClientContext: "test-agent"}
}

func (suite *ApplicationServiceTestSuite) TearDownTest() {
	suite.locks.Close()
}

func (suite *ApplicationServiceTestSuite) startDraft() *models.ApplicationDraft {
	draft, err := suite.service.StartApplication(suite.ownerID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), draft)
	return draft
}

func (suite *ApplicationServiceTestSuite) initiatePayment(applicationID uuid.UUID) *PaymentIntentResponse {
	resp, err := suite.service.InitiatePayment(suite.ctx, applicationID, &InitiatePaymentRequest{
		Amount:        50.0,
		Currency:      "usd",
		PaymentMethod: "pm_card_visa",
	})
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), resp)
	return resp
}

func (suite *ApplicationServiceTestSuite) TestStartApplicationIdempotent() {
	first := suite.startDraft()
	second, err := suite.service.StartApplication(suite.ownerID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), first.ApplicationID, second.ApplicationID)
	assert.Len(suite.T(), suite.repo.drafts, 1)
}

func (suite *ApplicationServiceTestSuite) TestStartApplicationAfterAdmissionConflicts() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)

	admission, err := suite.service.FinalizeAdmission(suite.ctx, draft.ApplicationID, resp.PaymentID)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), admission)

	_, err = suite.service.StartApplication(suite.ownerID)
	assert.ErrorIs(suite.T(), err, ErrAlreadySubmitted)
}

func (suite *ApplicationServiceTestSuite) TestSaveSectionStoresDataAndMarksStep() {
	draft := suite.startDraft()

	data := models.JSONB{"first_name": "Ada", "last_name": "Lovelace"}
	updated, err := suite.service.SaveSection(suite.ctx, draft.ApplicationID, models.SectionPersonalInfo, data)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), data, updated.PersonalInfo)
	assert.True(suite.T(), updated.HasCompleted(models.SectionPersonalInfo))
	assert.False(suite.T(), suite.locks.IsLocked(suite.ownerID.String(), txlock.TypeSectionSave, draft.ApplicationID.String()))
}

func (suite *ApplicationServiceTestSuite) TestSaveSectionRejectsUnknownName() {
	draft := suite.startDraft()

	_, err := suite.service.SaveSection(suite.ctx, draft.ApplicationID, models.SectionName("hobbies"), models.JSONB{"x": 1})

	assert.ErrorIs(suite.T(), err, ErrInvalidSection)

	stored, findErr := suite.repo.FindDraftByApplicationID(draft.ApplicationID)
	require.NoError(suite.T(), findErr)
	assert.Empty(suite.T(), stored.CompletedSteps)
}

func (suite *ApplicationServiceTestSuite) TestSaveSectionDeniedWhileOtherTabHoldsLock() {
	draft := suite.startDraft()

	held := suite.locks.Acquire(txlock.AcquireRequest{
		OwnerID:         suite.ownerID.String(),
		TransactionType: txlock.TypeSectionSave,
		TransactionID:   draft.ApplicationID.String(),
		TabID:           "tab-b",
	})
	require.True(suite.T(), held.Granted)

	_, err := suite.service.SaveSection(suite.ctx, draft.ApplicationID, models.SectionPersonalInfo, models.JSONB{"x": 1})

	denied, ok := AsLockDenied(err)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), "tab-b", denied.Conflict.TabID)

	stored, findErr := suite.repo.FindDraftByApplicationID(draft.ApplicationID)
	require.NoError(suite.T(), findErr)
	assert.Empty(suite.T(), stored.CompletedSteps)
}

func (suite *ApplicationServiceTestSuite) TestInitiatePaymentCreatesIntent() {
	draft := suite.startDraft()

	resp := suite.initiatePayment(draft.ApplicationID)

	assert.Equal(suite.T(), 1, suite.gateway.createCalls)
	assert.Equal(suite.T(), string(models.PaymentStatusPending), resp.Status)
	assert.Equal(suite.T(), "pi_test_1_secret", resp.ClientSecret)

	payment, err := suite.repo.FindPaymentByID(resp.PaymentID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "pi_test_1", payment.ExternalReference)
	assert.Equal(suite.T(), suite.ownerID, payment.OwnerID)
	assert.False(suite.T(), payment.Reconciled())
}

func (suite *ApplicationServiceTestSuite) TestInitiatePaymentValidatesRequest() {
	draft := suite.startDraft()

	_, err := suite.service.InitiatePayment(suite.ctx, draft.ApplicationID, &InitiatePaymentRequest{
		Amount: 0,
	})

	assert.ErrorIs(suite.T(), err, ErrPaymentProcessing)
	assert.Equal(suite.T(), 0, suite.gateway.createCalls)
}

func (suite *ApplicationServiceTestSuite) TestConfirmPaymentSucceeded() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)

	result, err := suite.service.ConfirmPayment(suite.ctx, resp.PaymentID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PaymentStatusCompleted, result.Payment.Status)
	assert.Equal(suite.T(), i18n.KeyPaymentSuccess, result.MessageKey)
	assert.NotNil(suite.T(), result.Payment.ProcessedAt)
	assert.True(suite.T(), result.Payment.Reconciled())
}

func (suite *ApplicationServiceTestSuite) TestConfirmPaymentRequiresAction() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)
	suite.gateway.confirmStatus = GatewayStatusRequiresAction

	result, err := suite.service.ConfirmPayment(suite.ctx, resp.PaymentID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PaymentStatusPending, result.Payment.Status)
	assert.Equal(suite.T(), i18n.KeyPaymentRequiresAction, result.MessageKey)
	assert.True(suite.T(), result.Payment.Reconciled())
}

func (suite *ApplicationServiceTestSuite) TestConfirmPaymentFailureMapsToFailed() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)
	suite.gateway.confirmStatus = GatewayStatusRequiresPaymentMethod

	result, err := suite.service.ConfirmPayment(suite.ctx, resp.PaymentID)

	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.PaymentStatusFailed, result.Payment.Status)
	assert.Equal(suite.T(), i18n.KeyPaymentFailed, result.MessageKey)
}

func (suite *ApplicationServiceTestSuite) TestConfirmPaymentUnknownIDNotFound() {
	_, err := suite.service.ConfirmPayment(suite.ctx, uuid.New())
	assert.ErrorIs(suite.T(), err, ErrPaymentNotFound)
}

func (suite *ApplicationServiceTestSuite) TestFullPipelineHappyPath() {
	draft := suite.startDraft()

	for _, section := range models.AllSections {
		_, err := suite.service.SaveSection(suite.ctx, draft.ApplicationID, section, models.JSONB{"filled": true})
		require.NoError(suite.T(), err)
	}

	resp := suite.initiatePayment(draft.ApplicationID)

	confirm, err := suite.service.ConfirmPayment(suite.ctx, resp.PaymentID)
	require.NoError(suite.T(), err)
	require.Equal(suite.T(), models.PaymentStatusCompleted, confirm.Payment.Status)

	admission, err := suite.service.FinalizeAdmission(suite.ctx, draft.ApplicationID, resp.PaymentID)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), draft.ApplicationID, admission.ApplicationID)
	assert.Equal(suite.T(), suite.ownerID, admission.OwnerID)
	assert.Equal(suite.T(), models.AdmissionStatusPending, admission.Status)
	assert.Equal(suite.T(), models.JSONB{"filled": true}, admission.PersonalInfo)
	assert.Len(suite.T(), admission.CompletedSteps, len(models.AllSections))

	// The draft is gone; the application now exists only as an admission.
	_, err = suite.repo.FindDraftByApplicationID(draft.ApplicationID)
	assert.ErrorIs(suite.T(), err, repository.ErrNotFound)
}

func (suite *ApplicationServiceTestSuite) TestFinalizeSecondAttemptRejected() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)

	_, err := suite.service.FinalizeAdmission(suite.ctx, draft.ApplicationID, resp.PaymentID)
	require.NoError(suite.T(), err)

	_, err = suite.service.FinalizeAdmission(suite.ctx, draft.ApplicationID, resp.PaymentID)
	assert.ErrorIs(suite.T(), err, ErrApplicationNotFound)
	assert.Len(suite.T(), suite.repo.admissions, 1)
}

func (suite *ApplicationServiceTestSuite) TestFinalizeCompletesUnreconciledPendingPayment() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)

	confirmCallsBefore := suite.gateway.confirmCalls
	admission, err := suite.service.FinalizeAdmission(suite.ctx, draft.ApplicationID, resp.PaymentID)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), admission)
	assert.Equal(suite.T(), confirmCallsBefore, suite.gateway.confirmCalls)

	payment, findErr := suite.repo.FindPaymentByID(resp.PaymentID)
	require.NoError(suite.T(), findErr)
	assert.Equal(suite.T(), models.PaymentStatusCompleted, payment.Status)
	assert.Equal(suite.T(), models.PaymentCompletedViaFinalize, payment.Metadata[models.PaymentMetaCompletedVia])
}

func (suite *ApplicationServiceTestSuite) TestFinalizeRefusesGatewayStalledPayment() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)

	suite.gateway.confirmStatus = GatewayStatusRequiresAction
	_, err := suite.service.ConfirmPayment(suite.ctx, resp.PaymentID)
	require.NoError(suite.T(), err)

	confirmCallsBefore := suite.gateway.confirmCalls
	_, err = suite.service.FinalizeAdmission(suite.ctx, draft.ApplicationID, resp.PaymentID)

	assert.ErrorIs(suite.T(), err, ErrFinalizationFailed)
	// No second gateway round trip, and no admission created.
	assert.Equal(suite.T(), confirmCallsBefore, suite.gateway.confirmCalls)
	assert.Empty(suite.T(), suite.repo.admissions)
	_, findErr := suite.repo.FindDraftByApplicationID(draft.ApplicationID)
	assert.NoError(suite.T(), findErr)
}

func (suite *ApplicationServiceTestSuite) TestFinalizeRefusesFailedPayment() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)

	suite.gateway.confirmStatus = GatewayStatusRequiresPaymentMethod
	_, err := suite.service.ConfirmPayment(suite.ctx, resp.PaymentID)
	require.NoError(suite.T(), err)

	_, err = suite.service.FinalizeAdmission(suite.ctx, draft.ApplicationID, resp.PaymentID)
	assert.ErrorIs(suite.T(), err, ErrFinalizationFailed)
}

func (suite *ApplicationServiceTestSuite) TestFinalizeRejectsForeignPayment() {
	draft := suite.startDraft()

	stranger := &models.Payment{
		ApplicationID: uuid.New(),
		OwnerID:       uuid.New(),
		Amount:        50.0,
		Currency:      "usd",
		Status:        models.PaymentStatusCompleted,
	}
	require.NoError(suite.T(), suite.repo.SavePayment(stranger))

	_, err := suite.service.FinalizeAdmission(suite.ctx, draft.ApplicationID, stranger.ID)

	assert.ErrorIs(suite.T(), err, ErrPaymentMismatch)
	assert.Empty(suite.T(), suite.repo.admissions)
}

func (suite *ApplicationServiceTestSuite) TestFinalizeMissingIDsRejected() {
	_, err := suite.service.FinalizeAdmission(suite.ctx, uuid.Nil, uuid.New())
	assert.ErrorIs(suite.T(), err, ErrFinalizationFailed)

	_, err = suite.service.FinalizeAdmission(suite.ctx, uuid.New(), uuid.Nil)
	assert.ErrorIs(suite.T(), err, ErrFinalizationFailed)
}

func (suite *ApplicationServiceTestSuite) TestFinalizeDeniedWhileOtherTabHoldsLock() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)

	held := suite.locks.Acquire(txlock.AcquireRequest{
		OwnerID:         suite.ownerID.String(),
		TransactionType: txlock.TypeFinalize,
		TransactionID:   draft.ApplicationID.String(),
		TabID:           "tab-b",
	})
	require.True(suite.T(), held.Granted)

	_, err := suite.service.FinalizeAdmission(suite.ctx, draft.ApplicationID, resp.PaymentID)

	_, ok := AsLockDenied(err)
	assert.True(suite.T(), ok)
	assert.Empty(suite.T(), suite.repo.admissions)
}

func (suite *ApplicationServiceTestSuite) TestPipelineRejectsForeignOwner() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)

	// The real owner's tab holds the section-save lock; the stranger's
	// attempts must fail on ownership, not slip past on their own lock key.
	held := suite.locks.Acquire(txlock.AcquireRequest{
		OwnerID:         suite.ownerID.String(),
		TransactionType: txlock.TypeSectionSave,
		TransactionID:   draft.ApplicationID.String(),
		TabID:           "tab-a",
	})
	require.True(suite.T(), held.Granted)

	stranger := StepContext{OwnerID: uuid.New(), TabID: "tab-x"}

	_, err := suite.service.SaveSection(stranger, draft.ApplicationID, models.SectionPersonalInfo, models.JSONB{"first_name": "Mallory"})
	assert.ErrorIs(suite.T(), err, ErrApplicationNotFound)

	_, err = suite.service.InitiatePayment(stranger, draft.ApplicationID, &InitiatePaymentRequest{
		Amount:        50.0,
		PaymentMethod: "pm_card_visa",
	})
	assert.ErrorIs(suite.T(), err, ErrApplicationNotFound)

	_, err = suite.service.ConfirmPayment(stranger, resp.PaymentID)
	assert.ErrorIs(suite.T(), err, ErrPaymentNotFound)

	_, err = suite.service.FinalizeAdmission(stranger, draft.ApplicationID, resp.PaymentID)
	assert.ErrorIs(suite.T(), err, ErrApplicationNotFound)

	// Nothing changed for the real owner: draft untouched, one payment, no
	// admission, no extra gateway intent.
	stored, findErr := suite.repo.FindDraftByApplicationID(draft.ApplicationID)
	require.NoError(suite.T(), findErr)
	assert.Empty(suite.T(), stored.CompletedSteps)
	assert.Nil(suite.T(), stored.PersonalInfo)
	assert.Empty(suite.T(), suite.repo.admissions)
	assert.Len(suite.T(), suite.repo.payments, 1)
	assert.Equal(suite.T(), 1, suite.gateway.createCalls)
	assert.Equal(suite.T(), 0, suite.gateway.confirmCalls)

	payment, findErr := suite.repo.FindPaymentByID(resp.PaymentID)
	require.NoError(suite.T(), findErr)
	assert.Equal(suite.T(), models.PaymentStatusPending, payment.Status)
}

func (suite *ApplicationServiceTestSuite) TestConfirmPaymentGatewayErrorKeepsPendingLockFree() {
	draft := suite.startDraft()
	resp := suite.initiatePayment(draft.ApplicationID)
	suite.gateway.confirmErr = errors.New("gateway unreachable")

	_, err := suite.service.ConfirmPayment(suite.ctx, resp.PaymentID)
	assert.ErrorIs(suite.T(), err, ErrPaymentProcessing)

	// Lock released despite the failure, so a retry is not self-blocked.
	assert.False(suite.T(), suite.locks.IsLocked(suite.ownerID.String(), txlock.TypePaymentConfirm, resp.PaymentID.String()))

	payment, findErr := suite.repo.FindPaymentByID(resp.PaymentID)
	require.NoError(suite.T(), findErr)
	assert.Equal(suite.T(), models.PaymentStatusPending, payment.Status)
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceTestSuite))
}
