// internal/handlers/application.go
package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opencampus/admissions-backend/internal/config"
	"github.com/opencampus/admissions-backend/internal/i18n"
	"github.com/opencampus/admissions-backend/internal/models"
	"github.com/opencampus/admissions-backend/internal/services"
	"github.com/opencampus/admissions-backend/internal/utils"
)

type ApplicationHandler struct {
	applicationService *services.ApplicationService
	storageService     *services.StorageService
	config             *config.Config
}

func NewApplicationHandler(applicationService *services.ApplicationService, storageService *services.StorageService, cfg *config.Config) *ApplicationHandler {
	return &ApplicationHandler{
		applicationService: applicationService,
		storageService:     storageService,
		config:             cfg,
	}
}

type saveSectionRequest struct {
	Data map[string]interface{} `json:"data" binding:"required"`
}

type finalizeRequest struct {
	PaymentID uuid.UUID `json:"payment_id" binding:"required"`
}

// POST /applications
func (h *ApplicationHandler) StartApplication(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, err := h.applicationService.StartApplication(ownerID)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, draft, gin.H{
		"message": i18n.T(lang, i18n.KeyApplicationStarted),
	})
}

// GET /applications/me
func (h *ApplicationHandler) GetMyApplication(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	draft, err := h.applicationService.GetDraft(ownerID)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponse(c, draft)
}

// PUT /applications/:id/sections/:section
func (h *ApplicationHandler) SaveSection(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	ctx, ok := currentStepContext(c)
	if !ok {
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application ID", nil)
		return
	}

	var req saveSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	section := models.SectionName(c.Param("section"))
	draft, err := h.applicationService.SaveSection(ctx, applicationID, section, models.JSONB(req.Data))
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, draft, gin.H{
		"message": i18n.T(lang, i18n.KeyApplicationSectionSaved),
	})
}

// POST /applications/:id/documents
func (h *ApplicationHandler) UploadDocument(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	ctx, ok := currentStepContext(c)
	if !ok {
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application ID", nil)
		return
	}

	file, header, err := c.Request.FormFile("document")
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "document"), nil)
		return
	}
	defer file.Close()

	ref, err := h.storageService.UploadDocument(ctx.OwnerID, file, header)
	if err != nil {
		utils.BadRequestResponse(c, err.Error(), nil)
		return
	}

	// Append the reference to the documents section through the ordinary
	// lock-guarded save path.
	draft, err := h.applicationService.GetDraft(ctx.OwnerID)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	documents := draft.Documents
	if documents == nil {
		documents = models.JSONB{}
	}
	uploads, _ := documents["uploads"].([]interface{})
	documents["uploads"] = append(uploads, map[string]interface{}(ref.AsSectionEntry()))

	if _, err := h.applicationService.SaveSection(ctx, applicationID, models.SectionDocuments, documents); err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, ref, gin.H{
		"message": i18n.T(lang, i18n.KeyDocumentUploaded),
	})
}

// POST /applications/:id/payments
func (h *ApplicationHandler) InitiatePayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	ctx, ok := currentStepContext(c)
	if !ok {
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application ID", nil)
		return
	}

	var req services.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	// The application fee is fixed server-side; clients only choose the method.
	if req.Amount == 0 {
		req.Amount = h.config.Payment.ApplicationFee
	}
	if req.Currency == "" {
		req.Currency = h.config.Payment.Currency
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	response, err := h.applicationService.InitiatePayment(ctx, applicationID, &req)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponse(c, response)
}

// GET /payments/config
//
// What the payment form needs before it can render: the publishable key and
// the fixed application fee.
func (h *ApplicationHandler) GetPaymentConfig(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"publishable_key": h.config.Payment.StripePublishableKey,
		"amount":          h.config.Payment.ApplicationFee,
		"currency":        h.config.Payment.Currency,
	})
}

// POST /payments/:id/confirm
func (h *ApplicationHandler) ConfirmPayment(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	ctx, ok := currentStepContext(c)
	if !ok {
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid payment ID", nil)
		return
	}

	result, err := h.applicationService.ConfirmPayment(ctx, paymentID)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, result.Payment, gin.H{
		"message": i18n.T(lang, result.MessageKey),
	})
}

// POST /applications/:id/finalize
func (h *ApplicationHandler) FinalizeAdmission(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	ctx, ok := currentStepContext(c)
	if !ok {
		return
	}

	applicationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid application ID", nil)
		return
	}

	var req finalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	admission, err := h.applicationService.FinalizeAdmission(ctx, applicationID, req.PaymentID)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, admission, gin.H{
		"message": i18n.T(lang, i18n.KeyApplicationSubmitted),
	})
}

// mapPipelineError translates a typed pipeline error onto the API envelope,
// one error kind per status so clients can render each case distinctly.
func mapPipelineError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	if denied, ok := services.AsLockDenied(err); ok {
		utils.LockedResponse(c, denied.Conflict)
		return
	}

	switch {
	case errors.Is(err, services.ErrInvalidSection):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyApplicationInvalidStep), nil)
	case errors.Is(err, services.ErrApplicationNotFound):
		utils.NotFoundResponse(c, "application")
	case errors.Is(err, services.ErrPaymentNotFound):
		utils.NotFoundResponse(c, "payment")
	case errors.Is(err, services.ErrAdmissionNotFound):
		utils.NotFoundResponse(c, "admission")
	case errors.Is(err, services.ErrPaymentMismatch):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyPaymentMismatch))
	case errors.Is(err, services.ErrAlreadySubmitted):
		utils.ConflictResponse(c, i18n.T(lang, i18n.KeyAdmissionExists))
	case errors.Is(err, services.ErrInvalidToken):
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyAdmissionTokenInvalid), nil)
	case errors.Is(err, services.ErrInvalidStatusTransition):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrPaymentProcessing),
		errors.Is(err, services.ErrFinalizationFailed):
		utils.BadRequestResponse(c, err.Error(), nil)
	default:
		utils.InternalErrorResponse(c, err.Error())
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDStr, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid user ID", nil)
		return uuid.Nil, false
	}

	return userID, true
}

// currentStepContext builds the lock attribution for a pipeline step from
// the request: the authenticated user, the tab id header, and the user agent.
func currentStepContext(c *gin.Context) (services.StepContext, bool) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return services.StepContext{}, false
	}

	return services.StepContext{
		OwnerID:       ownerID,
		TabID:         c.GetHeader("X-Tab-ID"),
		ClientContext: c.Request.UserAgent(),
	}, true
}
