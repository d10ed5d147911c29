// internal/handlers/admission.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/opencampus/admissions-backend/internal/i18n"
	"github.com/opencampus/admissions-backend/internal/models"
	"github.com/opencampus/admissions-backend/internal/services"
	"github.com/opencampus/admissions-backend/internal/utils"
)

type AdmissionHandler struct {
	admissionService *services.AdmissionService
}

func NewAdmissionHandler(admissionService *services.AdmissionService) *AdmissionHandler {
	return &AdmissionHandler{
		admissionService: admissionService,
	}
}

// GET /admissions/me
func (h *AdmissionHandler) GetMyAdmission(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	admission, err := h.admissionService.GetMyAdmission(ownerID)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponse(c, admission)
}

// POST /admissions/accept/:token
func (h *AdmissionHandler) AcceptOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	admission, err := h.admissionService.AcceptOffer(c.Param("token"))
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, admission, gin.H{
		"message": i18n.T(lang, i18n.KeyAdmissionOfferAccepted),
	})
}

// GET /admin/admissions
func (h *AdmissionHandler) ListAdmissions(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	var status *models.AdmissionStatus
	if s := c.Query("status"); s != "" {
		st := models.AdmissionStatus(s)
		status = &st
	}

	admissions, total, err := h.admissionService.ListAdmissions(params, status)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(admissions, total, params)
	utils.PaginatedResponse(c, result)
}

// PUT /admin/admissions/:id/offer
func (h *AdmissionHandler) MakeOffer(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid admission ID", nil)
		return
	}

	admission, err := h.admissionService.MakeOffer(admissionID)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, admission, gin.H{
		"message": i18n.T(lang, i18n.KeyAdmissionOffered),
	})
}

// PUT /admin/admissions/:id/approve
func (h *AdmissionHandler) Approve(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid admission ID", nil)
		return
	}

	admission, err := h.admissionService.Approve(admissionID)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, admission, gin.H{
		"message": i18n.T(lang, i18n.KeyAdmissionApproved),
	})
}

// PUT /admin/admissions/:id/reject
func (h *AdmissionHandler) Reject(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	adminID, ok := currentUserID(c)
	if !ok {
		return
	}

	admissionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid admission ID", nil)
		return
	}

	var req services.RejectAdmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	admission, err := h.admissionService.Reject(admissionID, adminID, &req)
	if err != nil {
		mapPipelineError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, admission, gin.H{
		"message": i18n.T(lang, i18n.KeyAdmissionRejected),
	})
}
