// internal/handlers/lock.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/opencampus/admissions-backend/internal/i18n"
	"github.com/opencampus/admissions-backend/internal/txlock"
	"github.com/opencampus/admissions-backend/internal/utils"
)

type LockHandler struct {
	locks *txlock.Service
}

func NewLockHandler(locks *txlock.Service) *LockHandler {
	return &LockHandler{locks: locks}
}

// GET /locks/status?type=finalize&transaction_id=...
//
// Lets a tab check whether one of its owner's workflow steps is currently
// held elsewhere, e.g. to disable a submit button.
func (h *LockHandler) GetLockStatus(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	transactionType := c.Query("type")
	if transactionType == "" {
		utils.BadRequestResponse(c, "Missing transaction type", nil)
		return
	}

	info := h.locks.GetLockInfo(ownerID.String(), transactionType, c.Query("transaction_id"))

	utils.SuccessResponse(c, gin.H{
		"locked": info != nil,
		"lock":   info,
	})
}

// POST /locks/extend
//
// Lets the holding tab keep a long-running step alive past the default TTL.
func (h *LockHandler) ExtendLock(c *gin.Context) {
	ownerID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		TransactionType string `json:"transaction_type" binding:"required"`
		TransactionID   string `json:"transaction_id"`
		LockID          string `json:"lock_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}

	extended := h.locks.Extend(ownerID.String(), req.TransactionType, req.TransactionID, req.LockID)

	utils.SuccessResponse(c, gin.H{
		"extended": extended,
	})
}

// DELETE /admin/locks/:ownerId
//
// Incident recovery for abandoned sessions. Admin only.
func (h *LockHandler) ForceReleaseOwnerLocks(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	ownerID := c.Param("ownerId")
	if ownerID == "" {
		utils.BadRequestResponse(c, "Missing owner ID", nil)
		return
	}

	released := h.locks.ForceReleaseOwnerLocks(ownerID)

	utils.SuccessResponse(c, gin.H{
		"released": released,
		"message":  i18n.T(lang, i18n.KeyAdminLocksReleased, released),
	})
}
