// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenExpired       = "auth.token_expired"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLoginSuccess       = "auth.login_success"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyUserNotFound           = "user.not_found"

	// Applications
	KeyApplicationStarted      = "application.started"
	KeyApplicationNotFound     = "application.not_found"
	KeyApplicationSectionSaved = "application.section_saved"
	KeyApplicationInvalidStep  = "application.invalid_section"
	KeyApplicationSubmitted    = "application.submitted"
	KeyApplicationLocked       = "application.locked"

	// Payments
	KeyPaymentSuccess         = "payment.success"
	KeyPaymentFailed          = "payment.failed"
	KeyPaymentPending         = "payment.pending"
	KeyPaymentRequiresAction  = "payment.requires_action"
	KeyPaymentNotFound        = "payment.not_found"
	KeyPaymentMismatch        = "payment.mismatch"
	KeyPaymentInvalidAmount   = "payment.invalid_amount"
	KeyPaymentMethodRequired  = "payment.method_required"
	KeyPaymentAlreadyReceived = "payment.already_received"

	// Admissions
	KeyAdmissionCreated       = "admission.created"
	KeyAdmissionNotFound      = "admission.not_found"
	KeyAdmissionExists        = "admission.already_submitted"
	KeyAdmissionOffered       = "admission.offered"
	KeyAdmissionApproved      = "admission.approved"
	KeyAdmissionRejected      = "admission.rejected"
	KeyAdmissionTokenInvalid  = "admission.token_invalid"
	KeyAdmissionOfferAccepted = "admission.offer_accepted"

	// Documents
	KeyDocumentUploaded  = "document.uploaded"
	KeyDocumentTooLarge  = "document.too_large"
	KeyDocumentBadFormat = "document.bad_format"

	// Admin
	KeyAdminActionSuccess = "admin.action_success"
	KeyAdminAccessDenied  = "admin.access_denied"
	KeyAdminLocksReleased = "admin.locks_released"

	// Validation
	KeyValidationRequired = "validation.required"
	KeyValidationInvalid  = "validation.invalid"
)
