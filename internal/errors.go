package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrCodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	ErrCodeCommentRequired  ErrorCode = "COMMENT_REQUIRED"

	ErrCodeApprovalNotFound     ErrorCode = "APPROVAL_NOT_FOUND"
	ErrCodeNotDecidable         ErrorCode = "NOT_DECIDABLE"
	ErrCodeInstallmentMismatch  ErrorCode = "INSTALLMENT_SUM_MISMATCH"
	ErrCodePaymentTypeRequired  ErrorCode = "PAYMENT_TYPE_REQUIRED"
	ErrCodeTicketNotFound       ErrorCode = "TICKET_NOT_FOUND"
	ErrCodeItemNotFound         ErrorCode = "ITEM_NOT_FOUND"
	ErrCodeCaseNotFound         ErrorCode = "CASE_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeDuplicateSerial      ErrorCode = "DUPLICATE_SERIAL_NUMBER"
	ErrCodeDuplicateEmail       ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeUserOwnsRecords      ErrorCode = "USER_OWNS_RECORDS"
	ErrCodeCannotDeleteSelf     ErrorCode = "CANNOT_DELETE_SELF"
	ErrCodeUnknownEntity        ErrorCode = "UNKNOWN_ENTITY"
	ErrCodeInvalidStatusChange  ErrorCode = "INVALID_STATUS_CHANGE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) WithCause(cause error) *AppError {
	clone := *e
	clone.Cause = cause
	return &clone
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// FieldErrorMap flattens validation details into the per-field error map the
// action result envelope exposes to callers.
func (e *AppError) FieldErrorMap() map[string]string {
	details, ok := e.Details.(ValidationErrors)
	if !ok || len(details.Errors) == 0 {
		return nil
	}
	m := make(map[string]string, len(details.Errors))
	for _, ve := range details.Errors {
		if _, seen := m[ve.Field]; !seen {
			m[ve.Field] = ve.Message
		}
	}
	return m
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       ErrCodeValidationFailed,
		Message:    "validation failed",
		StatusCode: http.StatusBadRequest,
		Details: ValidationErrors{
			Errors: []ValidationError{
				{Field: field, Message: message, Code: string(code)},
			},
		},
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrApprovalNotFound = NewNotFoundError("approval request not found", ErrCodeApprovalNotFound)
	ErrNotDecidable     = NewConflictError("approval request is not in a decidable state", ErrCodeNotDecidable)
	ErrTicketNotFound   = NewNotFoundError("ticket not found", ErrCodeTicketNotFound)
	ErrItemNotFound     = NewNotFoundError("inventory item not found", ErrCodeItemNotFound)
	ErrCaseNotFound     = NewNotFoundError("maintenance case not found", ErrCodeCaseNotFound)
	ErrUserNotFound     = NewNotFoundError("user not found", ErrCodeUserNotFound)

	ErrDuplicateSerial  = NewConflictError("an inventory item with this serial number already exists", ErrCodeDuplicateSerial)
	ErrDuplicateEmail   = NewConflictError("a user with this email already exists", ErrCodeDuplicateEmail)
	ErrUserOwnsRecords  = NewConflictError("user cannot be deleted while owning tickets, comments or approval requests", ErrCodeUserOwnsRecords)
	ErrCannotDeleteSelf = NewForbiddenError("you cannot delete your own account", ErrCodeCannotDeleteSelf)
)

func IsAppError(err error) (*AppError, bool) {
	if appErr, ok := err.(*AppError); ok {
		return appErr, true
	}
	return nil, false
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
