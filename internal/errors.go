package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
	ErrorTypeExternal     ErrorType = "EXTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidationFailed   ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidEmpID       ErrorCode = "INVALID_EMP_ID"
	ErrCodeInvalidEmail       ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidSeverity    ErrorCode = "INVALID_SEVERITY"
	ErrCodeInvalidStatus      ErrorCode = "INVALID_STATUS"
	ErrCodeInvalidDepartment  ErrorCode = "INVALID_DEPARTMENT"
	ErrCodeInvalidRole        ErrorCode = "INVALID_ROLE"
	ErrCodeInvalidTransition  ErrorCode = "INVALID_STATUS_TRANSITION"
	ErrCodeComplaintClosed    ErrorCode = "COMPLAINT_CLOSED"
	ErrCodeIncorrectPassword  ErrorCode = "INCORRECT_PASSWORD"
	ErrCodeCannotDeleteSelf   ErrorCode = "CANNOT_DELETE_SELF"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken       ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenExpired       ErrorCode = "TOKEN_EXPIRED"
	ErrCodeMissingToken       ErrorCode = "MISSING_TOKEN"

	ErrCodeAccessDenied  ErrorCode = "ACCESS_DENIED"
	ErrCodeRoleImmutable ErrorCode = "ROLE_IMMUTABLE"

	ErrCodeComplaintNotFound    ErrorCode = "COMPLAINT_NOT_FOUND"
	ErrCodeComplaintNotInDept   ErrorCode = "COMPLAINT_NOT_IN_DEPARTMENT"
	ErrCodeTaskNotFound         ErrorCode = "TASK_NOT_FOUND"
	ErrCodeDepartmentNotFound   ErrorCode = "DEPARTMENT_NOT_FOUND"
	ErrCodeRoleNotFound         ErrorCode = "ROLE_NOT_FOUND"
	ErrCodeUserNotFound         ErrorCode = "USER_NOT_FOUND"
	ErrCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrCodeSubscriptionNotFound ErrorCode = "SUBSCRIPTION_NOT_FOUND"

	ErrCodeTaskExists       ErrorCode = "TASK_EXISTS"
	ErrCodeDepartmentExists ErrorCode = "DEPARTMENT_EXISTS"
	ErrCodeDepartmentInUse  ErrorCode = "DEPARTMENT_IN_USE"
	ErrCodeRoleExists       ErrorCode = "ROLE_EXISTS"
	ErrCodeRoleInUse        ErrorCode = "ROLE_IN_USE"
	ErrCodeEmailTaken       ErrorCode = "EMAIL_TAKEN"
	ErrCodeEmpIDTaken       ErrorCode = "EMP_ID_TAKEN"
	ErrCodeSubadminExists   ErrorCode = "SUBADMIN_EXISTS"
	ErrCodeUserInUse        ErrorCode = "USER_IN_USE"
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
	if e.Details != nil {
		if validationErrors, ok := e.Details.(ValidationErrors); ok && len(validationErrors.Errors) > 0 {
			return validationErrors.Errors[0].Message
		}
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) GetDetailedMessage() string {
	if msgs := e.Messages(); len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	return e.Message
}

// Messages returns the per-field validation messages, if any.
func (e *AppError) Messages() []string {
	validationErrors, ok := e.Details.(ValidationErrors)
	if !ok {
		return nil
	}
	messages := make([]string, len(validationErrors.Errors))
	for i, err := range validationErrors.Errors {
		messages[i] = err.Message
	}
	return messages
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on error code so wrapped copies of the sentinels below compare equal.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Type == t.Type
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

func newError(t ErrorType, status int, code ErrorCode, message string) *AppError {
	return &AppError{Type: t, Code: code, Message: message, StatusCode: status}
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, code, message)
}

// NewValidationFieldError reports a single bad field under the generic
// validation code; the field's own code travels in Details.
func NewValidationFieldError(field, message string, code ErrorCode) *AppError {
	return newError(ErrorTypeValidation, http.StatusBadRequest, ErrCodeValidationFailed, "Validation failed").
		WithDetails(ValidationErrors{Errors: []ValidationError{{Field: field, Message: message, Code: string(code)}}})
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeNotFound, http.StatusNotFound, code, message)
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeUnauthorized, http.StatusUnauthorized, code, message)
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeForbidden, http.StatusForbidden, code, message)
}

func NewInternalError(message string, cause error) *AppError {
	return newError(ErrorTypeInternal, http.StatusInternalServerError, ErrCodeInternal, message).WithCause(cause)
}

// NewConflictError reports duplicates. Clients of this API expect 400 for these.
func NewConflictError(message string, code ErrorCode) *AppError {
	return newError(ErrorTypeConflict, http.StatusBadRequest, code, message)
}

var (
	ErrInvalidCredentials = NewUnauthorizedError("Invalid email or password", ErrCodeInvalidCredentials)
	ErrInvalidToken       = NewUnauthorizedError("Invalid token", ErrCodeInvalidToken)
	ErrTokenExpired       = NewUnauthorizedError("Token has expired", ErrCodeTokenExpired)
	ErrMissingToken       = NewUnauthorizedError("Authentication required", ErrCodeMissingToken)

	ErrAccessDenied  = NewForbiddenError("Access denied", ErrCodeAccessDenied)
	ErrRoleImmutable = NewForbiddenError("Superadmin role cannot be modified", ErrCodeRoleImmutable)

	ErrComplaintNotFound        = NewNotFoundError("Complaint not found", ErrCodeComplaintNotFound)
	ErrComplaintNotInDepartment = NewNotFoundError("Complaint not found or not in your department", ErrCodeComplaintNotInDept)
	ErrTaskNotFound             = NewNotFoundError("Task not found", ErrCodeTaskNotFound)
	ErrDepartmentNotFound       = NewNotFoundError("Department not found", ErrCodeDepartmentNotFound)
	ErrRoleNotFound             = NewNotFoundError("Role not found", ErrCodeRoleNotFound)
	ErrUserNotFound             = NewNotFoundError("User not found", ErrCodeUserNotFound)
	ErrNotificationNotFound     = NewNotFoundError("Notification not found", ErrCodeNotificationNotFound)
	ErrSubscriptionNotFound     = NewNotFoundError("Subscription not found", ErrCodeSubscriptionNotFound)

	ErrComplaintClosed         = NewValidationError("Complaint is already closed", ErrCodeComplaintClosed)
	ErrInvalidStatusTransition = NewValidationError("Invalid status transition", ErrCodeInvalidTransition)
	ErrIncorrectPassword       = NewValidationError("Current password is incorrect", ErrCodeIncorrectPassword)
	ErrCannotDeleteSelf        = NewValidationError("You cannot delete your own account", ErrCodeCannotDeleteSelf)

	ErrTaskExists       = NewConflictError("Task already exists", ErrCodeTaskExists)
	ErrDepartmentExists = NewConflictError("Department already exists", ErrCodeDepartmentExists)
	ErrDepartmentInUse  = NewConflictError("Department is in use by users or complaints", ErrCodeDepartmentInUse)
	ErrRoleExists       = NewConflictError("Role already exists", ErrCodeRoleExists)
	ErrRoleInUse        = NewConflictError("Role is assigned to users", ErrCodeRoleInUse)
	ErrEmailTaken       = NewConflictError("Email already registered", ErrCodeEmailTaken)
	ErrEmpIDTaken       = NewConflictError("Employee ID already registered", ErrCodeEmpIDTaken)
	ErrSubadminExists   = NewConflictError("Department already has a subadmin", ErrCodeSubadminExists)
	ErrUserInUse        = NewConflictError("User has complaints or tasks on record", ErrCodeUserInUse)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
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
