package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches two AppErrors by code, so wrapped sentinels still compare equal.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewAppError creates a new AppError
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// BadRequest creates a 400 error
func BadRequest(message string, err error) *AppError {
	return NewAppError("BAD_REQUEST", message, http.StatusBadRequest, err)
}

// Unauthorized creates a 401 error
func Unauthorized(message string, err error) *AppError {
	return NewAppError("UNAUTHORIZED", message, http.StatusUnauthorized, err)
}

// Forbidden creates a 403 error
func Forbidden(message string, err error) *AppError {
	return NewAppError("FORBIDDEN", message, http.StatusForbidden, err)
}

// NotFound creates a 404 error
func NotFound(message string, err error) *AppError {
	return NewAppError("NOT_FOUND", message, http.StatusNotFound, err)
}

// Conflict creates a 409 error
func Conflict(message string, err error) *AppError {
	return NewAppError("CONFLICT", message, http.StatusConflict, err)
}

// Internal creates a 500 error
func Internal(message string, err error) *AppError {
	return NewAppError("INTERNAL_ERROR", message, http.StatusInternalServerError, err)
}

// ServiceUnavailable creates a 503 error
func ServiceUnavailable(message string, err error) *AppError {
	return NewAppError("SERVICE_UNAVAILABLE", message, http.StatusServiceUnavailable, err)
}

// Domain-specific errors

var (
	ErrEmployeeNotFound     = NotFound("Employee not found", nil)
	ErrRideNotFound         = NotFound("Ride not found", nil)
	ErrNotificationNotFound = NotFound("Notification not found", nil)
	ErrNotAParticipant      = NotFound("User is not a participant in this ride", nil)
	ErrLocationNotFound     = NotFound("Location not found", nil)

	ErrMissingJoinDetails = BadRequest("Pickup point, drop-off point, valid price, and number of seats must be provided", nil)
	ErrInvalidRoutePoint  = BadRequest("Invalid pickup or drop-off point. Must match the route", nil)
	ErrPickupAfterDropoff = BadRequest("Pickup point must be before drop-off point", nil)
	ErrRideNotOffered     = BadRequest("You can only join offered rides", nil)
	ErrFemaleOnly         = BadRequest("This ride is for female participants only", nil)
	ErrNotEnoughSeats     = BadRequest("Not enough seats available", nil)
	ErrOwnRide            = BadRequest("You cannot join your own ride", nil)
	ErrInvalidOffer       = BadRequest("Invalid ride offer", nil)
	ErrInvalidScore       = BadRequest("Score must be between 1 and 5", nil)
	ErrSelfRating         = BadRequest("You cannot rate yourself", nil)
	ErrInvalidRole        = BadRequest("Role must be EMPLOYEE or ADMIN", nil)
	ErrNegativeCredit     = BadRequest("Travel credit cannot be negative", nil)

	ErrAlreadyJoined = Conflict("You have already joined this ride", nil)
	ErrAlreadyRated  = Conflict("You have already submitted a rating for this user on this ride", nil)

	ErrNotRideOwner  = Forbidden("You are not authorized to cancel this ride", nil)
	ErrNotRideMember = Forbidden("You are not a member of this ride", nil)
	ErrAdminOnly     = Forbidden("Admin access required", nil)

	ErrEmptyMessage = BadRequest("Message content is required", nil)
)

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// GetAppError attempts to convert an error to AppError
func GetAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WithDetail returns a copy of appErr whose message carries extra detail,
// e.g. how many seats are left. The copy wraps appErr, so errors.Is still
// matches the original sentinel.
func WithDetail(appErr *AppError, detail string) *AppError {
	if appErr == nil {
		return nil
	}
	return &AppError{
		Code:    appErr.Code,
		Message: fmt.Sprintf("%s. %s", appErr.Message, detail),
		Status:  appErr.Status,
		Err:     appErr,
	}
}
