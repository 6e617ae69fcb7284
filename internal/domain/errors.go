package domain

import "errors"

var (
	ErrEntityNotFound        = errors.New("entity not found")
	ErrAuthenticationFailure = errors.New("authentication failure")
	ErrAuthorization         = errors.New("not authorized")
	ErrDuplicateEntity       = errors.New("duplicate entity")
	ErrDuplicateUsername     = errors.New("username already taken")
	ErrDuplicateEmail        = errors.New("email already registered")
	ErrDuplicatePhoneNumber  = errors.New("phone number already registered")
	ErrInvalidOperation      = errors.New("invalid operation")
	ErrVehicleIsFull         = errors.New("vehicle is full")
	ErrActiveTravel          = errors.New("user has an active travel")
	ErrTravelNotCompleted    = errors.New("travel is not completed")
	ErrInvalidFeedback       = errors.New("invalid feedback")
	ErrWrongPassword         = errors.New("wrong password")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrInvalidLocation       = errors.New("invalid location")
	ErrInvalidTravel         = errors.New("invalid travel")
	ErrTokenExpired          = errors.New("verification token expired")
)

// Kind 按类别归并，传输层据此选择状态码
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindUnauthenticated
	KindBadRequest
)

var badRequest = []error{
	ErrDuplicateEntity, ErrDuplicateUsername, ErrDuplicateEmail, ErrDuplicatePhoneNumber,
	ErrInvalidOperation, ErrVehicleIsFull, ErrActiveTravel, ErrTravelNotCompleted,
	ErrInvalidFeedback, ErrWrongPassword, ErrPasswordMismatch, ErrInvalidLocation,
	ErrInvalidTravel, ErrTokenExpired,
}

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrEntityNotFound):
		return KindNotFound
	case errors.Is(err, ErrAuthenticationFailure), errors.Is(err, ErrAuthorization):
		return KindUnauthenticated
	}
	for _, e := range badRequest {
		if errors.Is(err, e) {
			return KindBadRequest
		}
	}
	return KindUnknown
}
