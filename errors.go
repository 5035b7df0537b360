package wiki

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies domain failures. HTTPStatus maps each kind to a
// response code.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindDatabase         ErrorKind = "database"
	KindNotFound         ErrorKind = "not_found"
	KindUpdate           ErrorKind = "update"
	KindDeletion         ErrorKind = "deletion"
	KindAuthentication   ErrorKind = "authentication"
	KindInvalidToken     ErrorKind = "invalid_token"
	KindUsernameNotFound ErrorKind = "username_not_found"
	KindUserNotFound     ErrorKind = "user_not_found"
	KindInactiveUser     ErrorKind = "inactive_user"
	KindPasswordMismatch ErrorKind = "password_mismatch"
)

// Error is the domain error type. Message is safe to show to clients, Err
// holds the internal cause and is only ever logged.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind, so the sentinels below work with
// errors.Is regardless of message.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Detail is the client facing reason.
func (e *Error) Detail() string {
	return e.Message
}

var (
	ErrValidation       = &Error{Kind: KindValidation, Message: "validation error"}
	ErrDatabase         = &Error{Kind: KindDatabase, Message: "database error"}
	ErrNotFound         = &Error{Kind: KindNotFound, Message: "not found"}
	ErrUpdate           = &Error{Kind: KindUpdate, Message: "update failed"}
	ErrDeletion         = &Error{Kind: KindDeletion, Message: "deletion failed"}
	ErrAuthentication   = &Error{Kind: KindAuthentication, Message: "Incorrect username or password"}
	ErrInvalidToken     = &Error{Kind: KindInvalidToken, Message: "Could not validate credentials"}
	ErrUsernameNotFound = &Error{Kind: KindUsernameNotFound, Message: "Token does not contain a valid username"}
	ErrUserNotFound     = &Error{Kind: KindUserNotFound, Message: "User not found"}
	ErrInactiveUser     = &Error{Kind: KindInactiveUser, Message: "Inactive user"}
	ErrPasswordMismatch = &Error{Kind: KindPasswordMismatch, Message: "Passwords do not match"}
)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = errors.New("password can't be an empty string")

// ErrMismatchedHashAndPassword is returned when the password does not match the hash
var ErrMismatchedHashAndPassword = errors.New("password does not match hash")

// NewValidationError prefixes detail the way clients expect it.
func NewValidationError(detail string, cause error) *Error {
	return &Error{Kind: KindValidation, Message: "Validation error: " + detail, Err: cause}
}

// NewDatabaseError prefixes detail the way clients expect it.
func NewDatabaseError(detail string, cause error) *Error {
	return &Error{Kind: KindDatabase, Message: "Database error: " + detail, Err: cause}
}

func NewNotFoundError(detail string) *Error {
	return &Error{Kind: KindNotFound, Message: detail}
}

func NewUpdateError(detail string) *Error {
	return &Error{Kind: KindUpdate, Message: detail}
}

func NewDeletionError(detail string) *Error {
	return &Error{Kind: KindDeletion, Message: detail}
}

// NewAuthenticationError never carries detail, only the cause for logs.
func NewAuthenticationError(cause error) *Error {
	return &Error{Kind: KindAuthentication, Message: ErrAuthentication.Message, Err: cause}
}

func NewInvalidTokenError(cause error) *Error {
	return &Error{Kind: KindInvalidToken, Message: ErrInvalidToken.Message, Err: cause}
}

// HTTPStatus maps err to a response code. Unknown errors are 500.
func HTTPStatus(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}

	switch e.Kind {
	case KindValidation, KindInactiveUser:
		return http.StatusBadRequest
	case KindNotFound, KindUpdate, KindDeletion, KindUserNotFound:
		return http.StatusNotFound
	case KindAuthentication, KindInvalidToken, KindUsernameNotFound:
		return http.StatusUnauthorized
	case KindPasswordMismatch:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// IsAuthChallenge reports whether the response for err must carry a
// WWW-Authenticate header.
func IsAuthChallenge(err error) bool {
	return HTTPStatus(err) == http.StatusUnauthorized
}
