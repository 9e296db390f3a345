// services/errors.go
package services

import "errors"

type ErrorKind string

const (
	ErrKindNotFound          ErrorKind = "not_found"
	ErrKindInvalidTransition ErrorKind = "invalid_transition"
	ErrKindValidation        ErrorKind = "validation"
	ErrKindConflict          ErrorKind = "conflict"
)

// ServiceError is a business-rule violation with a machine-distinguishable
// kind. Anything else bubbling out of a service is an infrastructure failure
// and maps to a 500 at the handler layer.
type ServiceError struct {
	Kind    ErrorKind
	Message string
}

func (e *ServiceError) Error() string {
	return e.Message
}

func NotFoundErr(msg string) error {
	return &ServiceError{Kind: ErrKindNotFound, Message: msg}
}

func InvalidTransitionErr(msg string) error {
	return &ServiceError{Kind: ErrKindInvalidTransition, Message: msg}
}

func ValidationErr(msg string) error {
	return &ServiceError{Kind: ErrKindValidation, Message: msg}
}

func ConflictErr(msg string) error {
	return &ServiceError{Kind: ErrKindConflict, Message: msg}
}

// IsKind reports whether err is a ServiceError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var svcErr *ServiceError
	return errors.As(err, &svcErr) && svcErr.Kind == kind
}
