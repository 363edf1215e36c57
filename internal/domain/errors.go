package domain

import (
	"errors"
	"fmt"
)

// NotFoundError signals an instance-resolution miss. Bad id formats and
// missing rows are collapsed into this one outcome.
type NotFoundError struct {
	Resource string
	ID       string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	if e.ID != "" {
		return fmt.Sprintf("can't find %s: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// PermissionDeniedError signals a failed capability check.
type PermissionDeniedError struct {
	Msg string
}

func (e PermissionDeniedError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "permission denied"
}

// ValidationError carries the field-level messages of a rejected mutation.
type ValidationError struct {
	Messages []string
}

func (e ValidationError) Error() string {
	if len(e.Messages) == 0 {
		return "validation error"
	}
	return e.Messages[0]
}

// SignInRequiredError means the acting user must authenticate as one of the
// named types before the action can proceed. It may surface from inside a
// nested render and is only caught at the rendering boundary, where it turns
// into a login redirect for guests and a plain denial otherwise.
type SignInRequiredError struct {
	Models []string
	Msg    string
}

func (e SignInRequiredError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "sign in required"
}

// InternalError wraps unexpected failures from collaborators.
type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsPermissionDenied(err error) bool {
	var target PermissionDeniedError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsSignInRequired(err error) bool {
	var target SignInRequiredError
	return errors.As(err, &target)
}
