package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIP       = errors.New("invalid IP address")
	ErrInvalidDomain   = errors.New("invalid domain")
	ErrInvalidType     = errors.New("invalid type")
	ErrEmptyValue      = errors.New("empty value")
	ErrRequired        = errors.New("required field missing")
	ErrInvalidArgument = errors.New("invalid argument")

	ErrVariableNotFound     = errors.New("variable not found")
	ErrTemplateParse        = errors.New("template parse failed")
	ErrDuplicateZoneAddress = errors.New("more than one zone address record")

	ErrConfigReadFailed   = errors.New("config read failed")
	ErrConfigParseFailed  = errors.New("config parse failed")
	ErrConfigValidateFail = errors.New("config validation failed")
	ErrConfigNotLoaded    = errors.New("config not loaded")
	ErrTokenReadFailed    = errors.New("token read failed")

	ErrStateReadFailed    = errors.New("state read failed")
	ErrStateWriteFailed   = errors.New("state write failed")
	ErrStateSerializeFail = errors.New("state serialization failed")
	ErrStateNotFound      = errors.New("state not found")

	ErrLocked = errors.New("another run holds the lock")

	ErrProvider       = errors.New("DNS provider operation failed")
	ErrZoneNotFound   = errors.New("DNS zone not found")
	ErrRetryExhausted = errors.New("retry limit reached")
)

func RequiredField(field string) error {
	return fmt.Errorf("%w: %s", ErrRequired, field)
}

func WrapOp(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}

func WrapEntity(entity, name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s[%s]: %w", entity, name, err)
}

type OpError struct {
	Op    string
	Cause error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

func (e *OpError) Unwrap() error {
	return e.Cause
}

func NewOpError(op string, cause error) error {
	return &OpError{Op: op, Cause: cause}
}
