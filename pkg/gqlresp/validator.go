package gqlresp

import (
	"errors"
	"fmt"
)

var (
	// ErrQueryErrors is returned when a response carries GraphQL errors.
	ErrQueryErrors = errors.New("response contains errors")

	// ErrNoData is returned when a response has no data member.
	ErrNoData = errors.New("response has no data")
)

// Validator validates GraphQL responses.
type Validator interface {
	Validate(label string, resp *Response) error
}

// ErrorValidator fails if the response contains any GraphQL error.
type ErrorValidator struct{}

// Validate checks if the response has GraphQL errors.
func (v *ErrorValidator) Validate(_ string, resp *Response) error {
	if len(resp.Errors) == 0 {
		return nil
	}

	if len(resp.Errors) == 1 {
		return fmt.Errorf("%w: %s", ErrQueryErrors, resp.Errors[0].Message)
	}

	return fmt.Errorf("%w: %s (and %d more)",
		ErrQueryErrors, resp.Errors[0].Message, len(resp.Errors)-1)
}

// DataValidator fails if the response data is missing or null.
type DataValidator struct{}

// Validate checks that the response has a data member.
func (v *DataValidator) Validate(_ string, resp *Response) error {
	if !resp.HasData() {
		return ErrNoData
	}

	return nil
}

// ComposedValidator runs multiple validators in sequence.
type ComposedValidator struct {
	validators []Validator
}

// NewComposedValidator creates a validator that runs multiple validators in sequence.
func NewComposedValidator(validators ...Validator) *ComposedValidator {
	return &ComposedValidator{
		validators: validators,
	}
}

// Validate runs all validators in sequence, returning the first error encountered.
func (v *ComposedValidator) Validate(label string, resp *Response) error {
	if resp == nil {
		return fmt.Errorf("nil response")
	}

	for _, validator := range v.validators {
		if err := validator.Validate(label, resp); err != nil {
			return err
		}
	}

	return nil
}

// DefaultValidator returns a composed validator with ErrorValidator and DataValidator.
func DefaultValidator() Validator {
	return NewComposedValidator(
		&ErrorValidator{},
		&DataValidator{},
	)
}
