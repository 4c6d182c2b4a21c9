// Package validator turns ozzo-validation results into layered errors
package validator

import (
	"errors"
	"net/http"

	"github.com/KOMKZ/go-yogan-tokenauth/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ErrValidation generic validation failure, field messages live under Data()["fields"]
var ErrValidation = errcode.Register(errcode.New(
	10, 1, "common", "common.validation_failed", "validation failed", http.StatusBadRequest,
))

// field errors are keyed by config key, e.g. "purge_interval" rather than "PurgeInterval"
func init() {
	validation.ErrorTag = "mapstructure"
}

// Validatable anything with an ozzo-style Validate method
type Validatable interface {
	Validate() error
}

// Validate runs v.Validate and converts field errors to ErrValidation.
// Internal validation errors and other error types are returned unchanged.
func Validate(v Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return Convert(fieldErrs)
	}
	return err
}

// Convert flattens ozzo field errors into ErrValidation.
// Nested errors use dotted keys, e.g. "blacklist.storage".
func Convert(errs validation.Errors) *errcode.LayeredError {
	fields := make(map[string]string)
	flatten("", errs, fields)
	return ErrValidation.WithData("fields", fields)
}

func flatten(prefix string, errs validation.Errors, out map[string]string) {
	for field, err := range errs {
		if err == nil {
			continue
		}
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(key, nested, out)
			continue
		}
		out[key] = err.Error()
	}
}
