// Package validator 提供统一的参数校验和错误转换
package validator

import (
	"errors"

	"github.com/KOMKZ/yogan-market/errcode"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateRequest runs req.Validate and reports failures as ErrInvalidRequest.
// Field errors from ozzo-validation are attached as data "fields".
func ValidateRequest(req validation.Validatable) error {
	err := req.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		return ConvertValidationError(fieldErrs)
	}
	return errcode.ErrInvalidRequest.WithMsgf("invalid request: %v", err).Wrap(err)
}

// ConvertValidationError flattens nested field errors into "a.b" keys
func ConvertValidationError(errs validation.Errors) error {
	fields := make(map[string]string)
	flatten("", errs, fields)

	return errcode.ErrInvalidRequest.
		WithMsgf("invalid request: %v", errs).
		WithData("fields", fields).
		Wrap(errs)
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
