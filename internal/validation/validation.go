// Package validation проверяет входящие запросы по декларативным схемам
// (struct tags go-playground/validator) и возвращает все ошибки полей сразу.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iudanet/gophgram/internal/apperror"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Имена полей в ошибках берем из json тегов, чтобы клиент мог
	// сопоставить ошибку с полем формы
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("notblank", notBlank)
}

// notBlank: строка не пустая после удаления пробелов
func notBlank(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.String {
		return false
	}
	return strings.TrimSpace(field.String()) != ""
}

// Check валидирует структуру запроса.
// Возвращает nil или *apperror.ValidationError со списком всех ошибок полей.
// Ошибки самого валидатора (не структура) возвращаются как есть
func Check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return fmt.Errorf("failed to validate request: %w", err)
	}

	result := &apperror.ValidationError{Fields: make([]apperror.FieldError, 0, len(vErrs))}
	for _, fe := range vErrs {
		result.Fields = append(result.Fields, apperror.FieldError{
			Field:   fe.Field(),
			Message: message(fe),
		})
	}
	return result
}

// message возвращает человекочитаемое сообщение для ошибки поля
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "notblank":
		return "must not be empty"
	case "min":
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed on %q rule", fe.Tag())
	}
}

// NormalizeEmail приводит email к каноническому виду перед валидацией
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
