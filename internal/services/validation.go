package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"smartshop_back_end/internal/errs"

	"github.com/go-playground/validator/v10"
)

// numéro mobile vietnamien : 0xxxxxxxxx ou +84xxxxxxxxx
var vnPhone = regexp.MustCompile(`^(0|\+84)\d{9,10}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("vnphone", func(fl validator.FieldLevel) bool {
		return vnPhone.MatchString(normalizePhone(fl.Field().String()))
	})
	return v
}

func normalizePhone(phone string) string {
	return strings.NewReplacer(" ", "", ".", "", "-", "").Replace(strings.TrimSpace(phone))
}

// validateStruct traduit les erreurs du validator en errs.ErrInvalidInput
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", errs.ErrInvalidInput, strings.Join(fields, ", "))
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errs.ErrInvalidInput, fmt.Sprintf(format, args...))
}
