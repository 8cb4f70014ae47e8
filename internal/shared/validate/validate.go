// Package validate wraps go-playground/validator so request and catalog
// validation failures surface as fault.ErrInvalidArgument.
package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/HollowedMumbler/Absolute-Cinema/internal/shared/fault"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct validates s against its `validate` tags.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return err
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), fault.ErrInvalidArgument)
}
