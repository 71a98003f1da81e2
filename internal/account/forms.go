package account

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	pkgerrors "github.com/angelmondragon/qkart/pkg/errors"
	"github.com/go-playground/validator/v10"
)

const MsgPasswordMismatch = "Passwords do not match"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if label := f.Tag.Get("label"); label != "" {
			return label
		}
		return f.Name
	})
	return v
}

// LoginForm is the input of the login screen.
type LoginForm struct {
	Username string `label:"Username" validate:"required"`
	Password string `label:"Password" validate:"required"`
}

// RegisterForm is the input of the registration screen.
type RegisterForm struct {
	Username string `label:"Username" validate:"required,min=6"`
	Password string `label:"Password" validate:"required,min=6"`
	Confirm  string `label:"Confirm Password" validate:"eqfield=Password"`
}

func (f *LoginForm) normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

func (f *RegisterForm) normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

// Validate reports the first problem with the form.
func (f LoginForm) Validate() error {
	f.normalize()
	return validateForm(f)
}

// Validate reports the first problem with the form.
func (f RegisterForm) Validate() error {
	f.normalize()
	return validateForm(f)
}

func validateForm(form any) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, fieldMessage(errs[0])).
			WithDetails(map[string]any{"field": errs[0].Field()})
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is a required field", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "eqfield":
		return MsgPasswordMismatch
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
