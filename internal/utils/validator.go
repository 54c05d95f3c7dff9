package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

var (
	nameCharsRegex     = regexp.MustCompile(`^[A-Za-zА-Яа-яЁё' -]+$`)
	usernameCharsRegex = regexp.MustCompile(`^[\w.@+-]+$`)
)

func InitValidator() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("name_chars", func(fl validator.FieldLevel) bool {
		return nameCharsRegex.MatchString(fl.Field().String())
	})
	_ = Validate.RegisterValidation("username_chars", func(fl validator.FieldLevel) bool {
		return usernameCharsRegex.MatchString(fl.Field().String())
	})
}
