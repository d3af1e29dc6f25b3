package dto

import (
	"github.com/go-playground/validator/v10"

	"github.com/malamapl09/Picker-Scheduler/internal/model"
)

// RegisterValidators adds the domain tags used in binding rules:
//   - monday: a YYYY-MM-DD date falling on a Monday
//   - hhmm:   a wall-clock time "HH:MM" between 00:00 and 24:00
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("monday", validateMonday); err != nil {
		return err
	}
	return v.RegisterValidation("hhmm", validateHHMM)
}

func validateMonday(fl validator.FieldLevel) bool {
	d, err := model.ParseDate(fl.Field().String())
	if err != nil {
		return false
	}
	return model.IsMonday(d)
}

func validateHHMM(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := model.ParseClock(s)
	return err == nil
}
