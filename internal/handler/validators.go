package handler

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/jwalitptl/medtrack-api/internal/model"
)

// RegisterValidators installs the custom binding tags used by request DTOs:
// frequency_type restricts a string to the schedule frequency enum and
// weekday_set accepts a comma-separated list of weekday numbers 0-6.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterValidation("frequency_type", func(fl validator.FieldLevel) bool {
		return model.FrequencyType(fl.Field().String()).Valid()
	})

	v.RegisterValidation("weekday_set", func(fl validator.FieldLevel) bool {
		_, err := model.ParseWeekdaySet(fl.Field().String())
		return err == nil
	})
}
