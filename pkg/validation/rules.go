package validation

import (
	"github.com/go-playground/validator/v10"

	"consult-system/pkg/constants"
)

// registerRules регистрирует доменные правила валидации.
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("urgency", isKnownUrgency); err != nil {
		return err
	}
	if err := v.RegisterValidation("follow_up_kind", isKnownFollowUpKind); err != nil {
		return err
	}
	return nil
}

func isKnownUrgency(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, u := range constants.Urgencies {
		if u == value {
			return true
		}
	}
	return false
}

func isKnownFollowUpKind(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == constants.FollowUpRegular || value == constants.FollowUpConditional
}
