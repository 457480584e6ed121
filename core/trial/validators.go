package trial

import (
	"github.com/go-playground/validator/v10"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

var (
	trialStatusTag  = "trial_status"
	trialStatusText = "invalid status"
)

func init() {
	_ = core.Validate.RegisterValidation(trialStatusTag, trialStatusValidation)
	core.RegisterCustomTranslation(trialStatusTag, trialStatusText)
}

func trialStatusValidation(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	for _, s := range AllStatuses {
		if s == status {
			return true
		}
	}
	return false
}
