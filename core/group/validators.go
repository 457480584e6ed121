package group

import (
	"github.com/go-playground/validator/v10"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
	"github.com/Brainhard-droid/sports-school-crm-sub001/core/schedule"
)

var (
	weeklyScheduleTag  = "weekly_schedule"
	weeklyScheduleText = "schedule must list at least one weekday, e.g. \"Понедельник: 10:00 - 11:00\""
)

func init() {
	_ = core.Validate.RegisterValidation(weeklyScheduleTag, weeklyScheduleValidation)
	core.RegisterCustomTranslation(weeklyScheduleTag, weeklyScheduleText)
}

// weeklyScheduleValidation accepts schedules that parse and hold at least one known weekday.
func weeklyScheduleValidation(fl validator.FieldLevel) bool {
	ws := schedule.Parse(fl.Field().String())
	for _, day := range ws.Days() {
		if _, ok := schedule.ResolveWeekday(day); ok {
			return true
		}
	}
	return false
}
