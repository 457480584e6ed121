package schedule

import (
	"time"

	"github.com/go-playground/locales"
	"github.com/go-playground/locales/ru"
	"github.com/pkg/errors"
)

var (
	displayLocale locales.Translator = ru.New()

	isoLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04", dateLayout}
)

// FormatDateTime renders t for display, e.g. "15 января 2023 г. 10:30".
func FormatDateTime(t time.Time) string {
	return displayLocale.FmtDateLong(t) + " " + displayLocale.FmtTimeShort(t)
}

// FormatDate renders the day of t, e.g. "15 января 2023 г.".
func FormatDate(t time.Time) string {
	return displayLocale.FmtDateLong(t)
}

// FormatDateTimeString is FormatDateTime for ISO-8601 strings.
// Strings without an offset are read in loc.
func FormatDateTimeString(iso string, loc *time.Location) (string, error) {
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, iso, loc); err == nil {
			return FormatDateTime(t.In(loc)), nil
		}
	}
	return "", errors.Errorf("unrecognized date %q", iso)
}
