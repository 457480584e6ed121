package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Brainhard-droid/sports-school-crm-sub001/core"
)

const orderingParam = "ordering"

// queryOrdering parses ?ordering=name,-created_at. Field names are checked by the repositories.
func queryOrdering(ctx echo.Context) []core.DBOrdering {
	raw := ctx.QueryParam(orderingParam)
	if raw == "" {
		return nil
	}
	var out []core.DBOrdering
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		asc := !strings.HasPrefix(field, "-")
		if field = strings.TrimPrefix(field, "-"); field != "" {
			out = append(out, core.DBOrdering{Field: field, Ascending: asc})
		}
	}
	return out
}

// queryInt reads an optional non-negative integer query param; missing means 0.
func queryInt(ctx echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, core.NewFieldError(name, "must be a non-negative integer")
	}
	return n, nil
}
