package schedule

import "sort"

// SortSchedule returns a copy of ws with days in canonical week order and the
// labels of Multiple values ordered by start time.
func SortSchedule(ws WeeklySchedule) WeeklySchedule {
	return sortSchedule(ws, nopReport)
}

func sortSchedule(ws WeeklySchedule, report reportFunc) WeeklySchedule {
	if ws == nil {
		return nil
	}
	sorted := make(WeeklySchedule, len(ws))
	copy(sorted, ws)
	sort.SliceStable(sorted, func(i, j int) bool { return DayOrder(sorted[i].Day) < DayOrder(sorted[j].Day) })

	for i, e := range sorted {
		if DayOrder(e.Day) == unknownDayOrder {
			report("unknown schedule day", map[string]interface{}{"day": e.Day})
		}
		labels := e.Value.Labels()
		if e.Value.Kind() != Multiple {
			for _, l := range labels {
				if _, ok := startMinutes(l); !ok {
					report("malformed schedule time", map[string]interface{}{"day": e.Day, "time": l})
				}
			}
			continue
		}
		minutes := make(map[string]int, len(labels))
		for _, l := range labels {
			m, ok := startMinutes(l)
			if !ok {
				report("malformed schedule time", map[string]interface{}{"day": e.Day, "time": l})
			}
			minutes[l] = m
		}
		sort.SliceStable(labels, func(a, b int) bool { return minutes[labels[a]] < minutes[labels[b]] })
		sorted[i].Value = MultipleValue(labels...)
	}
	return sorted
}
