package catalog

import (
	"fmt"
	"time"
)

const endOfDay = 24 * 60

// TimeRange is a working window within one day, "HH:MM" in business time.
// End may be "24:00".
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r TimeRange) minutes() (int, int, error) {
	start, err := time.Parse("15:04", r.Start)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid start %q: %w", r.Start, err)
	}
	s := start.Hour()*60 + start.Minute()
	e := endOfDay
	if r.End != "24:00" {
		end, err := time.Parse("15:04", r.End)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid end %q: %w", r.End, err)
		}
		e = end.Hour()*60 + end.Minute()
	}
	if e <= s {
		return 0, 0, fmt.Errorf("range %s-%s ends before it starts", r.Start, r.End)
	}
	return s, e, nil
}

// WeeklySchedule maps a weekday to its working windows. Days without
// entries are days off.
type WeeklySchedule map[time.Weekday][]TimeRange

func (w WeeklySchedule) Validate() error {
	for day, ranges := range w {
		for _, r := range ranges {
			if _, _, err := r.minutes(); err != nil {
				return fmt.Errorf("%s: %w", day, err)
			}
		}
	}
	return nil
}

// Covers reports whether [start, end) falls inside a single working window,
// evaluated in loc. Intervals crossing midnight are never covered.
func (w WeeklySchedule) Covers(start, end time.Time, loc *time.Location) bool {
	ls := start.In(loc)
	from := ls.Hour()*60 + ls.Minute()
	to := from + int(end.Sub(start)/time.Minute)
	if to > endOfDay {
		return false
	}

	for _, r := range w[ls.Weekday()] {
		s, e, err := r.minutes()
		if err != nil {
			continue
		}
		if from >= s && to <= e {
			return true
		}
	}
	return false
}
