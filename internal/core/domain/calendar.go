package domain

import "time"

// DateLayout is the storage and wire format of preferred dates.
const DateLayout = "2006-01-02"

// WeekBounds returns the Monday and Sunday of the calendar week containing t,
// formatted with DateLayout.
func WeekBounds(t time.Time) (start, end string) {
	offset := (int(t.Weekday()) + 6) % 7
	monday := time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
	return monday.Format(DateLayout), monday.AddDate(0, 0, 6).Format(DateLayout)
}
