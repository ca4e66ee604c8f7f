package chat

import (
	"fmt"
	"time"
)

// FormatClock renders t as a 12-hour clock, `h:mm AM/PM`. Hour 0 is shown
// as 12.
func FormatClock(t time.Time) string {
	hours := t.Hour()
	ampm := "AM"
	if hours >= 12 {
		ampm = "PM"
	}
	hours %= 12
	if hours == 0 {
		hours = 12
	}
	return fmt.Sprintf("%d:%02d %s", hours, t.Minute(), ampm)
}
