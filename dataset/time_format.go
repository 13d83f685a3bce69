package dataset

import (
	"fmt"
	"time"
)

// messageTime converts an export timestamp (unix milliseconds) into loc.
func messageTime(ms int64, loc *time.Location) time.Time {
	return time.UnixMilli(ms).In(loc)
}

func formatClock(t time.Time) string {
	return t.Format("15:04")
}

// formatDateHeader renders a calendar day as "2006-01-02 (Monday)".
func formatDateHeader(t time.Time) string {
	return t.Format("2006-01-02") + " (" + t.Weekday().String() + ")"
}

// formatCallDuration renders seconds as MM:SS; a zero-length call was missed or cancelled.
func formatCallDuration(seconds int) string {
	if seconds <= 0 {
		return "missed"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func formatGapHours(h float64) string {
	return fmt.Sprintf("%.1f", h)
}
