package visit

import (
	"fmt"
	"time"
)

const (
	msPerHour = 3_600_000
	msPerDay  = 24 * msPerHour
)

const (
	labelRecently   = "recently"
	labelNoBaseline = "recently (new changes detected)"
)

// ElapsedLabel describes how long ago lastSeenMs was, relative to now.
// A nil or zero timestamp means the last visit time is unknown.
func ElapsedLabel(now time.Time, lastSeenMs *int64) string {
	if lastSeenMs == nil || *lastSeenMs == 0 {
		return labelNoBaseline
	}

	diffMs := now.UnixMilli() - *lastSeenMs
	days := diffMs / msPerDay
	hours := diffMs / msPerHour

	switch {
	case days > 0:
		return fmt.Sprintf("%d %s ago", days, plural("day", days))
	case hours > 0:
		return fmt.Sprintf("%d %s ago", hours, plural("hour", hours))
	default:
		return labelRecently
	}
}

// BannerMessage renders the banner text for count changed rows.
func BannerMessage(count int64, elapsed string) string {
	msg := fmt.Sprintf("%d %s updated", count, plural("row", count))
	if elapsed == "" {
		return msg + "."
	}
	return fmt.Sprintf("%s since your last visit %s.", msg, elapsed)
}

func plural(word string, n int64) string {
	if n > 1 {
		return word + "s"
	}
	return word
}
