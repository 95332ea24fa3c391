package util

import "fmt"

// FormatUptime renders an uptime in seconds as a compact human string,
// keeping the two most significant units: "4d 3h", "3h 12m", "42m", "30s".
func FormatUptime(seconds uint64) string {
	const (
		minute = 60
		hour   = 60 * minute
		day    = 24 * hour
	)

	switch {
	case seconds >= day:
		return fmt.Sprintf("%dd %dh", seconds/day, seconds%day/hour)
	case seconds >= hour:
		return fmt.Sprintf("%dh %dm", seconds/hour, seconds%hour/minute)
	case seconds >= minute:
		return fmt.Sprintf("%dm", seconds/minute)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
