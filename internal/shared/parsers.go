package shared

import "strings"

// ParseStatus maps free-form status text onto one of the known statuses.
// Anything unrecognized becomes StatusUnknown.
func ParseStatus(s string) Status {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StatusCompleted):
		return StatusCompleted
	case string(StatusOngoing):
		return StatusOngoing
	default:
		return StatusUnknown
	}
}
