package enums

import "fmt"

// SavedCartStatus tracks where a saved cart sits in the discount approval flow.
type SavedCartStatus string

const (
	SavedCartStatusOpen        SavedCartStatus = "open"
	SavedCartStatusPending     SavedCartStatus = "pending"
	SavedCartStatusApproved    SavedCartStatus = "approved"
	SavedCartStatusDenied      SavedCartStatus = "denied"
	SavedCartStatusOrderPlaced SavedCartStatus = "orderPlaced"
)

var validSavedCartStatuses = []SavedCartStatus{
	SavedCartStatusOpen,
	SavedCartStatusPending,
	SavedCartStatusApproved,
	SavedCartStatusDenied,
	SavedCartStatusOrderPlaced,
}

// String implements fmt.Stringer.
func (s SavedCartStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SavedCartStatus.
func (s SavedCartStatus) IsValid() bool {
	for _, candidate := range validSavedCartStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status admits no further transitions.
func (s SavedCartStatus) IsTerminal() bool {
	return s == SavedCartStatusOrderPlaced
}

// ParseSavedCartStatus converts raw input into a SavedCartStatus.
func ParseSavedCartStatus(value string) (SavedCartStatus, error) {
	for _, candidate := range validSavedCartStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid saved cart status %q", value)
}
