package logging

import "strings"

// FormatSubject builds the run/item subject string used in console output.
func FormatSubject(runID, itemID string) string {
	runID = shortID(strings.TrimSpace(runID))
	itemID = strings.TrimSpace(itemID)
	switch {
	case runID != "" && itemID != "":
		return "Run " + runID + " · Item " + itemID
	case runID != "":
		return "Run " + runID
	case itemID != "":
		return "Item " + itemID
	default:
		return ""
	}
}

// shortID trims a UUID to its first group.
func shortID(id string) string {
	if len(id) == 36 && id[8] == '-' {
		return id[:8]
	}
	return id
}
