package utils

// Truncate shortens s to maxLength runes, appending "..." when cut.
// maxLength <= 0 means 20, the list views' default.
func Truncate(s string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = 20
	}
	r := []rune(s)
	if len(r) <= maxLength {
		return s
	}
	return string(r[:maxLength]) + "..."
}

// FirstNonEmpty returns the first non-empty value, or "—" when none is set.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "—"
}
