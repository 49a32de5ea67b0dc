package normalize

import "strings"

// CleanText collapses runs of whitespace and trims the result.
func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate limits s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// TrimTitleSuffix strips the longest matching status page suffix, such as
// " Status" in "Acme Status", from a page title.
func TrimTitleSuffix(title string, suffixes []string) string {
	longest := ""
	for _, suffix := range suffixes {
		if strings.HasSuffix(title, suffix) && len(suffix) > len(longest) {
			longest = suffix
		}
	}
	return strings.TrimSuffix(title, longest)
}
