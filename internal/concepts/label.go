package concepts

import "strings"

func splitWords(s string) []string {
	return strings.Fields(s)
}

func joinUpper(words []string) string {
	return strings.ToUpper(strings.Join(words, "_"))
}
