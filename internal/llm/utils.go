package llm

import "unicode/utf8"

func excerpt(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

// Excerpt truncates s to n runes for logs and error messages.
func Excerpt(s string, n int) string {
	return excerpt(s, n)
}
