package utils

import "strings"

// QuoteString renders s as a T-SQL Unicode string literal, doubling any
// single quotes.
//
// Examples:
//   - "abc" -> "N'abc'"
//   - "it's" -> "N'it''s'"
//   - "" -> "N''"
func QuoteString(s string) string {
	return "N'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// QuoteNullableString renders s with QuoteString, or the keyword null when s is nil.
func QuoteNullableString(s *string) string {
	if s == nil {
		return "null"
	}
	return QuoteString(*s)
}
