package utils

import "strings"

// BracketIdentifier wraps an identifier in T-SQL brackets, handling qualified names.
// Each dot-separated part is bracketed on its own and closing brackets inside a
// part are doubled.
//
// Examples:
//   - "table" -> "[table]"
//   - "dbo.table" -> "[dbo].[table]"
//   - "db.dbo.table" -> "[db].[dbo].[table]"
//   - "[table]" -> "[table]" (already bracketed, not double-bracketed)
//   - "odd]name" -> "[odd]]name]"
//   - "" -> ""
func BracketIdentifier(name string) string {
	if name == "" {
		return ""
	}

	if IsBracketed(name) {
		return name
	}

	parts := splitQualified(name)
	for i, part := range parts {
		if IsBracketed(part) {
			continue
		}
		parts[i] = "[" + strings.ReplaceAll(part, "]", "]]") + "]"
	}
	return strings.Join(parts, ".")
}

// BracketQualifiedName formats a schema-qualified name. If schema is nil or
// empty, only the name is bracketed.
//
// Examples:
//   - ("dbo", "events") -> "[dbo].[events]"
//   - (nil, "events") -> "[events]"
func BracketQualifiedName(schema *string, name string) string {
	if schema != nil && *schema != "" {
		return BracketIdentifier(*schema) + "." + BracketIdentifier(name)
	}
	return BracketIdentifier(name)
}

// IsBracketed checks if a string is a single bracketed identifier.
//
// Examples:
//   - "[table]" -> true
//   - "[a.b]" -> true
//   - "[a]]b]" -> true
//   - "[db].[table]" -> false (qualified name)
//   - "table" -> false
func IsBracketed(s string) bool {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return false
	}

	inner := s[1 : len(s)-1]
	return !strings.Contains(strings.ReplaceAll(inner, "]]", ""), "]")
}

// StripBrackets removes bracket quoting from every part of an identifier.
//
// Examples:
//   - "[table]" -> "table"
//   - "[db].[table]" -> "db.table"
//   - "[a]]b]" -> "a]b"
func StripBrackets(s string) string {
	parts := splitQualified(s)
	for i, part := range parts {
		if IsBracketed(part) {
			parts[i] = strings.ReplaceAll(part[1:len(part)-1], "]]", "]")
		}
	}
	return strings.Join(parts, ".")
}

// splitQualified splits on dots that are not inside brackets.
func splitQualified(name string) []string {
	var (
		parts  []string
		start  int
		quoted bool
	)

	for i := 0; i < len(name); i++ {
		switch name[i] {
		case '[':
			quoted = true
		case ']':
			if quoted {
				if i+1 < len(name) && name[i+1] == ']' {
					i++
					continue
				}
				quoted = false
			}
		case '.':
			if !quoted {
				parts = append(parts, name[start:i])
				start = i + 1
			}
		}
	}

	return append(parts, name[start:])
}
