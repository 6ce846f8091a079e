// Package utils provides small helpers shared by the warehouse-facing packages.
//
// # Identifier Utilities (identifier.go)
//
// T-SQL identifiers are quoted with brackets. BracketIdentifier quotes every
// part of a qualified name and escapes closing brackets:
//
//	utils.BracketIdentifier("dbo.events")
//	// Result: [dbo].[events]
//
//	utils.BracketIdentifier("[out.c-main.events]")
//	// Result: [out.c-main.events] (already bracketed)
//
//	utils.BracketQualifiedName(utils.Ptr("dbo"), "events")
//	// Result: [dbo].[events]
//
// # Literal Utilities (literal.go)
//
// QuoteString renders Unicode string literals for statements that cannot take
// parameters, such as procedure calls built for logging:
//
//	utils.QuoteString("it's")
//	// Result: N'it''s'
//
//	utils.QuoteNullableString(nil)
//	// Result: null
//
// # Pointers (ptr.go)
//
//	def := utils.Ptr("('n/a')")
package utils
