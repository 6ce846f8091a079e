// Package format prepares raw user SQL for execution and logging.
//
// Comment stripping is driven by a participle lexer built from explicit
// dialect Options, so string literals ('...'), bracketed identifiers ([...])
// and double-quoted identifiers keep any comment-like text they contain.
// The Synapse dialect (Defaults) recognizes `--` line comments and `/* */`
// block comments; `#` is not a comment marker because it prefixes temporary
// table names.
//
// Usage:
//
//	f := format.New(format.Defaults)
//
//	sql := f.StripComments(rawSQL)
//	if sql == "" {
//		// nothing to run
//	}
//
//	slog.Info(fmt.Sprintf("Running query %q.", f.RenderForLog(sql)))
//
// RenderForLog flattens line breaks (log sinks drop them) and shortens
// statements longer than MaxLogLength code points to their first and last
// 500 code points joined by Ellipsis.
package format
