package format

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/alecthomas/participle/v2/lexer"
)

const (
	// MaxLogLength is the number of code points after which a statement is
	// shortened for logging
	MaxLogLength = 1000

	// Ellipsis replaces the middle of statements longer than MaxLogLength
	Ellipsis = "\n...\n"

	logHeadLength = 500
	logTailLength = 500

	commentToken = "Comment"
)

// Defaults describes the Synapse (T-SQL) dialect. `#` starts a temporary
// table name there, so it must never be treated as a comment marker.
var Defaults = Options{
	LineComments:  []string{"--"},
	BlockComments: true,
}

// lineBreaks matches a run of whitespace containing at least one line break.
var lineBreaks = regexp.MustCompile(`\s*\n+\s*`)

type (
	// Options describes the comment boundaries of a SQL dialect.
	Options struct {
		// LineComments lists the markers that start a comment running to the end of the line
		LineComments []string

		// BlockComments enables /* ... */ comments
		BlockComments bool
	}

	// Formatter strips comments from raw statements and renders statements
	// for logging. A Formatter holds no mutable state and is safe for
	// concurrent use.
	Formatter struct {
		options Options
		lexer   *lexer.StatefulDefinition
		comment lexer.TokenType
	}
)

// New creates a Formatter for the dialect described by opts.
//
// Example:
//
//	f := format.New(format.Defaults)
//	sql := f.StripComments("-- load\nSELECT * INTO #tmp FROM src")
//	// sql == "SELECT * INTO #tmp FROM src"
func New(opts Options) *Formatter {
	def := lexer.MustSimple(rules(opts))

	return &Formatter{
		options: opts,
		lexer:   def,
		comment: def.Symbols()[commentToken],
	}
}

// Options returns the dialect options the formatter was built with.
func (f *Formatter) Options() Options {
	return f.options
}

// StripComments removes line and block comments from a raw statement and
// trims the surrounding whitespace. Comment markers inside string literals
// and quoted identifiers are left alone.
func (f *Formatter) StripComments(raw string) string {
	lex, err := f.lexer.LexString("", raw)
	if err != nil {
		return strings.TrimSpace(raw)
	}

	tokens, err := lexer.ConsumeAll(lex)
	if err != nil {
		return strings.TrimSpace(raw)
	}

	var sb strings.Builder
	sb.Grow(len(raw))
	for _, tok := range tokens {
		if tok.EOF() || tok.Type == f.comment {
			continue
		}
		sb.WriteString(tok.Value)
	}

	return strings.TrimSpace(sb.String())
}

// RenderForLog flattens a statement onto a single line and shortens it to
// MaxLogLength code points (plus the ellipsis) by keeping its head and tail.
func (f *Formatter) RenderForLog(sql string) string {
	sql = lineBreaks.ReplaceAllString(sql, " ")

	runes := []rune(sql)
	if len(runes) <= MaxLogLength {
		return sql
	}

	return string(runes[:logHeadLength]) + Ellipsis + string(runes[len(runes)-logTailLength:])
}

// RemoveWhitespace drops every whitespace rune from sql.
func (f *Formatter) RemoveWhitespace(sql string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, sql)
}

func rules(opts Options) []lexer.SimpleRule {
	var comments []string
	if len(opts.LineComments) > 0 {
		markers := make([]string, 0, len(opts.LineComments))
		for _, m := range opts.LineComments {
			if m != "" {
				markers = append(markers, regexp.QuoteMeta(m))
			}
		}
		if len(markers) > 0 {
			comments = append(comments, `(?:`+strings.Join(markers, "|")+`)[^\r\n]*`)
		}
	}
	if opts.BlockComments {
		comments = append(comments, `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`)
	}

	var out []lexer.SimpleRule
	if len(comments) > 0 {
		out = append(out, lexer.SimpleRule{Name: commentToken, Pattern: strings.Join(comments, "|")})
	}

	return append(out,
		lexer.SimpleRule{Name: "String", Pattern: `'(?:[^']|'')*'`},
		lexer.SimpleRule{Name: "BracketIdent", Pattern: `\[(?:[^\]]|\]\])*\]`},
		lexer.SimpleRule{Name: "QuotedIdent", Pattern: `"(?:[^"]|"")*"`},
		lexer.SimpleRule{Name: "Whitespace", Pattern: `\s+`},
		lexer.SimpleRule{Name: "Word", Pattern: `[^\s'"\[` + boundaries(opts) + `]+`},
		lexer.SimpleRule{Name: "Char", Pattern: `(?s).`},
	)
}

// boundaries returns a character class fragment with the first rune of every
// comment marker so that plain words stop right before a possible comment.
func boundaries(opts Options) string {
	seen := map[rune]bool{}
	var sb strings.Builder
	add := func(r rune) {
		if !seen[r] {
			seen[r] = true
			fmt.Fprintf(&sb, `\x{%x}`, r)
		}
	}

	for _, m := range opts.LineComments {
		if m != "" {
			r, _ := utf8.DecodeRuneInString(m)
			add(r)
		}
	}
	if opts.BlockComments {
		add('/')
	}

	return sb.String()
}
