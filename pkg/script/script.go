package script

import (
	"encoding/json"

	"github.com/pkg/errors"
)

type (
	// Block is a named, ordered group of codes. Blocks are executed in the
	// order they are declared in the configuration.
	Block struct {
		Name  string `json:"name"`
		Codes []Code `json:"codes"`
	}

	// Code is a named, ordered list of scripts belonging to a single block.
	Code struct {
		Name    string   `json:"name"`
		Scripts []Script `json:"script"`
	}

	// Script is a single raw SQL statement as written by the user. The text is
	// opaque; nothing beyond comment stripping is ever applied to it.
	Script struct {
		RawSQL string
	}

	// OutputTableMapping declares a table the transformation is expected to
	// create. Source is the table name in the warehouse schema, Destination
	// the logical output identifier.
	OutputTableMapping struct {
		Source      string `json:"source"`
		Destination string `json:"destination"`
	}
)

// NewBlock is a convenience constructor used mostly by tests.
func NewBlock(name string, codes ...Code) Block {
	return Block{Name: name, Codes: codes}
}

// NewCode creates a code from raw SQL statements.
func NewCode(name string, statements ...string) Code {
	scripts := make([]Script, 0, len(statements))
	for _, stmt := range statements {
		scripts = append(scripts, Script{RawSQL: stmt})
	}

	return Code{Name: name, Scripts: scripts}
}

// ErrNotAString is returned when a script is anything but a JSON string.
var ErrNotAString = errors.New("script must be a string")

// UnmarshalJSON decodes a script from a JSON string. Numbers, objects, arrays
// and null are rejected.
func (s *Script) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || data[0] != '"' {
		return ErrNotAString
	}

	return json.Unmarshal(data, &s.RawSQL)
}

// MarshalJSON encodes the script as a plain string.
func (s Script) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.RawSQL)
}

// Statements returns the number of scripts in all codes of the block.
func (b Block) Statements() int {
	n := 0
	for _, code := range b.Codes {
		n += len(code.Scripts)
	}
	return n
}
