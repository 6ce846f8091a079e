package datatype

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// BaseType is the canonical, warehouse-independent classification of a column.
type BaseType string

const (
	Boolean BaseType = "BOOLEAN"
	Integer BaseType = "INTEGER"
	Numeric BaseType = "NUMERIC"
	Date    BaseType = "DATE"
	String  BaseType = "STRING"
)

// Metadata keys attached to every column of a table manifest.
const (
	KeyType     = "KBC.datatype.type"
	KeyNullable = "KBC.datatype.nullable"
	KeyBaseType = "KBC.datatype.basetype"
	KeyLength   = "KBC.datatype.length"
	KeyDefault  = "KBC.datatype.default"
)

// mapping lists every native Synapse type the mapper understands.
//
// https://docs.microsoft.com/en-us/sql/t-sql/data-types/data-types-transact-sql
var mapping = map[string]BaseType{
	"bit": Boolean,

	"bigint":   Integer,
	"int":      Integer,
	"smallint": Integer,
	"tinyint":  Integer,

	"decimal":          Numeric,
	"double":           Numeric,
	"double precision": Numeric,
	"float":            Numeric,
	"money":            Numeric,
	"numeric":          Numeric,
	"real":             Numeric,
	"smallmoney":       Numeric,

	"date":           Date,
	"datetime":       Date,
	"datetime2":      Date,
	"datetimeoffset": Date,
	"smalldatetime":  Date,

	"binary":           String,
	"char":             String,
	"image":            String,
	"nchar":            String,
	"ntext":            String,
	"nvarchar":         String,
	"text":             String,
	"time":             String,
	"uniqueidentifier": String,
	"varbinary":        String,
	"varchar":          String,
}

type (
	// Options carries the column attributes reported by the warehouse.
	Options struct {
		// Length is the raw length/precision specification, e.g. "255", "max" or "10,2"
		Length string

		// Nullable reports whether the column accepts NULL
		Nullable bool

		// Default is the column default expression, if any
		Default *string
	}

	// Type is a validated native column type.
	Type struct {
		native   string
		baseType BaseType
		length   string
		nullable bool
		def      *string
	}

	// MetadataEntry is a single key/value pair of column metadata.
	MetadataEntry struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}

	// Metadata is the ordered list of metadata entries describing a column.
	Metadata []MetadataEntry

	// UnsupportedTypeError is returned for native types the mapper does not know.
	UnsupportedTypeError struct {
		Type string
	}

	// InvalidLengthError is returned when a length is not valid for the type.
	InvalidLengthError struct {
		Type   string
		Length string
	}
)

// Lookup returns the base type of a native type name, ignoring case and
// surrounding whitespace.
func Lookup(nativeType string) (BaseType, bool) {
	baseType, ok := mapping[normalize(nativeType)]
	return baseType, ok
}

// NativeTypes returns the lower-cased names of every supported native type,
// sorted.
func NativeTypes() []string {
	names := make([]string, 0, len(mapping))
	for name := range mapping {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// New validates nativeType and opts and returns the corresponding Type.
func New(nativeType string, opts Options) (*Type, error) {
	native := normalize(nativeType)

	baseType, ok := mapping[native]
	if !ok {
		return nil, &UnsupportedTypeError{Type: native}
	}

	if opts.Length != "" && !validLength(native, opts.Length) {
		return nil, &InvalidLengthError{Type: native, Length: opts.Length}
	}

	return &Type{
		native:   native,
		baseType: baseType,
		length:   opts.Length,
		nullable: opts.Nullable,
		def:      opts.Default,
	}, nil
}

// FromColumn builds the Type of a reflected column. The warehouse reports a
// storage length even for types where the length cannot be set, so a length
// rejected by New is dropped and the type is built once more without it.
func FromColumn(nativeType string, opts Options) (*Type, error) {
	t, err := New(nativeType, opts)

	var lengthErr *InvalidLengthError
	if errors.As(err, &lengthErr) {
		opts.Length = ""
		return New(nativeType, opts)
	}

	return t, err
}

// BaseType returns the canonical base type.
func (t *Type) BaseType() BaseType { return t.baseType }

// Metadata serializes the type into manifest metadata. Length and default
// are only included when present.
func (t *Type) Metadata() Metadata {
	md := Metadata{
		{Key: KeyType, Value: t.native},
		{Key: KeyNullable, Value: strconv.FormatBool(t.nullable)},
		{Key: KeyBaseType, Value: string(t.baseType)},
	}

	if t.length != "" {
		md = append(md, MetadataEntry{Key: KeyLength, Value: t.length})
	}

	if t.def != nil {
		md = append(md, MetadataEntry{Key: KeyDefault, Value: *t.def})
	}

	return md
}

// Get returns the value for key, if present.
func (m Metadata) Get(key string) (string, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value, true
		}
	}
	return "", false
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("Unexpected type %q for Synapse DB.", e.Type)
}

// UserError marks the error as caused by the transformation itself.
func (e *UnsupportedTypeError) UserError() bool { return true }

func (e *InvalidLengthError) Error() string {
	return fmt.Sprintf("invalid length %q for type %q", e.Length, e.Type)
}

func normalize(nativeType string) string {
	return strings.ToLower(strings.TrimSpace(nativeType))
}

func validLength(native, length string) bool {
	length = strings.TrimSpace(length)

	switch native {
	case "char", "varchar", "binary", "varbinary":
		return isMax(length) || inRange(length, 1, 8000)
	case "nchar", "nvarchar":
		return isMax(length) || inRange(length, 1, 4000)
	case "decimal", "numeric":
		return validPrecision(length)
	case "float":
		return inRange(length, 1, 53)
	case "datetime2", "datetimeoffset", "time":
		return inRange(length, 0, 7)
	default:
		return false
	}
}

func validPrecision(length string) bool {
	precision, scale, hasScale := strings.Cut(length, ",")
	if !inRange(precision, 1, 38) {
		return false
	}

	if !hasScale {
		return true
	}

	p, _ := strconv.Atoi(strings.TrimSpace(precision))
	return inRange(scale, 0, p)
}

func isMax(length string) bool {
	return strings.EqualFold(length, "max")
}

func inRange(value string, lo, hi int) bool {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	return err == nil && n >= lo && n <= hi
}
