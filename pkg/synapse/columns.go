package synapse

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/pkg/errors"
)

const (
	schemaNameQuery = `SELECT SCHEMA_NAME()`

	listColumnsQuery = `
		SELECT
			c.name,
			t.name AS type,
			c.max_length AS length,
			c.is_nullable AS nullable,
			d.definition AS [default]
		FROM sys.columns AS c
		JOIN sys.types AS t ON c.user_type_id = t.user_type_id
		JOIN sys.objects AS o ON c.object_id = o.object_id
		JOIN sys.schemas AS s ON o.schema_id = s.schema_id
		LEFT JOIN sys.default_constraints AS d ON c.default_object_id = d.object_id
		WHERE o.type = 'U' AND s.name = @p1 AND o.name = @p2
		ORDER BY c.column_id
	`
)

// Column describes a column of a user table as reported by the catalog.
type Column struct {
	Name string

	// Type is the native type name, e.g. "nvarchar"
	Type string

	// Length is the storage length reported by the catalog ("max" for
	// varchar(max) style columns). Empty when the catalog reports none.
	Length string

	Nullable bool
	Default  *string
}

// SchemaName returns the default schema of the current session.
func (c *Client) SchemaName(ctx context.Context) (string, error) {
	var name sql.NullString

	err := c.Query(ctx, schemaNameQuery, func(rows *sql.Rows) error {
		return rows.Scan(&name)
	})
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve the current schema")
	}

	if !name.Valid || name.String == "" {
		return "", errors.New("the session has no default schema")
	}

	return name.String, nil
}

// ListColumns returns the columns of schema.table in declaration order. A
// table without columns, or one that does not exist, yields ErrTableNotFound.
func (c *Client) ListColumns(ctx context.Context, schema, table string) ([]Column, error) {
	var columns []Column

	err := c.Query(ctx, listColumnsQuery, func(rows *sql.Rows) error {
		var (
			col      Column
			length   sql.NullInt64
			def      sql.NullString
			nullable bool
		)

		if err := rows.Scan(&col.Name, &col.Type, &length, &nullable, &def); err != nil {
			return err
		}

		col.Nullable = nullable
		col.Length = formatLength(length)
		if def.Valid {
			col.Default = &def.String
		}

		columns = append(columns, col)
		return nil
	}, schema, table)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list columns of %s.%s", schema, table)
	}

	if len(columns) == 0 {
		return nil, errors.Wrapf(ErrTableNotFound, "%s.%s", schema, table)
	}

	return columns, nil
}

func formatLength(length sql.NullInt64) string {
	switch {
	case !length.Valid:
		return ""
	case length.Int64 == -1:
		return "max"
	default:
		return strconv.FormatInt(length.Int64, 10)
	}
}
