package manifest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/synapse-transformation/pkg/datatype"
	"github.com/pseudomuto/synapse-transformation/pkg/script"
	"github.com/pseudomuto/synapse-transformation/pkg/synapse"
	"github.com/pseudomuto/synapse-transformation/pkg/utils"
)

type (
	// Reflector reads table definitions from the warehouse catalog.
	// *synapse.Client implements it.
	Reflector interface {
		SchemaName(ctx context.Context) (string, error)
		ListColumns(ctx context.Context, schema, table string) ([]synapse.Column, error)
	}

	// Sink persists the manifest of a single output table.
	Sink interface {
		WriteTableManifest(table string, m *TableManifest) error
	}

	// TableManifest describes the columns of an output table.
	TableManifest struct {
		// Columns lists the column names in declaration order
		Columns []string `json:"columns"`

		// ColumnMetadata holds the datatype metadata of every column
		ColumnMetadata map[string]datatype.Metadata `json:"column_metadata"`
	}

	// Config contains configuration options for creating a new Writer.
	Config struct {
		// Reflector provides the catalog of the warehouse
		Reflector Reflector

		// Sink receives one manifest per output table
		Sink Sink

		// Logger receives progress messages. Defaults to a discarding logger.
		Logger *slog.Logger
	}

	// Writer reconciles the declared output tables with the tables that exist
	// in the warehouse after a run.
	//
	// Example usage:
	//
	//	w := manifest.NewWriter(manifest.Config{
	//		Reflector: client,
	//		Sink:      manifest.NewFileSink(filepath.Join(dataDir, "out", "tables")),
	//	})
	//
	//	if err := w.ProcessTables(ctx, cfg.OutputTables()); err != nil {
	//		return err
	//	}
	Writer struct {
		reflector Reflector
		sink      Sink
		logger    *slog.Logger
	}

	// MissingOutputTablesError lists the output tables that were declared but
	// not found in the warehouse, in declared order.
	MissingOutputTablesError struct {
		Tables []string
	}
)

// NewWriter creates a new Writer with the provided configuration.
func NewWriter(config Config) *Writer {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Writer{
		reflector: config.Reflector,
		sink:      config.Sink,
		logger:    logger,
	}
}

// ProcessTables writes a manifest for every mapping whose source table exists.
//
// Every mapping is attempted. Tables that do not exist are collected and
// reported together as a *MissingOutputTablesError once all mappings have been
// processed. Columns with unsupported types and sink failures stop processing
// immediately.
func (w *Writer) ProcessTables(ctx context.Context, mappings []script.OutputTableMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	schema, err := w.reflector.SchemaName(ctx)
	if err != nil {
		return err
	}

	var missing []string
	for _, mapping := range mappings {
		found, err := w.processTable(ctx, schema, mapping)
		if err != nil {
			return err
		}

		if !found {
			missing = append(missing, mapping.Source)
		}
	}

	if len(missing) > 0 {
		return &MissingOutputTablesError{Tables: missing}
	}

	return nil
}

func (w *Writer) processTable(ctx context.Context, schema string, mapping script.OutputTableMapping) (bool, error) {
	// the catalog stores bare names, "[orders]" is looked up as "orders"
	table := mapping.Source
	if utils.IsBracketed(table) {
		table = utils.StripBrackets(table)
	}

	columns, err := w.reflector.ListColumns(ctx, schema, table)
	if errors.Is(err, synapse.ErrTableNotFound) {
		w.logger.Debug(fmt.Sprintf("Table %s not found.", utils.BracketQualifiedName(&schema, table)))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if len(columns) == 0 {
		return false, nil
	}

	m, err := NewTableManifest(columns)
	if err != nil {
		return false, errors.Wrapf(err, "table %q", mapping.Source)
	}

	if err := w.sink.WriteTableManifest(mapping.Source, m); err != nil {
		return false, errors.Wrapf(err, "failed to write manifest of table %q", mapping.Source)
	}

	w.logger.Info(
		fmt.Sprintf(`Created manifest for table "%s".`, mapping.Source),
		slog.String("destination", mapping.Destination),
		slog.Int("columns", len(columns)),
	)

	return true, nil
}

// NewTableManifest maps reflected columns onto their manifest representation.
func NewTableManifest(columns []synapse.Column) (*TableManifest, error) {
	m := &TableManifest{
		Columns:        make([]string, 0, len(columns)),
		ColumnMetadata: make(map[string]datatype.Metadata, len(columns)),
	}

	for _, col := range columns {
		typ, err := datatype.FromColumn(col.Type, datatype.Options{
			Length:   col.Length,
			Nullable: col.Nullable,
			Default:  col.Default,
		})
		if err != nil {
			return nil, err
		}

		m.Columns = append(m.Columns, col.Name)
		m.ColumnMetadata[col.Name] = typ.Metadata()
	}

	return m, nil
}

func (e *MissingOutputTablesError) Error() string {
	noun := "Tables"
	if len(e.Tables) == 1 {
		noun = "Table"
	}

	return fmt.Sprintf(
		`%s "%s" specified in output were not created by the transformation.`,
		noun,
		strings.Join(e.Tables, `", "`),
	)
}

// UserError marks the error as caused by the transformation itself.
func (e *MissingOutputTablesError) UserError() bool { return true }
