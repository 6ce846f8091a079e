// Package manifest describes the output tables of a transformation.
//
// After all blocks have run, the Writer looks up every declared output table
// in the warehouse catalog and writes a manifest listing its columns together
// with their datatype metadata. Declared tables that do not exist are
// collected and reported in a single MissingOutputTablesError, in the order
// they were declared.
//
// Manifests are written by a Sink. FileSink stores them as JSON files:
//
//	out/tables/orders.manifest
//
//	{
//	    "columns": ["id", "name"],
//	    "column_metadata": {
//	        "id": [
//	            {"key": "KBC.datatype.type", "value": "int"},
//	            {"key": "KBC.datatype.nullable", "value": "false"},
//	            {"key": "KBC.datatype.basetype", "value": "INTEGER"}
//	        ],
//	        ...
//	    }
//	}
package manifest
