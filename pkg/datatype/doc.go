// Package datatype maps native Synapse column types onto the canonical base
// types used by table manifests: BOOLEAN, INTEGER, NUMERIC, DATE and STRING.
//
// The mapping is a fixed, case-insensitive table (see Lookup). A type outside of
// it is an error, never a silent STRING, because a misclassified column would
// break the schema contract of every downstream consumer.
//
//	typ, err := datatype.FromColumn("nvarchar", datatype.Options{Length: "100", Nullable: true})
//	if err != nil {
//		return err
//	}
//
//	typ.BaseType() // datatype.String
//	typ.Metadata() // KBC.datatype.type, .nullable, .basetype, .length
package datatype
