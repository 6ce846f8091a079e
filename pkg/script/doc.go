// Package script holds the value objects describing a transformation: an
// ordered tree of blocks, codes and raw SQL scripts, plus the output tables
// the scripts are expected to create.
//
// The tree is built once from configuration and treated as read-only for the
// rest of the run. Order is significant at every level:
//
//	blocks := []script.Block{
//		script.NewBlock("Prepare",
//			script.NewCode("Staging",
//				"CREATE TABLE #tmp (id INT)",
//				"INSERT INTO #tmp VALUES (1)",
//			),
//		),
//	}
package script
