// Package synapse provides a client for Azure Synapse dedicated SQL pools.
//
// The client wraps a go-mssqldb connection and provides what a transformation
// run needs from the warehouse:
//   - Statement execution with a per-statement timeout (Exec, Query)
//   - Catalog reflection of user tables (SchemaName, ListColumns)
//   - Workload management tagging through the session context
//   - Extraction of clean server messages from driver errors (CleanMessage)
//
// The client holds exactly one physical connection, so #temporary tables and
// session settings created by one statement are visible to the following ones.
//
// Example usage:
//
//	client, err := synapse.NewClient(ctx, synapse.Options{
//		Host:         cfg.Host(),
//		User:         cfg.User(),
//		Password:     cfg.Password(),
//		Database:     cfg.Database(),
//		QueryTimeout: cfg.QueryTimeout(),
//	})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	if _, err := client.Exec(ctx, "CREATE TABLE [out] (id INT)"); err != nil {
//		return errors.New(synapse.CleanMessage(err))
//	}
//
//	schema, err := client.SchemaName(ctx)
//	if err != nil {
//		return err
//	}
//
//	columns, err := client.ListColumns(ctx, schema, "out")
//	if errors.Is(err, synapse.ErrTableNotFound) {
//		// the table was not created
//	}
package synapse
