// Package docker runs a disposable SQL Server instance for integration tests.
//
// Synapse dedicated SQL pools cannot be run locally. SQL Server shares their
// T-SQL dialect, session context procedures and sys.* catalog views, which is
// everything a transformation run touches, so it is used in their place.
//
// # Usage Example
//
//	container := docker.NewWithOptions(docker.Options{Version: "2022-latest"})
//
//	ctx := context.Background()
//	defer container.Stop(ctx)
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	opts, _ := container.ClientOptions(ctx)
//	client, _ := synapse.NewClient(ctx, opts)
//	defer client.Close()
//
//	_, err := client.Exec(ctx, "CREATE TABLE [orders] ([id] INT)")
package docker
