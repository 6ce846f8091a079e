// Package transformation ties a configuration, a warehouse connection and a
// manifest sink together into a single run.
//
// A run performs the following steps in order, stopping at the first error:
//
//  1. Tag the session with the workload management context (or clear it)
//  2. Execute every block with the executor package
//  3. Write a manifest for every declared output table with the manifest package
//  4. Clear the session context
package transformation
