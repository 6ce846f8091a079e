// Package testutil contains helpers shared by the tests of the other packages:
// loggers that record or forward to testing.T, CLI command runners, data
// directory fixtures and a SQL Server container for integration tests.
package testutil
