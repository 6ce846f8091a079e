// Package cmd provides the CLI of synapse-transformation.
//
// Commands are plain urfave/cli/v3 commands built by constructor functions and
// collected by fx through the "commands" value group. Run assembles them into
// the root command and executes it when the fx application starts.
//
// # Available Commands
//
//   - run: Execute the transformation and write the output table manifests
//   - validate: Check the configuration without connecting to the warehouse
//
// # Global Options
//
//   - --data-dir, -d: Directory holding config.json (env KBC_DATADIR, default /data)
//   - --debug: Log at debug level
//   - --help, -h: Display command help
//   - --version: Display version information
//
// # Exit Codes
//
// Errors implementing UserError() bool and returning true, such as an invalid
// configuration, a failing query or a missing output table, exit with
// ExitUserError. Every other error exits with ExitAppError, and so does a
// command interrupted by SIGINT or SIGTERM. The code is kept in ExitStatus.
//
// # Example Usage
//
//	synapse-transformation validate
//	synapse-transformation --data-dir ./data --debug run
package cmd
