// Package command provides the CLI command definitions for supplier-cli.
//
// This package defines all CLI commands using urfave/cli/v2:
//
//   - root.go: application, global flags, per-invocation runtime
//   - session.go: login, logout, whoami
//   - call.go: raw endpoint calls
//   - supplier.go: supplier and order subcommand groups
//   - config.go: configuration subcommand group
//   - stats.go: client call metrics
//   - shell.go: interactive REPL mode
//   - errors.go: exit codes and user-facing hints
//
// Commands follow a consistent pattern of reading flags, calling the
// session client, and rendering the result in the selected format.
package command
