// Package cli implements the neoprene command-line interface.
//
// Each cobra command delegates to a run* function that takes a
// WorkflowContext, so the command bodies can be driven by test doubles.
//
// # Command Structure
//
//	neoprene pull-db [site-dir]            - Copy the live database into a new local one
//	neoprene dump [site-dir]               - Back up the live database, print its path
//	neoprene dev-env <live> <target>       - Clone the live site into a dev checkout
//	neoprene db list                       - List local databases
//	neoprene init                          - Create .neoprene.yaml
//
// # Workflow System
//
// SetupWorkflow handles the phases shared by the remote commands:
//
//  1. Load and validate config (a missing file means defaults)
//  2. Resolve the host from --host, the default, the only host, or the
//     SSH config picker
//  3. Connect, trying each SSH destination of the host in order
//
// The returned WorkflowContext must be closed to release the connection.
//
// # Flag Handling
//
// Global flags (--config, --host, --verbose, --no-color, --timeout) are
// defined on the root command and available to all subcommands.
package cli
