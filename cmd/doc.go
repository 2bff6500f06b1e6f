// Package cmd implements the command-line interface for the prefstore
// settings store. It provides a hierarchical command structure for
// inspecting and maintaining a store on disk.
//
// The package is organized into several subpackages:
//
//   - health: Quota usage and health reporting
//   - maintain: The maintenance pass, one-shot or periodic
//   - bundle: Export, validation, import and list subscriptions
//   - conflicts: Keyboard shortcut conflict detection
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See prefstore -help for a list of all commands.
package cmd
