// Package services defines shared utilities consumed by the batch controller
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp item IDs, run IDs, and correlation
//     identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     consistently (validation, not found, external tool, transient).
//   - FailureMessage, which picks the text recorded on an item when its
//     conversion fails.
//
// Use these helpers when wiring new collaborators so operational behaviour
// (error handling, observability) stays uniform across the module.
package services
