// Package preflight provides readiness checks for the filesystem paths and
// the conversion service that pixbatch depends on.
//
// The convert command runs CheckDirectoryAccess on the output directory
// before it starts a batch, so an unwritable destination fails fast instead
// of after every item has been converted. The status command runs RunAll and
// renders each Result as a table row.
package preflight
