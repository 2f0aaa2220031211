// Package textutil provides small text helpers shared by the CLI and the
// transform catalog: filename sanitization, display titles derived from
// source file names, and truncation for table cells.
package textutil
