// Package batch implements the batch conversion controller.
//
// A Controller owns an ordered set of items, each tracked through
// Pending → Converting → Done/Error. All batch state lives in a single loop
// goroutine; public operations and asynchronous results (previews, result
// probes, conversion outcomes) reach it as messages keyed by item ID and are
// applied only after checking that the item still exists. A late result for
// a removed item is discarded and its handle released.
//
// Conversion runs are executed by one long-lived worker goroutine, so at most
// one conversion call is in flight per controller. A run converts the
// snapshot of Pending and Error items taken when it starts and keeps going
// when an item fails; calling Run again retries what is left.
//
// Handles for previews and results are released exactly once: when they are
// superseded, when their item is removed, on Reset, or on Close.
package batch
