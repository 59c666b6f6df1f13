// Package progress reports per-object download outcomes and the final
// run summary.
//
// The reporter is fed one outcome at a time from the dispatcher's
// collecting goroutine. Completion order is arbitrary, which is fine:
// every line stands alone and the tally is order-independent.
//
// In quiet mode only failures are printed; the summary is always printed.
package progress
