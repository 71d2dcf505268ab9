// Package diagnostics keeps the scanner's debug log and detection statistics.
//
// A Diagnostics handle owns a bounded log buffer (oldest entries evicted
// first), detection and template-cache counters, and rolling averages of
// confidence and processing time over the most recent samples. Every entry is
// buffered; when debugging is enabled entries are also mirrored to a Sink.
// The enabled flag is persisted through a FlagStore so it survives restarts.
//
// Handles are created explicitly with New and passed to the components that
// report to them. There is no package-level instance.
package diagnostics
