// Package report implements the terminal pipeline stage: a static HTML page
// of the day's enhanced videos sorted happiest first, plus refreshed
// analytics snapshots for the upstream stages.
package report
