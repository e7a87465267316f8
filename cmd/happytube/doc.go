// Command happytube is the CLI for the daily happy-video pipeline: it runs
// individual stages or the whole chain for a date, inspects on-disk state,
// and exports analytics snapshots.
package main
