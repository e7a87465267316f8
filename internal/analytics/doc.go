// Package analytics exports trailing-window snapshots of stage buckets as
// standalone SQLite files, one records table per snapshot.
package analytics
