// Package pipeline chains the daily stages for a single processing date.
// Every stage runs even when an earlier one fails, so a broken assessment
// still yields a report and fresh analytics snapshots.
package pipeline
