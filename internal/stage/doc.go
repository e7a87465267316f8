// Package stage defines the contract between the pipeline orchestrator and
// the concrete processing stages, plus the Result type every run produces.
package stage
