// Package enhance implements the description rewrite stage for videos whose
// happiness score cleared the configured threshold.
package enhance
