// Package status inspects the on-disk pipeline state for a processing date.
package status
