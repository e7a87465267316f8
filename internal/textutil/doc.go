// Package textutil provides small text classification helpers for video
// titles, currently limited to writing-system detection.
package textutil
