// Package fetch implements the first pipeline stage: profile-driven YouTube
// searches persisted as one record per video.
package fetch
