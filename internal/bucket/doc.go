// Package bucket persists stage output as per-day directories of record
// files.
//
// A bucket is the set of records one stage produced for one calendar date.
// The producing stage is the only writer; later stages read the bucket as
// input and copy records forward into their own buckets. Saves overwrite
// wholesale via temp-file-plus-rename, which makes reruns idempotent and
// keeps interrupted runs from leaving truncated files.
package bucket
