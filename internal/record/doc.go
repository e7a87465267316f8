// Package record implements the markdown-with-frontmatter codec used for
// every persisted pipeline item.
//
// A record file is a YAML mapping between two "---" delimiters followed by a
// free-text body. Metadata preserves field insertion order so that a record
// augmented by a later stage keeps its earlier fields in place. Decode never
// guesses: text without a leading delimiter is all body, and an unparseable
// frontmatter block fails with services.ErrMalformedRecord so callers can
// skip the file and keep going.
package record
