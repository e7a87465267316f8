package record

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"

	"happytube/internal/services"
)

const delimiter = "---\n"

// Record is one processed item: ordered frontmatter metadata plus free-text
// body. Key identifies the item within a stage bucket and is carried by the
// file name, not the serialized form.
type Record struct {
	Key  string
	Meta Metadata
	Body string
}

// Clone returns an independent copy suitable for augmenting in a later stage.
func (r Record) Clone() Record {
	return Record{Key: r.Key, Meta: r.Meta.Clone(), Body: r.Body}
}

// Encode renders the record as a markdown document with a YAML frontmatter
// block. The layout matches what Decode expects: delimiter, YAML mapping,
// delimiter, blank line, body.
func Encode(meta Metadata, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(delimiter)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta); err != nil {
		return nil, services.Wrap(services.ErrMalformedRecord, "", "encode frontmatter", "", err)
	}
	if err := enc.Close(); err != nil {
		return nil, services.Wrap(services.ErrMalformedRecord, "", "encode frontmatter", "", err)
	}
	buf.WriteString(delimiter)
	buf.WriteByte('\n')
	buf.WriteString(strings.TrimSpace(body))
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// Decode parses a markdown document into metadata and body. Text without a
// leading frontmatter delimiter decodes to empty metadata and the full text as
// body. A frontmatter block that cannot be parsed yields ErrMalformedRecord.
func Decode(text []byte) (Metadata, string, error) {
	s := string(text)
	if !strings.HasPrefix(s, delimiter) {
		return Metadata{}, strings.TrimSpace(s), nil
	}
	parts := strings.SplitN(s, delimiter, 3)
	if len(parts) < 3 {
		return nil, "", services.Wrap(services.ErrMalformedRecord, "", "decode", "unterminated frontmatter block", nil)
	}
	var meta Metadata
	if err := yaml.Unmarshal([]byte(parts[1]), &meta); err != nil {
		return nil, "", services.Wrap(services.ErrMalformedRecord, "", "decode frontmatter", "", err)
	}
	if meta == nil {
		meta = Metadata{}
	}
	return meta, strings.TrimSpace(parts[2]), nil
}
