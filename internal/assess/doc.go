// Package assess implements the happiness scoring stage. Fetched records are
// sent to the LLM in fixed-size batches and re-saved into the assess bucket
// with score, reasoning, and prompt provenance fields.
package assess
