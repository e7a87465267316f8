package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedRecord marks a stored record whose frontmatter cannot be parsed.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrItemProcessing marks a failure scoped to a single item within a stage run.
	ErrItemProcessing = errors.New("item processing error")
	// ErrStageFailure marks a systemic failure that prevents a stage from proceeding.
	ErrStageFailure = errors.New("stage failure")
	// ErrConfiguration marks a missing or invalid configuration reference.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a lookup for a record or bucket that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrTransient marks a retryable external failure.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsItemLevel reports whether an error is scoped to a single item and must be
// counted rather than aborting the stage run.
func IsItemLevel(err error) bool {
	return errors.Is(err, ErrItemProcessing) || errors.Is(err, ErrMalformedRecord)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
