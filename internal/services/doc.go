// Package services holds cross-cutting support for stage implementations:
// the sentinel error taxonomy with Wrap for classification-aware messages,
// and context carriers for the stage name, target date, and run identifier
// that the logging package surfaces as structured fields.
package services
