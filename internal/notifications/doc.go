// Package notifications pushes pipeline run summaries to an ntfy topic.
// The service degrades to a noop when no topic is configured.
package notifications
