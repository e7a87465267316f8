// Package youtube wraps the YouTube Data API v3 search and videos endpoints.
// Searches are profile driven (region, category, ordering) rather than
// keyword driven; durations come from a follow-up contentDetails call since
// the search endpoint does not return them.
package youtube
