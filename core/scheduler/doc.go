// Package scheduler runs one on-call scheduling request end to end: it
// generates the calendar window, builds and solves the assignment problem,
// and reports the run to the logger, the event bus and the history store.
// Requests load from YAML or JSON files.
package scheduler
