// Package scheduler orchestrates the availability engine for
// multi-participant requests.
//
// The Finder fetches busy events for every participant concurrently through
// an EventSource collaborator, runs the availability pipeline, and reports
// one of three outcomes: candidate slots, no working hours in the range, or
// no mutually free slot. The two empty outcomes are informational values,
// not errors.
//
// The Scheduler books a chosen slot through a BookingSink collaborator,
// falling back to the first candidate slot when the caller did not pick
// one.
//
// This package performs no provider I/O itself; authentication, retries and
// rate limiting are entirely the collaborators' concern.
package scheduler
