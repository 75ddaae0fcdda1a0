// Package repository owns the in-memory gallery collection and mediates every
// mutation against it.
//
// A Repository is created with New, filled with Load, mutated through its
// command methods and released with Close. Each applied mutation is followed
// by a full persist of both collections and a Change notification to
// subscribers.
//
// Validation failures are reported before anything changes. Storage failures
// are reported after the in-memory mutation has been applied; the
// Repository neither retries nor rolls back, and the next successful save
// writes the whole state again.
//
// The Repository holds no lock. Callers must wait for one call to return
// before issuing the next.
package repository
