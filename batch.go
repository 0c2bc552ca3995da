package archivekit

import (
	"errors"
	"fmt"
)

// ItemResult records the outcome of one object within a directory-level
// operation.
type ItemResult struct {
	// Source is the object key the operation read.
	Source string
	// Target is the object key the operation wrote. Empty for deletes.
	Target string
	// Err is nil on success.
	Err error
}

// BatchResult lists per-item outcomes of a directory-level operation.
// Directory operations continue past individual failures, so a result can
// mix successes and failures; partial completion is a defined outcome,
// not a rollback trigger.
type BatchResult struct {
	Items []ItemResult
}

// OK reports whether every item succeeded.
func (r *BatchResult) OK() bool {
	for _, item := range r.Items {
		if item.Err != nil {
			return false
		}
	}
	return true
}

// Failed returns the items that did not complete.
func (r *BatchResult) Failed() []ItemResult {
	var failed []ItemResult
	for _, item := range r.Items {
		if item.Err != nil {
			failed = append(failed, item)
		}
	}
	return failed
}

// Err returns nil when every item succeeded, otherwise a joined error
// naming each failed item.
func (r *BatchResult) Err() error {
	var errs []error
	for _, item := range r.Items {
		if item.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", item.Source, item.Err))
		}
	}
	return errors.Join(errs...)
}
