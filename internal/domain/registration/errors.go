package registration

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingResource means the bundle lacks a resource nothing
	// downstream can proceed without (child, task, mother, or a resolvable
	// composition id). Fatal; no partial write-set is ever produced.
	ErrMissingResource = errors.New("missing required resource")

	// ErrAmbiguousMatch means a structural predicate matched multiple
	// candidates where exactly one was expected and no documented tie-break
	// applies.
	ErrAmbiguousMatch = errors.New("ambiguous resource match")

	// ErrIdentityLookup means the identity store was unreachable. The
	// resolver propagates it rather than guessing a local id.
	ErrIdentityLookup = errors.New("identity lookup failed")
)

func missingResourceErr(names ...string) error {
	return fmt.Errorf("%w: %s", ErrMissingResource, strings.Join(names, ", "))
}
