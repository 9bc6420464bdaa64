package crvs

// Predicate is a structural matching condition over a bundle resource.
type Predicate func(*Resource) bool

// Any matches every resource of the requested kind.
func Any(*Resource) bool { return true }

// Find returns the first resource of the given kind satisfying pred, in
// entry order, or nil. First match wins when several entries satisfy the
// predicate; that tie-break is deliberate and relied on by callers.
func Find(entries []Entry, kind string, pred Predicate) *Resource {
	for i := range entries {
		r := &entries[i].Resource
		if r.ResourceType == kind && pred(r) {
			return r
		}
	}
	return nil
}

// FindAll returns every resource of the given kind satisfying pred, in entry
// order.
func FindAll(entries []Entry, kind string, pred Predicate) []*Resource {
	var out []*Resource
	for i := range entries {
		r := &entries[i].Resource
		if r.ResourceType == kind && pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// FindByID returns the resource of the given kind with the given id, or nil.
func FindByID(entries []Entry, kind, id string) *Resource {
	if id == "" {
		return nil
	}
	return Find(entries, kind, func(r *Resource) bool { return r.ID == id })
}
