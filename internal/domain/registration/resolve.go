package registration

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/crvs/bridge/internal/platform/crvs"
)

// Resolution is the transient outcome of identity resolution for one
// external party: the registry-local id and whether it was freshly minted.
type Resolution struct {
	LocalID uuid.UUID
	IsNew   bool
}

// Resolved carries the identity resolutions for every party of one bundle.
// It is built per invocation and never shared across bundles.
type Resolved struct {
	Mother    Resolution
	Father    *Resolution
	Informant *Resolution

	// Duplicates are the registry-local event ids of caller-supplied
	// duplicate registrations, in input order, restricted to those the
	// identity store could match.
	Duplicates []uuid.UUID
}

// Resolver decides, per external party, whether a matching local identity
// already exists or must be minted.
type Resolver struct {
	store IdentityStore
}

func NewResolver(store IdentityStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve resolves mother, then father, then informant, then each duplicate
// composition id, in that order. Father is resolved only when paternity data
// exists; informant only when the informant is a distinct third party. The
// sequencing keeps output deterministic for a fixed store state.
func (r *Resolver) Resolve(ctx context.Context, ex *Extracted, dupCompositionIDs []string) (*Resolved, error) {
	if ex.Mother == nil {
		return nil, missingResourceErr("mother")
	}

	out := &Resolved{}

	mother, err := r.resolveParty(ctx, ex.Mother)
	if err != nil {
		return nil, err
	}
	out.Mother = mother

	if ex.Father != nil {
		father, err := r.resolveParty(ctx, ex.Father)
		if err != nil {
			return nil, err
		}
		out.Father = &father
	}

	if ex.Informant != nil {
		informant, err := r.resolveParty(ctx, ex.Informant)
		if err != nil {
			return nil, err
		}
		out.Informant = &informant
	}

	for _, compID := range dupCompositionIDs {
		id, found, err := r.store.LookupEventID(ctx, compID)
		if err != nil {
			return nil, fmt.Errorf("%w: event %q: %v", ErrIdentityLookup, compID, err)
		}
		if found {
			out.Duplicates = append(out.Duplicates, id)
		}
	}

	return out, nil
}

// resolveParty returns the local identity for one external party: the
// caller-attached local-id hint when present, else the external-person
// identifier when it is itself a registry uuid, else a store lookup by the
// party's upstream resource id, else a freshly minted id. Calling it twice
// with the same party against the same store state yields the same outcome.
func (r *Resolver) resolveParty(ctx context.Context, res *crvs.Resource) (Resolution, error) {
	if res.LocalID != "" {
		if id, err := uuid.Parse(res.LocalID); err == nil {
			return Resolution{LocalID: id}, nil
		}
		// A malformed hint is treated as absent rather than fatal.
	}

	// Some deliveries echo a registry-minted uuid back as the party's
	// external-person identifier.
	if ext := res.IdentifierByTypeCode(crvs.CodeExternalPersonID); ext != "" {
		if id, err := uuid.Parse(ext); err == nil {
			return Resolution{LocalID: id}, nil
		}
	}

	id, found, err := r.store.LookupPersonID(ctx, res.ID)
	if err != nil {
		return Resolution{}, fmt.Errorf("%w: person %q: %v", ErrIdentityLookup, res.ID, err)
	}
	if found {
		return Resolution{LocalID: id}, nil
	}

	return Resolution{LocalID: uuid.New(), IsNew: true}, nil
}
