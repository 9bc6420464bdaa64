package registration

import (
	"fmt"

	"github.com/crvs/bridge/internal/platform/crvs"
)

// Extracted holds typed handles into one notification bundle. It is the
// output of Extract and the sole input, together with identity resolutions,
// of the assembler.
type Extracted struct {
	Task          *crvs.Resource
	CompositionID string

	Child  *crvs.Resource
	Mother *crvs.Resource
	Father *crvs.Resource

	// Informant is the informant's Patient resource when the informant is a
	// distinct third party (neither mother nor father); nil otherwise.
	Informant         *crvs.Resource
	InformantRelation *crvs.Resource
	MotherIsInformant bool
	FatherIsInformant bool

	EventLocation *crvs.EventLocation
	Timestamp     string
}

// Extract walks the bundle's flat entry list and picks out the registration
// resources by kind and structural predicate. Pure over the bundle; entry
// order matters only as a first-match tie-break.
func Extract(n *crvs.Notification) (*Extracted, error) {
	entries := n.Entries()

	task := crvs.Find(entries, crvs.KindTask, crvs.Any)

	// The composition may be absent from the bundle; its id is then carried
	// by the task's focus reference.
	compositionID := ""
	if comp := crvs.Find(entries, crvs.KindComposition, crvs.Any); comp != nil {
		compositionID = comp.ID
	} else if task != nil {
		compositionID = task.Focus.TargetID()
	}

	// Child: the patient carrying a birth-registration-number identifier;
	// bundles without explicit coding record the child as the only patient
	// with a gender set.
	child := crvs.Find(entries, crvs.KindPatient, func(r *crvs.Resource) bool {
		return r.HasIdentifierTypeCode(crvs.CodeBirthRegistrationNumber)
	})
	if child == nil {
		child = crvs.Find(entries, crvs.KindPatient, func(r *crvs.Resource) bool {
			return r.Gender != ""
		})
	}

	parents := crvs.FindAll(entries, crvs.KindPatient, func(r *crvs.Resource) bool {
		if child != nil && r.ID == child.ID {
			return false
		}
		return r.Gender == "" && r.IsActive()
	})

	mother := patientForRelation(entries, crvs.CodeMother)
	father := patientForRelation(entries, crvs.CodeFather)

	// Some upstream deliveries omit the RelatedPerson resources entirely.
	// Fall back to splitting the parent-shaped patients on the external-id
	// identifier.
	if mother == nil && father == nil && len(parents) > 0 {
		var err error
		mother, father, err = splitParentsByExternalID(parents)
		if err != nil {
			return nil, err
		}
	}

	ex := &Extracted{
		Task:          task,
		CompositionID: compositionID,
		Child:         child,
		Mother:        mother,
		Father:        father,
		EventLocation: n.EventLocation(),
		Timestamp:     n.Timestamp,
	}

	extractInformant(entries, ex)

	var missing []string
	if ex.Child == nil {
		missing = append(missing, "child")
	}
	if ex.Task == nil {
		missing = append(missing, "task")
	}
	if ex.Mother == nil {
		missing = append(missing, "mother")
	}
	if ex.CompositionID == "" {
		missing = append(missing, "composition id")
	}
	if len(missing) > 0 {
		return nil, missingResourceErr(missing...)
	}
	return ex, nil
}

// patientForRelation resolves a RelatedPerson with the given relationship
// code to the Patient it references, or nil.
func patientForRelation(entries []crvs.Entry, code string) *crvs.Resource {
	rel := crvs.Find(entries, crvs.KindRelatedPerson, func(r *crvs.Resource) bool {
		return r.HasRelationshipCode(code)
	})
	if rel == nil {
		return nil
	}
	return crvs.FindByID(entries, crvs.KindPatient, rel.Patient.TargetID())
}

// splitParentsByExternalID applies the no-relationship-data heuristic: the
// parent-shaped patient carrying an EXTERNAL_PERSON_ID identifier is taken as
// the mother, the one without as the father. This is upstream-confirmed
// policy, not structure. When both candidates carry external ids the split
// has no basis and the extraction refuses to guess.
func splitParentsByExternalID(parents []*crvs.Resource) (mother, father *crvs.Resource, err error) {
	var withExt, withoutExt []*crvs.Resource
	for _, p := range parents {
		if p.HasIdentifierTypeCode(crvs.CodeExternalPersonID) {
			withExt = append(withExt, p)
		} else {
			withoutExt = append(withoutExt, p)
		}
	}
	if len(withExt) > 1 {
		return nil, nil, fmt.Errorf("%w: %d parent patients carry an external person id", ErrAmbiguousMatch, len(withExt))
	}

	if len(withExt) == 1 {
		mother = withExt[0]
	} else {
		mother = parents[0]
	}
	if len(withoutExt) > 0 && withoutExt[0] != mother {
		father = withoutExt[0]
	} else if len(parents) > 1 {
		for _, p := range parents {
			if p != mother {
				father = p
				break
			}
		}
	}
	return mother, father, nil
}

// extractInformant locates the INFORMANT relation and classifies the party it
// points at. A third-party informant whose patient resource is not in the
// bundle is silently skipped.
func extractInformant(entries []crvs.Entry, ex *Extracted) {
	rel := crvs.Find(entries, crvs.KindRelatedPerson, func(r *crvs.Resource) bool {
		return r.HasRelationshipCode(crvs.CodeInformant)
	})
	if rel == nil {
		return
	}
	ex.InformantRelation = rel

	patientID := rel.Patient.TargetID()
	if patientID == "" {
		return
	}
	if ex.Mother != nil && patientID == ex.Mother.ID {
		ex.MotherIsInformant = true
		return
	}
	if ex.Father != nil && patientID == ex.Father.ID {
		ex.FatherIsInformant = true
		return
	}
	ex.Informant = crvs.FindByID(entries, crvs.KindPatient, patientID)
}
