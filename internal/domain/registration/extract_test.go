package registration

import (
	"errors"
	"strings"
	"testing"

	"github.com/crvs/bridge/internal/platform/crvs"
)

func boolPtr(b bool) *bool { return &b }

func typedIdentifier(code, value string) crvs.Identifier {
	return crvs.Identifier{
		Value: value,
		Type:  &crvs.CodeableConcept{Coding: []crvs.Coding{{Code: code}}},
	}
}

func taskResource() crvs.Resource {
	return crvs.Resource{
		ResourceType: crvs.KindTask,
		ID:           "task-1",
		Focus:        &crvs.Reference{Reference: "Composition/comp-1"},
		LastModified: "2024-03-10T08:30:00Z",
		BusinessStatus: &crvs.CodeableConcept{
			Coding: []crvs.Coding{{Code: "REGISTERED"}},
		},
		Identifier: []crvs.Identifier{
			{System: crvs.SystemBirthRegistrationNumber, Value: "2024UBRN001"},
			{System: crvs.SystemBirthTrackingID, Value: "B4KGH7"},
		},
	}
}

func childResource() crvs.Resource {
	return crvs.Resource{
		ResourceType: crvs.KindPatient,
		ID:           "child-1",
		Gender:       "female",
		BirthDate:    "2024-03-01",
		Name:         []crvs.HumanName{{Given: []string{"Akello"}, Family: "Okot"}},
		Identifier: []crvs.Identifier{
			typedIdentifier(crvs.CodeBirthRegistrationNumber, "2024UBRN001"),
		},
	}
}

func motherResource() crvs.Resource {
	return crvs.Resource{
		ResourceType: crvs.KindPatient,
		ID:           "mother-1",
		Active:       boolPtr(true),
		Name:         []crvs.HumanName{{Given: []string{"Grace"}, Family: "Okot"}},
		BirthDate:    "1995-06-15",
		Identifier: []crvs.Identifier{
			typedIdentifier(crvs.CodeExternalPersonID, "ext-mother-1"),
		},
	}
}

func fatherResource() crvs.Resource {
	return crvs.Resource{
		ResourceType: crvs.KindPatient,
		ID:           "father-1",
		Active:       boolPtr(true),
		Name:         []crvs.HumanName{{Given: []string{"John"}, Family: "Okot"}},
	}
}

func relation(code, patientID string) crvs.Resource {
	return crvs.Resource{
		ResourceType: crvs.KindRelatedPerson,
		ID:           "rel-" + strings.ToLower(code) + "-" + patientID,
		Relationship: &crvs.CodeableConcept{Coding: []crvs.Coding{{Code: code}}},
		Patient:      &crvs.Reference{Reference: "Patient/" + patientID},
	}
}

func notification(resources ...crvs.Resource) *crvs.Notification {
	entries := make([]crvs.Entry, len(resources))
	for i, r := range resources {
		entries[i] = crvs.Entry{Resource: r}
	}
	return &crvs.Notification{
		ID:        "notif-1",
		Timestamp: "2024-03-10T09:00:00Z",
		Event: crvs.Event{
			Hub: &crvs.Hub{
				Topic: crvs.TopicBirthRegistered,
				EventLocation: &crvs.EventLocation{
					Type: crvs.LocationHealthFacility,
					Name: "Mulago Hospital",
				},
			},
			Context: []crvs.Context{{Entry: entries}},
		},
	}
}

func fullNotification() *crvs.Notification {
	return notification(
		taskResource(),
		childResource(),
		motherResource(),
		fatherResource(),
		relation(crvs.CodeMother, "mother-1"),
		relation(crvs.CodeFather, "father-1"),
	)
}

func TestExtractFullBundle(t *testing.T) {
	ex, err := Extract(fullNotification())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	if ex.Child == nil || ex.Child.ID != "child-1" {
		t.Fatalf("child = %+v", ex.Child)
	}
	if ex.Mother == nil || ex.Mother.ID != "mother-1" {
		t.Fatalf("mother = %+v", ex.Mother)
	}
	if ex.Father == nil || ex.Father.ID != "father-1" {
		t.Fatalf("father = %+v", ex.Father)
	}
	if ex.CompositionID != "comp-1" {
		t.Fatalf("composition id = %q", ex.CompositionID)
	}
	if ex.Timestamp != "2024-03-10T09:00:00Z" {
		t.Fatalf("timestamp = %q", ex.Timestamp)
	}
	if ex.EventLocation == nil || ex.EventLocation.Name != "Mulago Hospital" {
		t.Fatalf("event location = %+v", ex.EventLocation)
	}
}

func TestExtractCompositionResource(t *testing.T) {
	n := notification(
		taskResource(),
		crvs.Resource{ResourceType: crvs.KindComposition, ID: "comp-explicit"},
		childResource(),
		motherResource(),
		relation(crvs.CodeMother, "mother-1"),
	)
	ex, err := Extract(n)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if ex.CompositionID != "comp-explicit" {
		t.Fatalf("composition id = %q, want comp-explicit", ex.CompositionID)
	}
}

func TestExtractChildWithoutBRN(t *testing.T) {
	child := childResource()
	child.Identifier = nil
	n := notification(
		taskResource(),
		child,
		motherResource(),
		relation(crvs.CodeMother, "mother-1"),
	)
	ex, err := Extract(n)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// Falls back to the only gendered patient.
	if ex.Child == nil || ex.Child.ID != "child-1" {
		t.Fatalf("child = %+v", ex.Child)
	}
}

func TestExtractParentFallback(t *testing.T) {
	t.Run("ExternalIDSplitsMother", func(t *testing.T) {
		n := notification(
			taskResource(),
			childResource(),
			fatherResource(),
			motherResource(),
		)
		ex, err := Extract(n)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		// The external-id carrier is the mother even though the father
		// appears first in the bundle.
		if ex.Mother == nil || ex.Mother.ID != "mother-1" {
			t.Fatalf("mother = %+v", ex.Mother)
		}
		if ex.Father == nil || ex.Father.ID != "father-1" {
			t.Fatalf("father = %+v", ex.Father)
		}
	})

	t.Run("NoExternalIDFirstIsMother", func(t *testing.T) {
		mother := motherResource()
		mother.Identifier = nil
		n := notification(
			taskResource(),
			childResource(),
			mother,
			fatherResource(),
		)
		ex, err := Extract(n)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if ex.Mother == nil || ex.Mother.ID != "mother-1" {
			t.Fatalf("mother = %+v", ex.Mother)
		}
		if ex.Father == nil || ex.Father.ID != "father-1" {
			t.Fatalf("father = %+v", ex.Father)
		}
	})

	t.Run("AmbiguousWhenBothCarryExternalID", func(t *testing.T) {
		father := fatherResource()
		father.Identifier = []crvs.Identifier{typedIdentifier(crvs.CodeExternalPersonID, "ext-father-1")}
		n := notification(
			taskResource(),
			childResource(),
			motherResource(),
			father,
		)
		_, err := Extract(n)
		if !errors.Is(err, ErrAmbiguousMatch) {
			t.Fatalf("err = %v, want ErrAmbiguousMatch", err)
		}
	})

	t.Run("SingleParent", func(t *testing.T) {
		n := notification(
			taskResource(),
			childResource(),
			motherResource(),
		)
		ex, err := Extract(n)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if ex.Mother == nil || ex.Mother.ID != "mother-1" {
			t.Fatalf("mother = %+v", ex.Mother)
		}
		if ex.Father != nil {
			t.Fatalf("father = %+v, want nil", ex.Father)
		}
	})
}

func TestExtractInformant(t *testing.T) {
	t.Run("MotherIsInformant", func(t *testing.T) {
		n := fullNotification()
		n.Event.Context[0].Entry = append(n.Event.Context[0].Entry,
			crvs.Entry{Resource: relation(crvs.CodeInformant, "mother-1")})
		ex, err := Extract(n)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if !ex.MotherIsInformant || ex.FatherIsInformant || ex.Informant != nil {
			t.Fatalf("informant flags: mother=%v father=%v third=%v",
				ex.MotherIsInformant, ex.FatherIsInformant, ex.Informant)
		}
	})

	t.Run("ThirdParty", func(t *testing.T) {
		grandmother := crvs.Resource{
			ResourceType: crvs.KindPatient,
			ID:           "gm-1",
			Active:       boolPtr(true),
			Gender:       "female",
			Name:         []crvs.HumanName{{Given: []string{"Betty"}, Family: "Okot"}},
		}
		rel := relation(crvs.CodeInformant, "gm-1")
		rel.Relationship.Coding = append(rel.Relationship.Coding, crvs.Coding{Code: "GRANDMOTHER"})

		n := fullNotification()
		n.Event.Context[0].Entry = append(n.Event.Context[0].Entry,
			crvs.Entry{Resource: grandmother},
			crvs.Entry{Resource: rel},
		)
		ex, err := Extract(n)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if ex.Informant == nil || ex.Informant.ID != "gm-1" {
			t.Fatalf("informant = %+v", ex.Informant)
		}
		if ex.InformantRelation == nil {
			t.Fatal("informant relation not captured")
		}
		if ex.MotherIsInformant || ex.FatherIsInformant {
			t.Fatal("unexpected parent informant flags")
		}
	})

	t.Run("UnresolvableInformantSkipped", func(t *testing.T) {
		n := fullNotification()
		n.Event.Context[0].Entry = append(n.Event.Context[0].Entry,
			crvs.Entry{Resource: relation(crvs.CodeInformant, "absent-1")})
		ex, err := Extract(n)
		if err != nil {
			t.Fatalf("Extract: %v", err)
		}
		if ex.Informant != nil {
			t.Fatalf("informant = %+v, want nil", ex.Informant)
		}
	})
}

func TestExtractMissingResources(t *testing.T) {
	t.Run("NoChild", func(t *testing.T) {
		n := notification(taskResource(), motherResource(), relation(crvs.CodeMother, "mother-1"))
		_, err := Extract(n)
		if !errors.Is(err, ErrMissingResource) {
			t.Fatalf("err = %v, want ErrMissingResource", err)
		}
		if !strings.Contains(err.Error(), "child") {
			t.Fatalf("err = %v, should name the child", err)
		}
	})

	t.Run("NoTask", func(t *testing.T) {
		n := notification(childResource(), motherResource(), relation(crvs.CodeMother, "mother-1"))
		_, err := Extract(n)
		if !errors.Is(err, ErrMissingResource) {
			t.Fatalf("err = %v, want ErrMissingResource", err)
		}
		// Without a task the composition id is also unresolvable; both are
		// reported in one pass.
		if !strings.Contains(err.Error(), "task") || !strings.Contains(err.Error(), "composition id") {
			t.Fatalf("err = %v, should name task and composition id", err)
		}
	})

	t.Run("NoMother", func(t *testing.T) {
		n := notification(taskResource(), childResource())
		_, err := Extract(n)
		if !errors.Is(err, ErrMissingResource) {
			t.Fatalf("err = %v, want ErrMissingResource", err)
		}
		if !strings.Contains(err.Error(), "mother") {
			t.Fatalf("err = %v, should name the mother", err)
		}
	})

	t.Run("EmptyBundle", func(t *testing.T) {
		_, err := Extract(&crvs.Notification{})
		if !errors.Is(err, ErrMissingResource) {
			t.Fatalf("err = %v, want ErrMissingResource", err)
		}
	})
}
