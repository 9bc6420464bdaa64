package registration

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/crvs/bridge/internal/platform/crvs"
)

const (
	eventTypeBirth = "birth"

	sourceCRVS = "OpenCRVS"
	sourceSeed = "seed"

	unknownValue = "Unknown"

	// remarkInvalidEventUUID marks a synthetic birth event whose
	// crvs_event_uuid is a generated placeholder, not a verified
	// registration. Downstream consumers must treat that field as untrusted
	// on such events.
	remarkInvalidEventUUID = "invalid crvs_event_uuid"
	remarkNewPerson        = "New person created from CRVS webhook"
)

// Assembler deterministically builds a WriteSet from extracted resources and
// identity resolutions.
type Assembler struct {
	now func() time.Time
}

func NewAssembler() *Assembler {
	return &Assembler{now: time.Now}
}

type eventMetadata struct {
	TrackingID         string `json:"trackingId,omitempty"`
	RegistrationNumber string `json:"registrationNumber"`
}

type seedMetadata struct {
	Note string `json:"note"`
}

// Assemble builds the full write-set: the child person and registration
// event, participant links for every party, and auxiliary
// person/event/participant triples for parties resolution marked as new.
// Either the complete object is returned or an error; nothing partial.
func (a *Assembler) Assemble(ex *Extracted, res *Resolved) (*WriteSet, error) {
	switch {
	case ex.Child == nil:
		return nil, missingResourceErr("child")
	case ex.Task == nil:
		return nil, missingResourceErr("task")
	case ex.Mother == nil:
		return nil, missingResourceErr("mother")
	case ex.CompositionID == "":
		return nil, missingResourceErr("composition id")
	}

	now := a.now().UTC()
	task := ex.Task

	registrationNumber := task.IdentifierBySystem(crvs.SystemBirthRegistrationNumber)
	if registrationNumber == "" {
		registrationNumber = "UNKNOWN"
	}
	trackingID := task.IdentifierBySystem(crvs.SystemBirthTrackingID)

	place := placeOfBirth(ex.EventLocation)

	childID := uuid.New()
	eventID := uuid.New()

	childIdentifiers := append([]IdentifierEntry{
		{Type: "NATIONAL_ID", Value: registrationNumber},
		crvsIdentifier(ex.Child.ID),
	}, externalIdentifiers(ex.Child)...)

	person := PersonRecord{
		ID:           childID,
		GivenName:    ex.Child.GivenName(),
		FamilyName:   ex.Child.FamilyName(),
		Gender:       ex.Child.Gender,
		DOB:          optStr(ex.Child.BirthDate),
		PlaceOfBirth: place,
		Identifiers:  encodeIdentifiers(childIdentifiers),
		Status:       StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	metadata, _ := json.Marshal(eventMetadata{
		TrackingID:         trackingID,
		RegistrationNumber: registrationNumber,
	})

	// Registration date: the task's last-modified time, else the webhook's
	// own timestamp, else the processing instant.
	eventDate := task.LastModified
	if eventDate == "" {
		eventDate = ex.Timestamp
	}
	if eventDate == "" {
		eventDate = now.Format(time.RFC3339)
	}

	event := EventRecord{
		ID:            eventID,
		EventType:     eventTypeBirth,
		EventDate:     &eventDate,
		Location:      place,
		Source:        sourceCRVS,
		Metadata:      string(metadata),
		CRVSEventUUID: ex.CompositionID,
		Duplicates:    res.Duplicates,
		Status:        optStr(task.BusinessStatus.FirstCode()),
		LastUpdateAt:  optStr(task.LastModified),
		CreatedAt:     now,
	}

	participants := []ParticipantRecord{
		{
			ID:                  uuid.New(),
			PersonID:            childID,
			EventID:             eventID,
			Role:                RoleSubject,
			RelationshipDetails: RelationshipDetails{Type: "child"}.encode(),
			CRVSPersonID:        ex.Child.ID,
			Status:              StatusActive,
			CreatedAt:           now,
		},
		{
			ID:       uuid.New(),
			PersonID: res.Mother.LocalID,
			EventID:  eventID,
			Role:     RoleMother,
			RelationshipDetails: RelationshipDetails{
				Type:          "mother",
				Relationship:  crvs.CodeMother,
				InformantType: informantType(ex.MotherIsInformant, crvs.CodeMother),
			}.encode(),
			CRVSPersonID: ex.Mother.ID,
			Status:       StatusActive,
			Remarks:      newPersonRemark(res.Mother.IsNew),
			CreatedAt:    now,
		},
	}

	if ex.Father != nil && res.Father != nil {
		status := StatusActive
		if res.Father.IsNew {
			status = StatusReview
		}
		participants = append(participants, ParticipantRecord{
			ID:       uuid.New(),
			PersonID: res.Father.LocalID,
			EventID:  eventID,
			Role:     RoleFather,
			RelationshipDetails: RelationshipDetails{
				Type:          "father",
				Relationship:  crvs.CodeFather,
				InformantType: informantType(ex.FatherIsInformant, crvs.CodeFather),
			}.encode(),
			CRVSPersonID: ex.Father.ID,
			Status:       status,
			Remarks:      newPersonRemark(res.Father.IsNew),
			CreatedAt:    now,
		})
	}

	if ex.Informant != nil && res.Informant != nil {
		relType := ex.InformantRelation.RelationshipCodeExcept(crvs.CodeInformant)
		if relType == "" {
			relType = "OTHER"
		}
		participants = append(participants, ParticipantRecord{
			ID:       uuid.New(),
			PersonID: res.Informant.LocalID,
			EventID:  eventID,
			Role:     RoleInformant,
			RelationshipDetails: RelationshipDetails{
				Type:          "informant",
				Relationship:  relType,
				InformantType: relType,
			}.encode(),
			CRVSPersonID: ex.Informant.ID,
			Status:       StatusActive,
			Remarks:      newPersonRemark(res.Informant.IsNew),
			CreatedAt:    now,
		})
	}

	ws := &WriteSet{
		PersonPayload:       person,
		EventPayload:        event,
		ParticipantPayloads: participants,
	}

	// Auxiliary triples, emitted only for parties resolution marked as new.
	// Each new person gets a seed birth event and a subject participant so
	// every registry person has at least one originating event.
	if res.Mother.IsNew {
		a.appendAux(ws, ex.Mother, res.Mother, "", "", "female", now)
	}
	if ex.Father != nil && res.Father != nil && res.Father.IsNew {
		a.appendAux(ws, ex.Father, *res.Father, unknownValue, "Father", "male", now)
	}
	if ex.Informant != nil && res.Informant != nil && res.Informant.IsNew {
		a.appendAux(ws, ex.Informant, *res.Informant, "", "", "", now)
	}

	return ws, nil
}

// appendAux adds the person/event/participant triple for a newly discovered
// party. The synthetic birth event carries a freshly generated, unverified
// crvs_event_uuid, flagged via remarks.
func (a *Assembler) appendAux(ws *WriteSet, party *crvs.Resource, res Resolution, defGiven, defFamily, defGender string, now time.Time) {
	given := party.GivenName()
	if given == "" {
		given = defGiven
	}
	family := party.FamilyName()
	if family == "" {
		family = defFamily
	}
	gender := party.Gender
	if gender == "" {
		gender = defGender
	}

	identifiers := append([]IdentifierEntry{crvsIdentifier(party.ID)}, externalIdentifiers(party)...)

	ws.NewPersons = append(ws.NewPersons, PersonRecord{
		ID:           res.LocalID,
		GivenName:    given,
		FamilyName:   family,
		Gender:       gender,
		DOB:          optStr(party.BirthDate),
		PlaceOfBirth: unknownValue,
		Identifiers:  encodeIdentifiers(identifiers),
		Status:       StatusReview,
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	seedEventID := uuid.New()
	metadata, _ := json.Marshal(seedMetadata{Note: "generated birth by crvs"})
	remarks := remarkInvalidEventUUID

	ws.NewEvents = append(ws.NewEvents, EventRecord{
		ID:            seedEventID,
		EventType:     eventTypeBirth,
		EventDate:     optStr(party.BirthDate),
		Location:      unknownValue,
		Source:        sourceSeed,
		Metadata:      string(metadata),
		CRVSEventUUID: uuid.New().String(),
		Remarks:       &remarks,
		CreatedAt:     now,
	})

	ws.NewParticipants = append(ws.NewParticipants, ParticipantRecord{
		ID:                  uuid.New(),
		PersonID:            res.LocalID,
		EventID:             seedEventID,
		Role:                RoleSubject,
		RelationshipDetails: RelationshipDetails{Import: "crvs"}.encode(),
		CRVSPersonID:        party.ID,
		Status:              StatusActive,
		CreatedAt:           now,
	})
}

// placeOfBirth derives the human-readable place from the event location:
// facility births name the institution, home births the city and country.
func placeOfBirth(loc *crvs.EventLocation) string {
	if loc == nil {
		return unknownValue
	}
	switch loc.Type {
	case crvs.LocationHealthFacility:
		return "Health Institution, " + loc.Name
	case crvs.LocationPrivateHome:
		city, country := "Town", unknownValue
		if loc.Address != nil {
			if loc.Address.City != "" {
				city = loc.Address.City
			}
			if loc.Address.Country != "" {
				country = loc.Address.Country
			}
		}
		return city + ", " + country
	}
	return unknownValue
}

// crvsIdentifier builds the synthetic identifier tying a person record back
// to its upstream id and originating event type.
func crvsIdentifier(externalID string) IdentifierEntry {
	return IdentifierEntry{Type: "crvs", Value: externalID, Event: eventTypeBirth}
}

// externalIdentifiers re-types a resource's identifiers for storage: every
// identifier with a non-blank value, typed by its first coding code or
// UNKNOWN when uncoded.
func externalIdentifiers(r *crvs.Resource) []IdentifierEntry {
	var out []IdentifierEntry
	for _, id := range r.Identifier {
		if strings.TrimSpace(id.Value) == "" {
			continue
		}
		typ := id.Type.FirstCode()
		if typ == "" {
			typ = "UNKNOWN"
		}
		out = append(out, IdentifierEntry{Type: typ, Value: id.Value})
	}
	return out
}

func informantType(is bool, code string) string {
	if is {
		return code
	}
	return ""
}

func newPersonRemark(isNew bool) *string {
	if !isNew {
		return nil
	}
	r := remarkNewPerson
	return &r
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
