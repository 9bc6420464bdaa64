package registration

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Person statuses.
const (
	StatusActive = "active"
	StatusReview = "review"
)

// Participant roles.
const (
	RoleSubject   = "subject"
	RoleMother    = "mother"
	RoleFather    = "father"
	RoleInformant = "informant"
)

// PersonRecord maps to the person table. Field names and the JSON encoding
// of Identifiers are the persistence compatibility surface and must not
// change shape.
type PersonRecord struct {
	ID           uuid.UUID `json:"id"`
	GivenName    string    `json:"given_name"`
	FamilyName   string    `json:"family_name"`
	Gender       string    `json:"gender"`
	DOB          *string   `json:"dob"`
	PlaceOfBirth string    `json:"place_of_birth"`
	Identifiers  string    `json:"identifiers"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EventRecord maps to the event table.
type EventRecord struct {
	ID            uuid.UUID   `json:"id"`
	EventType     string      `json:"event_type"`
	EventDate     *string     `json:"event_date"`
	Location      string      `json:"location"`
	Source        string      `json:"source"`
	Metadata      string      `json:"metadata"`
	CRVSEventUUID string      `json:"crvs_event_uuid"`
	Duplicates    []uuid.UUID `json:"duplicates"`
	Status        *string     `json:"status"`
	LastUpdateAt  *string     `json:"last_update_at"`
	Remarks       *string     `json:"remarks"`
	CreatedAt     time.Time   `json:"created_at"`
}

// ParticipantRecord maps to the event_participant table, linking a person to
// an event in a role.
type ParticipantRecord struct {
	ID                  uuid.UUID `json:"id"`
	PersonID            uuid.UUID `json:"person_id"`
	EventID             uuid.UUID `json:"event_id"`
	Role                string    `json:"role"`
	RelationshipDetails string    `json:"relationship_details"`
	CRVSPersonID        string    `json:"crvs_person_id"`
	Status              string    `json:"status"`
	Remarks             *string   `json:"remarks"`
	CreatedAt           time.Time `json:"created_at"`
}

// WriteSet is the complete output of one registration: the child and its
// registration event, plus auxiliary person/event/participant triples for
// parties not previously known to the registry. Consumers must write the
// New* collections before the primary payloads; participant rows foreign-key
// into person and event ids that only exist once the auxiliary inserts land.
type WriteSet struct {
	PersonPayload       PersonRecord        `json:"personPayload"`
	EventPayload        EventRecord         `json:"eventPayload"`
	ParticipantPayloads []ParticipantRecord `json:"participantPayloads"`
	NewPersons          []PersonRecord      `json:"newPersons"`
	NewEvents           []EventRecord       `json:"newEvents"`
	NewParticipants     []ParticipantRecord `json:"newParticipants"`
}

// IdentifierEntry is one element of a person's JSON-encoded identifiers
// sequence.
type IdentifierEntry struct {
	Type  string `json:"type"`
	Value string `json:"value"`
	Event string `json:"event,omitempty"`
}

// RelationshipDetails is the opaque JSON stored on a participant link.
type RelationshipDetails struct {
	Type          string `json:"type,omitempty"`
	Relationship  string `json:"relationship,omitempty"`
	InformantType string `json:"informantType,omitempty"`
	Import        string `json:"import,omitempty"`
}

func encodeIdentifiers(ids []IdentifierEntry) string {
	b, _ := json.Marshal(ids)
	return string(b)
}

func (d RelationshipDetails) encode() string {
	b, _ := json.Marshal(d)
	return string(b)
}
