// Package crvs models the OpenCRVS event-notification payload: the webhook
// envelope, the flat bundle of typed resources it carries, and the HMAC
// signature scheme the upstream notifier signs requests with.
package crvs

import "strings"

// Resource kinds carried in a notification bundle.
const (
	KindTask          = "Task"
	KindComposition   = "Composition"
	KindPatient       = "Patient"
	KindRelatedPerson = "RelatedPerson"
)

// Identifier systems and type codes used by the upstream registration system.
const (
	SystemBirthRegistrationNumber = "http://opencrvs.org/specs/id/birth-registration-number"
	SystemBirthTrackingID         = "http://opencrvs.org/specs/id/birth-tracking-id"

	CodeBirthRegistrationNumber = "BIRTH_REGISTRATION_NUMBER"
	CodeExternalPersonID        = "EXTERNAL_PERSON_ID"

	CodeMother    = "MOTHER"
	CodeFather    = "FATHER"
	CodeInformant = "INFORMANT"
)

// Event-location types and hub topics.
const (
	LocationHealthFacility = "HEALTH_FACILITY"
	LocationPrivateHome    = "PRIVATE_HOME"

	TopicBirthRegistered = "BIRTH_REGISTERED"
)

// Notification is the full webhook envelope.
type Notification struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Event     Event  `json:"event"`
}

type Event struct {
	Context []Context `json:"context,omitempty"`
	Hub     *Hub      `json:"hub,omitempty"`
}

type Context struct {
	Entry []Entry `json:"entry,omitempty"`
}

type Hub struct {
	Topic         string         `json:"topic,omitempty"`
	EventLocation *EventLocation `json:"eventLocation,omitempty"`
}

type EventLocation struct {
	Type    string   `json:"type,omitempty"`
	Name    string   `json:"name,omitempty"`
	Address *Address `json:"address,omitempty"`
}

type Address struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

type Entry struct {
	FullURL  string   `json:"fullUrl,omitempty"`
	Resource Resource `json:"resource"`
}

// Resource is one typed element of the bundle. The upstream payload is a flat
// list of heterogeneous resources; a single struct tagged by ResourceType
// carries the union of kind-specific fields, and lookup goes through the
// predicate helpers in bundle.go rather than entry order.
type Resource struct {
	ResourceType string `json:"resourceType"`
	ID           string `json:"id,omitempty"`

	// Patient
	Active     *bool        `json:"active,omitempty"`
	Gender     string       `json:"gender,omitempty"`
	BirthDate  string       `json:"birthDate,omitempty"`
	Name       []HumanName  `json:"name,omitempty"`
	Identifier []Identifier `json:"identifier,omitempty"`
	Extension  []Extension  `json:"extension,omitempty"`

	// LocalID is a caller-attached hint carrying an already-known
	// registry-local identifier for this party.
	LocalID string `json:"localId,omitempty"`

	// RelatedPerson
	Relationship *CodeableConcept `json:"relationship,omitempty"`
	Patient      *Reference       `json:"patient,omitempty"`

	// Task
	Focus          *Reference       `json:"focus,omitempty"`
	LastModified   string           `json:"lastModified,omitempty"`
	BusinessStatus *CodeableConcept `json:"businessStatus,omitempty"`
}

type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family string   `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

type Identifier struct {
	System string           `json:"system,omitempty"`
	Value  string           `json:"value,omitempty"`
	Type   *CodeableConcept `json:"type,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

type Coding struct {
	System string `json:"system,omitempty"`
	Code   string `json:"code,omitempty"`
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
}

type Extension struct {
	URL            string     `json:"url"`
	ValueString    string     `json:"valueString,omitempty"`
	ValueReference *Reference `json:"valueReference,omitempty"`
}

// Entries flattens the notification to its bundle entry list. The payload
// nests entries under the first context group.
func (n *Notification) Entries() []Entry {
	if len(n.Event.Context) == 0 {
		return nil
	}
	return n.Event.Context[0].Entry
}

// EventLocation returns the hub event location, if any.
func (n *Notification) EventLocation() *EventLocation {
	if n.Event.Hub == nil {
		return nil
	}
	return n.Event.Hub.EventLocation
}

// Topic returns the hub topic, if any.
func (n *Notification) Topic() string {
	if n.Event.Hub == nil {
		return ""
	}
	return n.Event.Hub.Topic
}

// GivenName joins the non-empty given-name parts of the first name with
// single spaces. Empty string when the resource carries no name.
func (r *Resource) GivenName() string {
	if len(r.Name) == 0 {
		return ""
	}
	var parts []string
	for _, g := range r.Name[0].Given {
		if g != "" {
			parts = append(parts, g)
		}
	}
	return strings.Join(parts, " ")
}

// FamilyName returns the family name of the first name, or empty string.
func (r *Resource) FamilyName() string {
	if len(r.Name) == 0 {
		return ""
	}
	return r.Name[0].Family
}

// IsActive reports whether the resource is explicitly marked active.
func (r *Resource) IsActive() bool {
	return r.Active != nil && *r.Active
}

// IdentifierBySystem returns the value of the first identifier in the given
// system, or empty string.
func (r *Resource) IdentifierBySystem(system string) string {
	for _, id := range r.Identifier {
		if id.System == system {
			return id.Value
		}
	}
	return ""
}

// IdentifierByTypeCode returns the value of the first identifier whose type
// carries the given coding code, or empty string.
func (r *Resource) IdentifierByTypeCode(code string) string {
	for _, id := range r.Identifier {
		if id.Type.HasCode(code) {
			return id.Value
		}
	}
	return ""
}

// HasIdentifierTypeCode reports whether any identifier's type carries the
// given coding code.
func (r *Resource) HasIdentifierTypeCode(code string) bool {
	for _, id := range r.Identifier {
		if id.Type.HasCode(code) {
			return true
		}
	}
	return false
}

// HasRelationshipCode reports whether the relationship carries the given
// coding code.
func (r *Resource) HasRelationshipCode(code string) bool {
	return r.Relationship.HasCode(code)
}

// RelationshipCodeExcept returns the first relationship coding code other
// than the excluded one, or empty string.
func (r *Resource) RelationshipCodeExcept(exclude string) string {
	if r.Relationship == nil {
		return ""
	}
	for _, c := range r.Relationship.Coding {
		if c.Code != exclude {
			return c.Code
		}
	}
	return ""
}

// HasCode reports whether the concept carries the given coding code. Safe on
// a nil receiver.
func (cc *CodeableConcept) HasCode(code string) bool {
	if cc == nil {
		return false
	}
	for _, c := range cc.Coding {
		if c.Code == code {
			return true
		}
	}
	return false
}

// FirstCode returns the first coding code, or empty string. Safe on a nil
// receiver.
func (cc *CodeableConcept) FirstCode() string {
	if cc == nil || len(cc.Coding) == 0 {
		return ""
	}
	return cc.Coding[0].Code
}

// TargetID returns the id portion of a "Type/id" reference, or empty string.
// Safe on a nil receiver.
func (ref *Reference) TargetID() string {
	if ref == nil {
		return ""
	}
	if i := strings.IndexByte(ref.Reference, '/'); i >= 0 {
		return ref.Reference[i+1:]
	}
	return ""
}
