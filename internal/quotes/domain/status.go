// Package domain provides the core business rules for the quotes bounded
// context: entity shapes, the status state machine and read-time expiry.
package domain

// Status is the stored lifecycle state of a quote.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusSent      Status = "sent"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusExpired   Status = "expired"
	StatusConverted Status = "converted"
)

var knownStatuses = map[Status]struct{}{
	StatusDraft:     {},
	StatusSent:      {},
	StatusAccepted:  {},
	StatusDeclined:  {},
	StatusExpired:   {},
	StatusConverted: {},
}

// transitions lists the targets reachable through the normal flow.
// sent -> sent is allowed so re-sending stays idempotent. "expired" is never
// reached here: it is either derived at read time or set by an override.
var transitions = map[Status][]Status{
	StatusDraft:    {StatusSent},
	StatusSent:     {StatusSent, StatusAccepted, StatusDeclined},
	StatusAccepted: {StatusConverted},
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	_, ok := knownStatuses[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// CanTransitionTo reports whether the normal flow allows moving to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsEditable reports whether items and promotions may be changed.
func (s Status) IsEditable() bool {
	return s == StatusDraft
}

// ParseStatus converts raw input into a known Status.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	return s, s.IsValid()
}
