// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds carried by HouseholdEvent.Kind.
const (
	EventMemberJoined     = "member_joined"
	EventOwnerChanged     = "owner_changed"
	EventHouseholdDeleted = "household_deleted"
)

// HouseholdEvent is published on household lifecycle changes: a member
// joining after an accepted application, an ownership transfer, or the
// household being deleted. It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type HouseholdEvent struct {
	Kind          string `json:"kind"`
	HouseholdID   uint64 `json:"household_id"`
	HouseholdName string `json:"household_name"`
	UserID        uint64 `json:"user_id"`
	NewOwnerID    uint64 `json:"new_owner_id,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}
