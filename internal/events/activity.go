// Package events defines the activity lifecycle event payloads published through the outbox.
package events

import "time"

// Event type names.
const (
	TypeActivityCreated = "activity.created"
	TypeActivityUpdated = "activity.updated"
	TypeActivityDeleted = "activity.deleted"
)

// ActivityCreated is emitted when a new activity is logged.
type ActivityCreated struct {
	ActivityID   string    `json:"activity_id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	ActivityType string    `json:"activity_type"`
	ActivityDate time.Time `json:"activity_date"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// ActivityUpdated carries the post-update view of an activity.
type ActivityUpdated struct {
	ActivityID   string    `json:"activity_id"`
	OwnerID      string    `json:"owner_id"`
	Title        string    `json:"title"`
	ActivityType string    `json:"activity_type"`
	ActivityDate time.Time `json:"activity_date"`
	LastModified time.Time `json:"last_modified"`
}

// ActivityDeleted is emitted after a hard delete.
type ActivityDeleted struct {
	ActivityID string    `json:"activity_id"`
	OwnerID    string    `json:"owner_id"`
	DeletedAt  time.Time `json:"deleted_at"`
}
