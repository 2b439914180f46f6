package models

import "time"

// ChangeKindHousehold marks a change event for the household record itself
// (rename) rather than a bucket.
const ChangeKindHousehold = "household"

// ChangeEvent is pushed to every subscriber of a household after a write lands.
type ChangeEvent struct {
	HouseholdID string    `json:"householdId"`
	Bucket      string    `json:"bucket"`
	Revision    int64     `json:"revision"`
	Origin      string    `json:"origin,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}
