package models

import "time"

// Household is a shared group whose buckets are synchronized through the server.
type Household struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code"`
	Revision   int64     `json:"revision"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Token is the membership token. Only the client-side reference carries it.
	Token string `json:"token,omitempty"`
}

type CreateHouseholdRequest struct {
	Name string `json:"name"`
}

type JoinHouseholdRequest struct {
	Code string `json:"code"`
}

type RenameHouseholdRequest struct {
	Name string `json:"name"`
}

type HouseholdResponse struct {
	Success   bool       `json:"success"`
	Message   string     `json:"message,omitempty"`
	Household *Household `json:"household,omitempty"`
	Token     string     `json:"token,omitempty"`
}
