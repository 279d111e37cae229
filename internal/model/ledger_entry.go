package model

import "time"

// LedgerEntry is the audit record written alongside every balance mutation.
// Delta is positive for awards and negative for redemptions; BalanceAfter is
// the volunteer's total_points immediately after the mutation committed.
type LedgerEntry struct {
	ID           int64     `json:"id"`
	VolunteerID  int64     `json:"volunteer_id"`
	Delta        int       `json:"delta"`
	Reason       string    `json:"reason"`
	Reference    string    `json:"reference,omitempty"`
	BalanceAfter int       `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
