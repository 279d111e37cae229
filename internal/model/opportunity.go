package model

import "time"

type Opportunity struct {
	ID           int64      `json:"id"`
	PromoterID   int64      `json:"promoter_id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	PointsReward int        `json:"points_reward"`
	Status       string     `json:"status"`
	ConcludedAt  *time.Time `json:"concluded_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Application struct {
	ID                    int64      `json:"id"`
	VolunteerID           int64      `json:"volunteer_id"`
	OpportunityID         int64      `json:"opportunity_id"`
	Status                string     `json:"status"`
	ParticipationConfirmed bool      `json:"participation_confirmed"`
	PointsAwarded         int        `json:"points_awarded"`
	ConfirmedAt           *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}
