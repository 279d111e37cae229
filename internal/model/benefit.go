package model

import "time"

type Benefit struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Category       string    `json:"category"`
	PointsRequired int       `json:"points_required"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Redemption struct {
	ID          int64     `json:"id"`
	Reference   string    `json:"reference"`
	VolunteerID int64     `json:"volunteer_id"`
	BenefitID   int64     `json:"benefit_id"`
	PointsSpent int       `json:"points_spent"`
	Status      string    `json:"status"`
	RedeemedAt  time.Time `json:"redeemed_at"`
}
