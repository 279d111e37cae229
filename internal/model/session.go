package model

import "time"

// Session subject types.
const (
	SubjectVolunteer = "volunteer"
	SubjectPromoter  = "promoter"
)

type Session struct {
	ID          int64     `json:"id"`
	Token       string    `json:"token"`
	SubjectType string    `json:"subject_type"`
	SubjectID   int64     `json:"subject_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
