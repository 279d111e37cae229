package workflow

// Event types emitted by the engine after commit.
const (
	EventApplicationAccepted  = "application_accepted"
	EventPointsAwarded        = "points_awarded"
	EventRedemptionCompleted  = "redemption_completed"
	EventOpportunityConcluded = "opportunity_concluded"
)

// Event describes a committed workflow outcome. The server fans these out to
// the WebSocket hub and the push notifier.
type Event struct {
	Type          string `json:"type"`
	VolunteerID   int64  `json:"volunteer_id,omitempty"`
	OpportunityID int64  `json:"opportunity_id,omitempty"`
	ApplicationID int64  `json:"application_id,omitempty"`
	BenefitID     int64  `json:"benefit_id,omitempty"`
	RedemptionID  int64  `json:"redemption_id,omitempty"`
	Points        int    `json:"points,omitempty"`
	Balance       int    `json:"balance,omitempty"`
}
