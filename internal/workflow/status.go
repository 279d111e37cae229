package workflow

// Application statuses. An application starts pending; a promoter moves it to
// accepted or rejected exactly once. Rejected is terminal. An accepted
// application can additionally have its participation confirmed once, which
// is when points are awarded.
const (
	ApplicationPending  = "pending"
	ApplicationAccepted = "accepted"
	ApplicationRejected = "rejected"
)

// Opportunity statuses. Open on creation, concluded exactly once.
const (
	OpportunityOpen      = "open"
	OpportunityConcluded = "concluded"
)

// Redemption statuses.
const (
	RedemptionCompleted = "completed"
	RedemptionCancelled = "cancelled"
)

// applicationTransitions is the authoritative transition table for
// application statuses. Every mutator consults it; legality of a transition
// lives nowhere else.
var applicationTransitions = map[string][]string{
	ApplicationPending:  {ApplicationAccepted, ApplicationRejected},
	ApplicationAccepted: {},
	ApplicationRejected: {},
}

// CanTransitionApplication reports whether an application may move from one
// status to another.
func CanTransitionApplication(from, to string) bool {
	for _, allowed := range applicationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidApplicationStatus reports whether s is a known application status.
func ValidApplicationStatus(s string) bool {
	_, ok := applicationTransitions[s]
	return ok
}

// CanConclude reports whether an opportunity in the given status may be
// concluded.
func CanConclude(status string) bool {
	return status == OpportunityOpen
}
