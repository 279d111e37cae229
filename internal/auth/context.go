package auth

import (
	"context"

	"github.com/volunteerhub/volunteerhub/internal/model"
)

type contextKey struct{}

// Identity is the authenticated subject attached to a request context.
type Identity struct {
	SubjectType string
	SubjectID   int64
	SessionID   int64
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// PromoterID returns the authenticated promoter's id, or 0 if the request is
// not a promoter session.
func PromoterID(ctx context.Context) int64 {
	id, ok := FromContext(ctx)
	if !ok || id.SubjectType != model.SubjectPromoter {
		return 0
	}
	return id.SubjectID
}

// VolunteerID returns the authenticated volunteer's id, or 0 if the request
// is not a volunteer session.
func VolunteerID(ctx context.Context) int64 {
	id, ok := FromContext(ctx)
	if !ok || id.SubjectType != model.SubjectVolunteer {
		return 0
	}
	return id.SubjectID
}

func IsPromoter(ctx context.Context) bool {
	return PromoterID(ctx) != 0
}

func IsVolunteer(ctx context.Context) bool {
	return VolunteerID(ctx) != 0
}
