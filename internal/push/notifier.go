package push

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/volunteerhub/volunteerhub/internal/store"
	"github.com/volunteerhub/volunteerhub/internal/workflow"
)

// Notifier turns committed workflow events into web push notifications for
// the affected volunteer. Sends happen on a background goroutine per event;
// a failed send is logged, and expired subscriptions are pruned.
type Notifier struct {
	svc    *Service
	store  *store.PushStore
	logger *slog.Logger
}

func NewNotifier(svc *Service, ps *store.PushStore, logger *slog.Logger) *Notifier {
	return &Notifier{svc: svc, store: ps, logger: logger}
}

// HandleEvent is wired as a workflow engine event callback.
func (n *Notifier) HandleEvent(ev workflow.Event) {
	payload, ok := payloadFor(ev)
	if !ok {
		return
	}
	go n.sendToVolunteer(ev.VolunteerID, payload)
}

func payloadFor(ev workflow.Event) (Payload, bool) {
	switch ev.Type {
	case workflow.EventApplicationAccepted:
		return Payload{
			Title: "Application accepted",
			Body:  "Your application was accepted. See you there!",
			Tag:   fmt.Sprintf("application-%d", ev.ApplicationID),
		}, true
	case workflow.EventPointsAwarded:
		return Payload{
			Title: "Points awarded",
			Body:  fmt.Sprintf("You earned %d points for your participation.", ev.Points),
			Tag:   fmt.Sprintf("award-%d", ev.ApplicationID),
		}, true
	case workflow.EventRedemptionCompleted:
		return Payload{
			Title: "Redemption completed",
			Body:  fmt.Sprintf("You spent %d points. New balance: %d.", ev.Points, ev.Balance),
			Tag:   fmt.Sprintf("redemption-%d", ev.RedemptionID),
		}, true
	default:
		return Payload{}, false
	}
}

func (n *Notifier) sendToVolunteer(volunteerID int64, payload Payload) {
	if volunteerID == 0 {
		return
	}
	subs, err := n.store.ListByVolunteer(volunteerID)
	if err != nil {
		n.logger.Error("list push subscriptions", "volunteer_id", volunteerID, "error", err)
		return
	}

	for i := range subs {
		sub := &subs[i]
		err := n.svc.Send(sub, payload)
		if errors.Is(err, ErrExpired) {
			if err := n.store.DeleteByEndpoint(sub.Endpoint); err != nil {
				n.logger.Error("prune expired subscription", "error", err)
			}
			continue
		}
		if err != nil {
			n.logger.Warn("send push", "volunteer_id", volunteerID, "error", err)
		}
	}
}
