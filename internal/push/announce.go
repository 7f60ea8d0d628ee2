package push

import (
	"errors"
	"log/slog"

	"github.com/finjaanapp/finjaan/internal/model"
	"github.com/finjaanapp/finjaan/internal/store"
)

// Announcer fans a payload out to every registered device, pruning
// subscriptions the push service reports as gone.
type Announcer struct {
	svc    *Service
	subs   *store.PushStore
	logger *slog.Logger
}

func NewAnnouncer(svc *Service, subs *store.PushStore, logger *slog.Logger) *Announcer {
	return &Announcer{svc: svc, subs: subs, logger: logger}
}

// AnnounceNewOrder alerts barista devices about a fresh order. Runs in
// the background; delivery is best-effort.
func (a *Announcer) AnnounceNewOrder(o *model.Order) {
	payload := NewOrderPayload(o)

	go func() {
		subs, err := a.subs.List()
		if err != nil {
			a.logger.Error("list push subscriptions", "error", err)
			return
		}

		for i := range subs {
			sub := &subs[i]
			err := a.svc.Send(sub, payload)
			if errors.Is(err, ErrExpired) {
				if err := a.subs.DeleteByEndpoint(sub.Endpoint); err != nil {
					a.logger.Error("prune expired subscription", "error", err)
				}
				continue
			}
			if err != nil {
				a.logger.Error("push send failed", "subscription_id", sub.ID, "error", err)
			}
		}
	}()
}
