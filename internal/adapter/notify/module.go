package notify

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/pizzeria/internal/config"
)

// Module exposes the display notifier to fx graph.
var Module = fx.Provide(newNotifier)

type notifierParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newNotifier(p notifierParams) (Notifier, error) {
	if p.Config.KitchenWebhookURL == "" {
		return NewLogNotifier(p.Logger), nil
	}
	return NewWebhookNotifier(p.Config.KitchenWebhookURL, p.Logger)
}
