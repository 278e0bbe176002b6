package pricing

import (
	"go.uber.org/fx"

	"github.com/polkiloo/pizzeria/internal/config"
)

// Module provides the pricing engine configured from application config.
var Module = fx.Provide(newEngineFromConfig)

func newEngineFromConfig(cfg *config.Config) *Engine {
	return NewEngine(cfg.RemovalDiscount)
}
