package usecase

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/pizzeria/internal/config"
	"github.com/polkiloo/pizzeria/internal/domain/repository"
	"github.com/polkiloo/pizzeria/internal/pricing"
)

// Module provides core business use cases to the fx container.
var Module = fx.Provide(
	NewAuthUseCase,
	newOrderUseCase,
)

type orderUseCaseParams struct {
	fx.In

	Orders    repository.OrderRepository
	Customers repository.CustomerRepository
	Catalog   repository.CatalogRepository
	Engine    *pricing.Engine
	Config    *config.Config
	Logger    *slog.Logger
}

func newOrderUseCase(p orderUseCaseParams) *OrderUseCase {
	return NewOrderUseCase(p.Orders, p.Customers, p.Catalog, p.Engine, p.Config.OrderNumberPrefix, p.Logger)
}
