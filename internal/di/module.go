package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/pizzeria/internal/adapter/notify"
	"github.com/polkiloo/pizzeria/internal/app"
	"github.com/polkiloo/pizzeria/internal/config"
	"github.com/polkiloo/pizzeria/internal/logger"
	"github.com/polkiloo/pizzeria/internal/pkg/auth"
	"github.com/polkiloo/pizzeria/internal/pricing"
	"github.com/polkiloo/pizzeria/internal/server/http/handlers"
	"github.com/polkiloo/pizzeria/internal/server/http/router"
	"github.com/polkiloo/pizzeria/internal/storage/postgres"
	"github.com/polkiloo/pizzeria/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		auth.Module,
		postgres.Module,
		pricing.Module,
		notify.Module,
		usecase.Module,
		fx.Provide(func(s *postgres.Storage) app.HealthChecker { return s }),
		fx.Provide(func(f *app.PizzeriaFacade) handlers.PizzeriaFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
