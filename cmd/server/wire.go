//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package main

import (
	"mather/internal/biz"
	"mather/internal/biz/chart"
	"mather/internal/conf"
	"mather/internal/data"
	"mather/internal/notify"
	"mather/internal/server"
	"mather/internal/service"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
)

// wireApp init kratos application.
func wireApp(*conf.Server, *conf.Data, *conf.Sim, log.Logger) (*kratos.App, func(), error) {
	panic(wire.Build(
		server.ProviderSet,
		data.ProviderSet,
		biz.ProviderSet,
		notify.ProviderSet,
		chart.ProviderSet,
		service.ProviderSet,
		wire.FieldsOf(new(*conf.Sim), "Notify"),
		newApp,
	))
}
