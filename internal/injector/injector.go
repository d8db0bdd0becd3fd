//go:build wireinject
// +build wireinject

// The build tag makes sure the stub is not built in the final build.

package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/nub/internal/server"
)

func InitializeServer(cfg server.Config) *server.Server {
	wire.Build(ProviderSet)
	return nil
}
