package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/core/store"
	"github.com/zeusync/nub/internal/server"
)

// ProviderSet builds a server from its configuration.
var ProviderSet = wire.NewSet(ProvideLogger, ProvideStore, ProvideServer)

func ProvideLogger(cfg server.Config) log.Log {
	return log.New(cfg.LogLevel)
}

func ProvideStore(logger log.Log) *store.Store {
	return store.New(store.WithLogger(logger.With(log.String("component", "store"))))
}

func ProvideServer(cfg server.Config, st *store.Store, logger log.Log) *server.Server {
	return server.NewServer(cfg, st, logger)
}
