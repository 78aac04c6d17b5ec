package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/closebytel/closeby/internal/clock"
	"github.com/closebytel/closeby/internal/config"
	"github.com/closebytel/closeby/internal/logger"
	"github.com/closebytel/closeby/internal/migration"
	"github.com/closebytel/closeby/internal/observability"
	"github.com/closebytel/closeby/internal/scheduler"
	"github.com/closebytel/closeby/internal/server"
	"github.com/closebytel/closeby/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
