package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/clock"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/migration"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/observability"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/scheduler"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/server"
	"github.com/muralikrishna41140/cakeraft-sub001/internal/storemetrics"
	"github.com/muralikrishna41140/cakeraft-sub001/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Migrations run before the HTTP server accepts traffic.
		migration.Module,

		server.Module,
		storemetrics.Module,
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
