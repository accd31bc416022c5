package main

import (
	"context"

	"github.com/kw-00/gossip/internal/client/cli"
	"github.com/kw-00/gossip/internal/client/config"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app := cli.NewApp(cfg)

	app.Run(ctx)

}
