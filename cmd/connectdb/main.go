// Command connectdb opens a MongoDB connection with the chat backend's
// startup policy (5s server selection, 45s socket timeout, IPv4 only),
// reports the host and exits. It exits 1 if the connection fails.
package main

import (
	"context"
	"os"
	"time"

	"github.com/dalemusser/chatseed/app"
	"github.com/dalemusser/chatseed/config"
	"github.com/dalemusser/chatseed/logging"
	"go.uber.org/zap"
)

func main() {
	bootstrap := logging.BootstrapLogger("connectdb")

	cfg, err := config.Load(bootstrap, os.Args[1:])
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		_ = bootstrap.Sync()
		os.Exit(1)
	}

	logger := logging.MustBuildLogger(cfg.LogLevel, cfg.Env, "connectdb")
	defer logger.Sync()

	db := app.MustConnect(context.Background(), cfg, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Close(ctx); err != nil {
		logger.Warn("MongoDB disconnect failed", zap.Error(err))
	}
}
