// Command seed clears the chat users and messages collections and fills
// them with the development fixture (Alice, Bob and six messages).
//
// It is destructive and not synchronized: do not run two copies against
// the same database at once.
package main

import (
	"context"
	"os"

	"github.com/dalemusser/chatseed/app"
	"github.com/dalemusser/chatseed/internal/password"
	"github.com/dalemusser/chatseed/internal/seed"
	"github.com/dalemusser/chatseed/internal/store"
	"github.com/dalemusser/chatseed/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	err := app.Run(context.Background(), app.Hooks{
		Name: "seed",
		Args: os.Args[1:],
		Task: run,
	})
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, env *app.Env) error {
	db := env.Database()

	reg := prometheus.NewRegistry()
	s := seed.New(store.NewUsers(db), store.NewMessages(db),
		seed.WithHasher(password.Bcrypt{Cost: password.Cost(env.Config.BcryptCost)}),
		seed.WithLogger(env.Logger),
		seed.WithMetrics(metrics.NewSeed(reg, env.Logger)),
		// Indexes go on after the clear so leftover duplicates cannot block a reset.
		seed.WithSchema(func(ctx context.Context) error {
			return store.EnsureIndexes(ctx, db)
		}),
	)

	_, err := s.Run(ctx, seed.DefaultFixture())

	if path := env.Config.MetricsTextfile; path != "" {
		if werr := metrics.WriteTextfile(path, reg); werr != nil {
			env.Logger.Warn("metrics textfile not written", zap.Error(werr))
		} else {
			env.Logger.Debug("metrics textfile written", zap.String("path", path))
		}
	}
	return err
}
