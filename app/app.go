// app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dalemusser/chatseed/config"
	"github.com/dalemusser/chatseed/internal/mongodb"
	"github.com/dalemusser/chatseed/logging"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// closeTimeout bounds the final disconnect.
const closeTimeout = 5 * time.Second

// Env is what a Task runs against. DB is owned by Run; tasks must not close it.
type Env struct {
	Config *config.Config
	Logger *zap.Logger
	DB     *mongodb.Handle
}

// Database returns the configured database on the connected handle.
func (e *Env) Database() *mongo.Database {
	return e.DB.Database(e.Config.DatabaseName())
}

// Hooks defines the integration points a command provides to Run.
type Hooks struct {
	// Name is used only for logging.
	Name string

	// Args are the command-line arguments without the program name.
	Args []string

	// LoadConfig overrides config.Load. Optional.
	LoadConfig func(logger *zap.Logger, args []string) (*config.Config, error)

	// Task is the command's work. Required.
	Task func(ctx context.Context, env *Env) error
}

// Run executes the one-shot command sequence:
//
//  1. Bootstrap logger
//  2. Load config (Hooks.LoadConfig or config.Load)
//  3. Build final logger based on config
//  4. Wire shutdown signals to a context
//  5. Connect to MongoDB (fixed policy, no retry)
//  6. Run Hooks.Task
//  7. Disconnect, on every path
//
// Run never exits the process; the caller decides the exit code from the
// returned error.
func Run(ctx context.Context, hooks Hooks) (err error) {
	if hooks.Task == nil {
		return errors.New("app: Hooks.Task is required")
	}

	// 1) Bootstrap logger
	bootstrap := logging.BootstrapLogger(hooks.Name)
	defer bootstrap.Sync()

	// 2) Load config
	load := hooks.LoadConfig
	if load == nil {
		load = config.Load
	}
	cfg, err := load(bootstrap, hooks.Args)
	if err != nil {
		bootstrap.Error("config load failed",
			zap.Stringer("kind", mongodb.KindConfig), zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}

	// 3) Final logger
	logger, err := logging.BuildLogger(cfg.LogLevel, cfg.Env, hooks.Name)
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()
	logger.Debug("config loaded", zap.String("config", cfg.Dump()))

	// 4) Shutdown signals → context
	ctx, cancel := WithShutdownSignals(ctx, logger)
	defer cancel()

	// 5) Connect
	db, err := connect(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		defer cancel()
		if cerr := db.Close(closeCtx); cerr != nil {
			logger.Warn("MongoDB disconnect failed", zap.Error(cerr))
		}
	}()

	env := &Env{Config: cfg, Logger: logger, DB: db}

	// 6) Task
	if err := hooks.Task(ctx, env); err != nil {
		logger.Error("task failed",
			zap.String("task", hooks.Name),
			zap.Stringer("kind", mongodb.KindOf(err)),
			zap.Error(err))
		return err
	}
	return nil
}

// connect opens the connection and logs the outcome either way.
func connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*mongodb.Handle, error) {
	db, err := mongodb.Connect(ctx, cfg.ConnectOptions())
	if err != nil {
		logger.Error("MongoDB connection error",
			zap.Stringer("kind", mongodb.KindOf(err)), zap.Error(err))
		return nil, err
	}
	logger.Info("MongoDB connected",
		zap.String("host", db.Host()),
		zap.String("database", cfg.DatabaseName()))
	return db, nil
}

// MustConnect is the process-bootstrap call site: it connects with the
// configured policy or logs the error and exits with status 1. Only use it
// from main; library code should call mongodb.Connect.
func MustConnect(ctx context.Context, cfg *config.Config, logger *zap.Logger) *mongodb.Handle {
	db, err := connect(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		os.Exit(1)
	}
	return db
}
