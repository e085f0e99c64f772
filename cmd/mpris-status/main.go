package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/genricoloni/mpris-status/internal/config"
	"github.com/genricoloni/mpris-status/internal/domain"
	"github.com/genricoloni/mpris-status/internal/engine"
	"github.com/genricoloni/mpris-status/internal/lifecycle"
	"github.com/genricoloni/mpris-status/internal/monitor"
	"github.com/genricoloni/mpris-status/internal/output"
	"github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code
func run(args []string) int {
	cfg, err := config.Load(args)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "mpris-status: %v\n", err)
		return 2
	}

	// Handle graceful shutdown
	ctx, stop := lifecycle.NotifyContext(context.Background())
	defer stop()

	app := fx.New(
		// Logger configuration
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		AppOptions(cfg),
	)
	if err := app.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "mpris-status: %v\n", err)
		return 2
	}

	startCtx, cancelStart := context.WithTimeout(ctx, app.StartTimeout())
	defer cancelStart()
	if err := app.Start(startCtx); err != nil {
		fmt.Fprintf(os.Stderr, "mpris-status: %v\n", err)
		return 1
	}

	// Wait for a signal or for the engine to request exit
	exitCode := 0
	select {
	case <-ctx.Done():
	case sig := <-app.Wait():
		exitCode = sig.ExitCode
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancelStop()
	if err := app.Stop(stopCtx); err != nil {
		fmt.Fprintf(os.Stderr, "mpris-status: %v\n", err)
		return 1
	}
	return exitCode
}

// AppOptions wires the application graph around the given configuration
func AppOptions(cfg domain.Config) fx.Option {
	return fx.Options(
		fx.Provide(
			func() domain.Config { return cfg },
			newLogger,
			fx.Annotate(monitor.NewMprisMonitor, fx.As(new(domain.PlayerSource))),
			fx.Annotate(output.NewStdoutWriter, fx.As(new(domain.StatusSink))),
			engine.NewEngine,
		),

		// Lifecycle hooks
		fx.Invoke(registerHooks),
	)
}

// newLogger creates a zap logger writing to stderr; stdout carries the status records
func newLogger(cfg domain.Config) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel())
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	zc := zap.NewProductionConfig()
	zc.Level = level
	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

// registerHooks starts the player source before the engine and stops them in reverse
func registerHooks(lc fx.Lifecycle, logger *zap.Logger, source domain.PlayerSource, eng *engine.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("mpris-status started")
			return source.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			err := source.Stop(ctx)
			logger.Info("Shutting down")
			_ = logger.Sync()
			return err
		},
	})
	lc.Append(fx.Hook{
		OnStart: eng.Start,
		OnStop:  eng.Stop,
	})
}
