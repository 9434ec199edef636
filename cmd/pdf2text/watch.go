package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"pdf2text/internal/config"
	"pdf2text/internal/converter"
	"pdf2text/internal/scheduler"
)

func newWatchCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Convert new or changed PDFs in the source directory on a schedule",
		Long: `watch converts the source directory once at startup and then on every tick
of the cron schedule until interrupted. Unchanged PDFs cost nothing on a tick.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return runWatch(cmd.Context(), newWatchApp(cfg, logger))
		},
	}
	cmd.Flags().String("schedule", "", `cron schedule with seconds or a descriptor like "@every 5m" (env WATCH_SCHEDULE)`)
	return cmd
}

func newWatchApp(cfg *config.Config, logger *zap.Logger, extra ...fx.Option) *fx.App {
	opts := []fx.Option{
		fx.Supply(cfg, logger),
		fx.Provide(
			converter.NewConverter,
			func(conv *converter.Converter) scheduler.DirConverter { return conv },
			newScheduler,
		),
		fx.Invoke(registerScheduler),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	}
	return fx.New(append(opts, extra...)...)
}

func newScheduler(conv scheduler.DirConverter, cfg *config.Config, logger *zap.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler(conv, &scheduler.Config{
		CronSchedule: cfg.WatchSchedule,
		RunOnStart:   true,
	}, logger)
}

func registerScheduler(lc fx.Lifecycle, sched *scheduler.Scheduler, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := sched.Start(); err != nil {
				return err
			}
			status, err := sched.Status()
			if err != nil {
				return err
			}
			logger.Info("Watching source directory",
				zap.String("schedule", status.Schedule),
				zap.Time("next_run", status.Next),
				zap.Int("jobs", status.Jobs))
			return nil
		},
		OnStop: func(context.Context) error {
			sched.Stop()
			return nil
		},
	})
}

// runWatch starts app and blocks until a signal arrives or ctx is done.
func runWatch(ctx context.Context, app *fx.App) error {
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	select {
	case <-app.Done():
	case <-ctx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), app.StopTimeout())
	defer cancel()
	return app.Stop(stopCtx)
}
