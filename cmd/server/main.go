package main

import (
	"context"
	"log"

	"github.com/ryanbaill/timetracking-automation/internal/config"
	"github.com/ryanbaill/timetracking-automation/internal/container"
	"github.com/ryanbaill/timetracking-automation/internal/queue"
	"github.com/ryanbaill/timetracking-automation/internal/server"

	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		container.Module,
		fx.Invoke(func(
			lc fx.Lifecycle,
			cfg *config.Config,
			srv *server.Server,
			retryWorker *queue.RetryWorker,
		) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					log.Printf("Starting timesheet sync platform on port %s", cfg.Server.Port)

					retryWorker.Start()

					go func() {
						if err := srv.Start(); err != nil {
							log.Printf("Server error: %v", err)
						}
					}()

					return nil
				},
				OnStop: func(ctx context.Context) error {
					log.Println("Shutting down timesheet sync platform")
					retryWorker.Stop()
					return srv.Stop()
				},
			})
		}),
	)

	app.Run()
}
