package main

import (
	"os"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"github.com/Belafone/VivSync/pkg/config"
	"github.com/Belafone/VivSync/pkg/log"
	"github.com/Belafone/VivSync/pkg/syncclient"
	"github.com/Belafone/VivSync/pkg/temporal/activities"
	"github.com/Belafone/VivSync/pkg/temporal/workflows"
	"github.com/Belafone/VivSync/pkg/vivendi"
)

func main() {
	if err := log.Init(os.Getenv("VIVSYNC_ENV") == "production"); err != nil {
		os.Exit(1)
	}
	defer log.Sync()
	logger := log.L()

	temporalHost := os.Getenv("TEMPORAL_HOST")
	if temporalHost == "" {
		temporalHost = "localhost:7233"
	}

	c, err := client.Dial(client.Options{HostPort: temporalHost})
	if err != nil {
		logger.Fatal("Failed to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	cfg := config.FromEnv()
	acts := activities.NewActivities(
		vivendi.Config{
			URL:          cfg.VivendiURL,
			Username:     cfg.Username,
			Password:     cfg.Password,
			WindowsLogin: cfg.WindowsLogin,
			Headless:     cfg.Headless,
			BrowserBin:   cfg.BrowserBin,
		},
		syncclient.New(cfg.APIURL),
		cfg.ExpiryDays,
	)

	// One browser at a time; a second concurrent extraction would fight
	// over the same portal session.
	w := worker.New(c, workflows.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize: 1,
	})

	w.RegisterWorkflow(workflows.SyncWorkflow)
	w.RegisterActivity(acts.ExtractDiensteActivity)
	w.RegisterActivity(acts.PublishDiensteActivity)
	w.RegisterActivity(acts.ExportDiensteActivity)

	logger.Info("Starting Temporal worker",
		zap.String("taskQueue", workflows.TaskQueue),
		zap.String("temporalHost", temporalHost))

	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("Worker failed", zap.Error(err))
	}
}
