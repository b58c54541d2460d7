// Package activities implements the worker-side activities of the sync
// workflow: browser extraction, publishing, and local export.
package activities

import (
	"context"
	"fmt"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/Belafone/VivSync/pkg/ical"
	"github.com/Belafone/VivSync/pkg/models"
	"github.com/Belafone/VivSync/pkg/syncclient"
	"github.com/Belafone/VivSync/pkg/temporal/workflows"
	"github.com/Belafone/VivSync/pkg/vivendi"
)

// Activities bundles the dependencies shared by all sync activities.
type Activities struct {
	Vivendi           vivendi.Config
	Client            *syncclient.Client
	DefaultExpiryDays int
}

// NewActivities creates the activity set.
func NewActivities(cfg vivendi.Config, client *syncclient.Client, defaultExpiryDays int) *Activities {
	return &Activities{
		Vivendi:           cfg,
		Client:            client,
		DefaultExpiryDays: defaultExpiryDays,
	}
}

// ExtractDiensteActivity drives the browser against the portal and returns
// the merged roster. Fatal portal errors are marked non-retryable.
func (a *Activities) ExtractDiensteActivity(ctx context.Context) ([]models.Dienst, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Starting extraction", "url", a.Vivendi.URL)

	rep := vivendi.NewReporter(
		func(line string) {
			logger.Info(line)
			activity.RecordHeartbeat(ctx, line)
		},
		func(percent int) {
			activity.RecordHeartbeat(ctx, percent)
		},
	)

	dienste, err := vivendi.Extract(ctx, a.Vivendi, rep)
	if err != nil {
		if vivendi.IsFatal(err) {
			return nil, temporal.NewNonRetryableApplicationError(err.Error(), workflows.FatalExtractionError, err)
		}
		return nil, err
	}

	logger.Info("Extraction finished", "dienste", len(dienste))
	return dienste, nil
}

// PublishDiensteActivity uploads the roster to the hosted sync service.
func (a *Activities) PublishDiensteActivity(ctx context.Context, input workflows.PublishInput) (workflows.PublishOutput, error) {
	logger := activity.GetLogger(ctx)

	if a.Client == nil {
		return workflows.PublishOutput{}, fmt.Errorf("sync client not configured")
	}

	expiryDays := input.ExpiryDays
	if expiryDays <= 0 {
		expiryDays = a.DefaultExpiryDays
	}

	result, err := a.Client.Publish(ctx, input.Dienste, a.Vivendi.Username, expiryDays)
	if err != nil {
		return workflows.PublishOutput{}, err
	}

	logger.Info("Roster published", "icalURL", result.IcalURL)
	return workflows.PublishOutput{
		IcalURL:   result.IcalURL,
		ExpiresIn: result.ExpiresIn,
	}, nil
}

// ExportDiensteActivity writes the roster to an ICS file on the worker
// host and returns the path.
func (a *Activities) ExportDiensteActivity(ctx context.Context, input workflows.ExportInput) (string, error) {
	logger := activity.GetLogger(ctx)

	path := input.OutputPath
	if path == "" {
		path = "Dienstplan_" + time.Now().Format("2006-01-02") + ".ics"
	}

	if err := ical.WriteFile(input.Dienste, path, func(line string) {
		logger.Info(line)
	}); err != nil {
		return "", err
	}

	logger.Info("Roster exported", "path", path)
	return path, nil
}
