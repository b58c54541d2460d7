// Package workflows holds the Temporal workflow driving a full
// extract-and-publish run.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Belafone/VivSync/pkg/models"
)

// TaskQueue is the queue shared by the API server and the worker.
const TaskQueue = "vivsync"

// QueryProgress is the query name for the live progress snapshot.
const QueryProgress = "getProgress"

// FatalExtractionError marks extraction failures that retrying cannot fix,
// such as a missing login form or an unreachable portal URL.
const FatalExtractionError = "FatalExtractionError"

// SyncInput parameterizes one run. When Upload is false the roster is
// written to OutputPath on the worker host instead of being published.
type SyncInput struct {
	ExpiryDays int    `json:"expiry_days"`
	Upload     bool   `json:"upload"`
	OutputPath string `json:"output_path,omitempty"`
}

// SyncResult is the workflow's terminal state.
type SyncResult struct {
	DienstCount int    `json:"dienst_count"`
	IcalURL     string `json:"ical_url,omitempty"`
	OutputPath  string `json:"output_path,omitempty"`
}

// PublishInput carries the extracted roster to the publish activity.
type PublishInput struct {
	Dienste    []models.Dienst `json:"dienste"`
	ExpiryDays int             `json:"expiry_days"`
}

// PublishOutput reports where the published feed lives.
type PublishOutput struct {
	IcalURL   string `json:"ical_url"`
	ExpiresIn string `json:"expires_in"`
}

// ExportInput carries the extracted roster to the file export activity.
type ExportInput struct {
	Dienste    []models.Dienst `json:"dienste"`
	OutputPath string          `json:"output_path"`
}

// SyncWorkflow logs into the portal, extracts the roster, and either
// publishes it to the sync service or exports it to a local ICS file.
func SyncWorkflow(ctx workflow.Context, input SyncInput) (SyncResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting sync workflow", "upload", input.Upload, "expiryDays", input.ExpiryDays)

	progress := models.RunProgress{
		Status: models.RunRunning,
		Stage:  "starting",
	}

	err := workflow.SetQueryHandler(ctx, QueryProgress, func() (models.RunProgress, error) {
		return progress, nil
	})
	if err != nil {
		logger.Error("Failed to register query handler", "error", err)
	}

	activityOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		HeartbeatTimeout:    30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        time.Minute,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{FatalExtractionError},
		},
	}
	ctx = workflow.WithActivityOptions(ctx, activityOptions)

	progress.Stage = "extracting"
	progress.Percent = 10

	var dienste []models.Dienst
	err = workflow.ExecuteActivity(ctx, "ExtractDiensteActivity", nil).Get(ctx, &dienste)
	if err != nil {
		progress.Status = models.RunFailed
		progress.ErrorMessage = "Extraction failed: " + err.Error()
		return SyncResult{}, err
	}

	progress.Stage = "extracted"
	progress.Percent = 70
	progress.DienstCount = len(dienste)

	result := SyncResult{DienstCount: len(dienste)}

	if input.Upload {
		progress.Stage = "publishing"
		progress.Percent = 80

		var out PublishOutput
		err = workflow.ExecuteActivity(ctx, "PublishDiensteActivity", PublishInput{
			Dienste:    dienste,
			ExpiryDays: input.ExpiryDays,
		}).Get(ctx, &out)
		if err != nil {
			progress.Status = models.RunFailed
			progress.ErrorMessage = "Publish failed: " + err.Error()
			return SyncResult{}, err
		}
		result.IcalURL = out.IcalURL
		progress.IcalURL = out.IcalURL
	} else {
		progress.Stage = "exporting"
		progress.Percent = 80

		var path string
		err = workflow.ExecuteActivity(ctx, "ExportDiensteActivity", ExportInput{
			Dienste:    dienste,
			OutputPath: input.OutputPath,
		}).Get(ctx, &path)
		if err != nil {
			progress.Status = models.RunFailed
			progress.ErrorMessage = "Export failed: " + err.Error()
			return SyncResult{}, err
		}
		result.OutputPath = path
	}

	progress.Stage = "done"
	progress.Percent = 100
	progress.Status = models.RunSuccess

	logger.Info("Sync workflow completed", "dienste", result.DienstCount, "icalURL", result.IcalURL)
	return result, nil
}
