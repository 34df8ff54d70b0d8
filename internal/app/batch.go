package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/grader-client/internal/manifest"
	"github.com/samvad-hq/grader-client/pkg/grader"
)

// BatchResult is the outcome of one manifest job.
type BatchResult struct {
	JobID    string
	Type     string
	Response *grader.Response
	Err      error
}

// RunBatch submits jobs one after another. A failed job does not stop the
// batch; a cancelled context does.
func (a *App) RunBatch(ctx context.Context, jobs []manifest.Job) ([]BatchResult, error) {
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no jobs to run")
	}

	start := time.Now()
	a.log.InfoObj("batch started", "batch_meta", map[string]any{
		"jobs_count": len(jobs),
		"started_at": start.UTC(),
	})

	results := make([]BatchResult, 0, len(jobs))
	var errs []error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, fmt.Errorf("batch cancelled: %w", err))
			break
		}

		res := BatchResult{JobID: job.ID, Type: job.Type}
		res.Response, res.Err = a.runJob(ctx, job)
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", job.ID, res.Err))
			a.log.ErrorObj("batch job failed", "job_error", map[string]any{
				"job_id": job.ID,
				"type":   job.Type,
				"error":  res.Err.Error(),
			})
		}
		results = append(results, res)
	}

	a.log.InfoObj("batch completed", "batch_meta", map[string]any{
		"jobs_count": len(jobs),
		"ran":        len(results),
		"failed":     len(errs),
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return results, errors.Join(errs...)
}

func (a *App) runJob(ctx context.Context, job manifest.Job) (*grader.Response, error) {
	switch job.Type {
	case manifest.JobTypeOCR:
		return a.SubmitOCR(ctx, job.ID, job.File)
	case manifest.JobTypeGrade:
		text, err := job.ResolveText()
		if err != nil {
			return nil, err
		}
		source := job.TextFile
		if source == "" {
			source = "inline"
		}
		return a.SubmitGrade(ctx, job.ID, source, text)
	default:
		return nil, fmt.Errorf("unsupported job type %q", job.Type)
	}
}
