package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samvad-hq/grader-client/internal/config"
	"github.com/samvad-hq/grader-client/internal/domain"
	"github.com/samvad-hq/grader-client/internal/journal"
	"github.com/samvad-hq/grader-client/internal/logger"
	"github.com/samvad-hq/grader-client/pkg/grader"
	"github.com/samvad-hq/grader-client/pkg/httpclient"
	"github.com/samvad-hq/grader-client/pkg/publishers"
)

// App wires the grader client together with the submission journal and the
// outcome publishers. One App is built at process start and shared by commands.
type App struct {
	cfg    *config.Config
	client *grader.Client
	store  journal.Store
	fanout *publishers.Fanout
	log    logger.Logger
}

// Option overrides a component during New.
type Option func(*App)

// WithClient uses c instead of building a client from config.
func WithClient(c *grader.Client) Option { return func(a *App) { a.client = c } }

// WithStore uses s instead of opening the configured journal.
func WithStore(s journal.Store) Option { return func(a *App) { a.store = s } }

// WithFanout uses f instead of loading the publishers file.
func WithFanout(f *publishers.Fanout) Option { return func(a *App) { a.fanout = f } }

// New builds the runtime from config.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a := &App{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(a)
	}

	if a.client == nil {
		client, err := newClient(cfg, log)
		if err != nil {
			return nil, fmt.Errorf("init grader client: %w", err)
		}
		a.client = client
	}
	log.InfoObj("grader client ready", "client_config", map[string]any{
		"base_url":   a.client.Config().BaseURL(),
		"timeout_ms": a.client.Config().Timeout.Milliseconds(),
	})

	if a.store == nil {
		store, err := journal.NewStore(cfg.JournalType, cfg.JournalPath, journal.Options{
			TTL:             cfg.JournalTTL,
			CleanupInterval: cfg.JournalCleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("init journal: %w", err)
		}
		a.store = store
		log.InfoObj("journal initialized", "journal_config", map[string]any{
			"type":        cfg.JournalType,
			"path":        cfg.JournalPath,
			"ttl_seconds": int(cfg.JournalTTL.Seconds()),
		})
	}

	if a.fanout == nil {
		fanout, err := loadFanout(ctx, cfg.PublishersFile, log)
		if err != nil {
			if cerr := a.store.Close(); cerr != nil {
				err = errors.Join(err, fmt.Errorf("close journal: %w", cerr))
			}
			return nil, err
		}
		a.fanout = fanout
	}

	return a, nil
}

func newClient(cfg *config.Config, log logger.Logger) (*grader.Client, error) {
	transport := httpclient.NewRestyClient(cfg.Timeout)
	if zl, ok := log.(*logger.ZapLogger); ok {
		transport.SetLogger(zl.Sugar())
	}
	return grader.New(grader.ClientConfig{
		ServerURL: cfg.ServerURL,
		BasePath:  cfg.BasePath,
		Timeout:   cfg.Timeout,
	}, grader.WithTransport(transport), grader.WithLogger(log))
}

func loadFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		return publishers.NewFanout(nil), nil
	}

	reg, err := publishers.LoadRegistry(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := reg.Enabled()
	pubs, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, c := range enabled {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs), nil
}

// Client exposes the shared grader client.
func (a *App) Client() *grader.Client { return a.client }

// SubmitOCR uploads the image at path. The client's error is returned unchanged.
func (a *App) SubmitOCR(ctx context.Context, jobID, path string) (*grader.Response, error) {
	upload, err := grader.NewUploadFromFile(path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := a.client.SubmitOCRUpload(ctx, upload)
	a.recordOutcome(ctx, domain.OperationOCR, jobID, path, start, resp, err)
	return resp, err
}

// UploadAssignment stores the file at path on the backend as a new assignment.
func (a *App) UploadAssignment(ctx context.Context, jobID, path string) (*grader.Response, error) {
	upload, err := grader.NewUploadFromFile(path)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := a.client.UploadAssignment(ctx, upload)
	a.recordOutcome(ctx, domain.OperationAssignmentUpload, jobID, path, start, resp, err)
	return resp, err
}

var assignmentOperations = map[grader.AssignmentStep]domain.Operation{
	grader.StepOCR:     domain.OperationAssignmentOCR,
	grader.StepReport:  domain.OperationAssignmentReport,
	grader.StepCompile: domain.OperationAssignmentCompile,
}

// RunAssignmentStep runs step on a stored assignment.
func (a *App) RunAssignmentStep(ctx context.Context, jobID, assignmentID string, step grader.AssignmentStep) (*grader.Response, error) {
	op, ok := assignmentOperations[step]
	if !ok {
		return nil, fmt.Errorf("unknown assignment step %q", step)
	}
	start := time.Now()
	resp, err := a.client.RunAssignmentStep(ctx, assignmentID, step)
	a.recordOutcome(ctx, op, jobID, "assignment:"+assignmentID, start, resp, err)
	return resp, err
}

// SubmitGrade sends text for grading. source names where the text came from.
func (a *App) SubmitGrade(ctx context.Context, jobID, source, text string) (*grader.Response, error) {
	start := time.Now()
	resp, err := a.client.SubmitGrading(ctx, grader.GradeRequest{Text: text})
	a.recordOutcome(ctx, domain.OperationGrade, jobID, source, start, resp, err)
	return resp, err
}

// History returns up to limit journal entries, newest first.
func (a *App) History(limit int) ([]domain.Submission, error) {
	return a.store.Recent(limit)
}

// Close releases the journal and publishers.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close journal: %w", err))
		}
	}
	if err := a.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// recordOutcome journals and publishes a finished call. Failures here are
// logged; they never replace the client's result.
func (a *App) recordOutcome(ctx context.Context, op domain.Operation, jobID, source string, start time.Time, resp *grader.Response, callErr error) {
	sub := domain.Submission{
		ID:          uuid.NewString(),
		JobID:       jobID,
		Operation:   op,
		Source:      source,
		Endpoint:    a.client.Config().BaseURL(),
		ElapsedMs:   time.Since(start).Milliseconds(),
		SubmittedAt: start.UTC(),
	}
	if resp != nil {
		sub.Endpoint = resp.URL
		sub.StatusCode = resp.StatusCode
		sub.Response = rawJSON(resp.Body)
	}
	if callErr != nil {
		sub.Error = callErr.Error()
		var te *grader.TransportError
		if errors.As(callErr, &te) {
			sub.Endpoint = te.URL
			if te.StatusCode > 0 {
				sub.StatusCode = te.StatusCode
				sub.Response = rawJSON(te.Body)
			}
		}
	}

	if err := a.store.Record(sub); err != nil {
		a.log.WarnObj("journal record failed", "journal_error", map[string]any{
			"submission_id": sub.ID,
			"error":         err.Error(),
		})
	}
	if a.fanout.Size() == 0 {
		return
	}
	if n, err := a.fanout.Publish(ctx, publishers.NewEvent(sub)); err != nil {
		a.log.WarnObj("outcome publish failed", "publish_error", map[string]any{
			"submission_id": sub.ID,
			"delivered":     n,
			"error":         err.Error(),
		})
	}
}

// rawJSON keeps JSON bodies as-is and wraps anything else as a JSON string.
func rawJSON(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return quoted
}
