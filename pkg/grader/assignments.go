package grader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// AssignmentStep names an action the backend runs on a stored assignment.
type AssignmentStep string

const (
	StepOCR     AssignmentStep = "ocr"
	StepReport  AssignmentStep = "report"
	StepCompile AssignmentStep = "Compile_run"
)

// Valid reports whether s is one of the backend's assignment actions.
func (s AssignmentStep) Valid() bool {
	switch s {
	case StepOCR, StepReport, StepCompile:
		return true
	}
	return false
}

// UploadAssignment stores a file on the backend via {base}/assignments. The
// body decodes as an Envelope of UploadResult.
func (c *Client) UploadAssignment(ctx context.Context, req UploadRequest) (*Response, error) {
	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, fmt.Errorf("encode assignment upload: %w", err)
	}
	return c.post(ctx, "assignment_upload", assignmentsPath, body, contentType)
}

// RecognizeAssignment runs OCR on a stored assignment. The body decodes as an
// Envelope of OCRResult.
func (c *Client) RecognizeAssignment(ctx context.Context, id string) (*Response, error) {
	return c.RunAssignmentStep(ctx, id, StepOCR)
}

// ReportAssignment asks for the AI report of a stored assignment. The body
// decodes as an Envelope of GradeReport.
func (c *Client) ReportAssignment(ctx context.Context, id string) (*Response, error) {
	return c.RunAssignmentStep(ctx, id, StepReport)
}

// CompileAssignment compiles and runs a stored assignment. The body decodes as
// an Envelope of CompileResult.
func (c *Client) CompileAssignment(ctx context.Context, id string) (*Response, error) {
	return c.RunAssignmentStep(ctx, id, StepCompile)
}

// RunAssignmentStep posts an empty body to {base}/assignments/{id}/{step}.
func (c *Client) RunAssignmentStep(ctx context.Context, id string, step AssignmentStep) (*Response, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("assignment id is required")
	}
	if !step.Valid() {
		return nil, fmt.Errorf("unknown assignment step %q", step)
	}
	path := assignmentsPath + "/" + url.PathEscape(id) + "/" + string(step)
	return c.post(ctx, "assignment_"+strings.ToLower(string(step)), path, nil, "")
}
