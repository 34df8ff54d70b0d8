package domain

import (
	"encoding/json"
	"time"
)

// Operation names a backend call.
type Operation string

const (
	OperationOCR   Operation = "ocr"
	OperationGrade Operation = "ai_grade"

	OperationAssignmentUpload  Operation = "assignment_upload"
	OperationAssignmentOCR     Operation = "assignment_ocr"
	OperationAssignmentReport  Operation = "assignment_report"
	OperationAssignmentCompile Operation = "assignment_compile_run"
)

// Submission is the audit record of one call to the grader backend.
type Submission struct {
	ID          string          `json:"id"`
	JobID       string          `json:"job_id,omitempty"`
	Operation   Operation       `json:"operation"`
	Source      string          `json:"source,omitempty"`
	Endpoint    string          `json:"endpoint"`
	StatusCode  int             `json:"status_code,omitempty"`
	ElapsedMs   int64           `json:"elapsed_ms"`
	SubmittedAt time.Time       `json:"submitted_at"`
	Response    json.RawMessage `json:"response,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Succeeded reports whether the backend accepted the submission.
func (s Submission) Succeeded() bool { return s.Error == "" }
