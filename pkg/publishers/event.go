package publishers

import (
	"encoding/json"
	"time"

	"github.com/samvad-hq/grader-client/internal/domain"
)

// Event represents the payload published downstream after a submission.
type Event struct {
	SubmissionID string          `json:"submission_id"`
	JobID        string          `json:"job_id,omitempty"`
	Operation    string          `json:"operation"`
	Source       string          `json:"source,omitempty"`
	StatusCode   int             `json:"status_code,omitempty"`
	Succeeded    bool            `json:"succeeded"`
	Error        string          `json:"error,omitempty"`
	Response     json.RawMessage `json:"response,omitempty"`
	SubmittedAt  time.Time       `json:"submitted_at"`
}

// NewEvent constructs an Event for the given submission.
func NewEvent(sub domain.Submission) Event {
	return Event{
		SubmissionID: sub.ID,
		JobID:        sub.JobID,
		Operation:    string(sub.Operation),
		Source:       sub.Source,
		StatusCode:   sub.StatusCode,
		Succeeded:    sub.Succeeded(),
		Error:        sub.Error,
		Response:     sub.Response,
		SubmittedAt:  sub.SubmittedAt,
	}
}

// attributes are attached to queue/topic messages for subscriber-side filtering.
func (e Event) attributes() map[string]string {
	attrs := map[string]string{
		"operation": e.Operation,
		"succeeded": boolString(e.Succeeded),
	}
	if e.JobID != "" {
		attrs["job_id"] = e.JobID
	}
	return attrs
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
