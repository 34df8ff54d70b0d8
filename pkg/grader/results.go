package grader

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Business codes carried in the backend envelope.
const (
	CodeSuccess          = 0
	CodeValidationFailed = 1001
	CodeServiceFailed    = 1002
)

// Envelope is the backend's uniform response wrapper.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    *T     `json:"data"`
}

// OK reports whether the backend signalled success.
func (e Envelope[T]) OK() bool { return e.Code == CodeSuccess }

// OCRResult is the data returned by the OCR endpoint.
type OCRResult struct {
	RecognizedCode string `json:"recognizedCode"`
}

// Breakdown splits a grade into its scoring dimensions.
type Breakdown struct {
	Correctness     float64 `json:"correctness"`
	Standardization float64 `json:"standardization"`
	Efficiency      float64 `json:"efficiency"`
	Readability     float64 `json:"readability"`
}

// GradeReport is the data returned by the AI grading endpoint.
type GradeReport struct {
	Score       float64   `json:"score"`
	Breakdown   Breakdown `json:"breakdown"`
	Reason      string    `json:"reason"`
	Suggestions []string  `json:"suggestions"`
	Strengths   []string  `json:"strengths"`
	Weaknesses  []string  `json:"weaknesses"`
}

// DecodeEnvelope decodes resp as an Envelope carrying T. The backend
// serializes its (envelope, status) pairs as a two-element JSON array, so both
// a bare envelope object and [envelope, status] are accepted.
func DecodeEnvelope[T any](resp *Response) (Envelope[T], error) {
	var env Envelope[T]
	if resp == nil {
		return env, fmt.Errorf("nil response")
	}
	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 || body[0] != '[' {
		if err := resp.Decode(&env); err != nil {
			return Envelope[T]{}, err
		}
		return env, nil
	}

	var pair []json.RawMessage
	if err := json.Unmarshal(body, &pair); err != nil {
		return Envelope[T]{}, fmt.Errorf("decode response body: %w", err)
	}
	if len(pair) == 0 {
		return Envelope[T]{}, fmt.Errorf("decode response body: empty envelope array")
	}
	if err := json.Unmarshal(pair[0], &env); err != nil {
		return Envelope[T]{}, fmt.Errorf("decode response envelope: %w", err)
	}
	return env, nil
}

// AssignmentID identifies an uploaded assignment. The backend has sent it both
// as a JSON number and as a string, so either form decodes.
type AssignmentID string

func (id *AssignmentID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = AssignmentID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("assignment id: %w", err)
	}
	*id = AssignmentID(n.String())
	return nil
}

// UploadResult is the data returned when an assignment file is stored.
type UploadResult struct {
	AssignmentID AssignmentID `json:"assignmentId"`
	FileName     string       `json:"fileName"`
}

// CompileResult is the data returned by the compile-and-run endpoint.
// Output and Error are empty when the backend reports null.
type CompileResult struct {
	Language        string `json:"language"`
	CodeLengthBytes int    `json:"codeLengthBytes"`
	SubmitTime      string `json:"submitTime"`
	EvalTime        string `json:"evalTime"`
	CompileSuccess  bool   `json:"compileSuccess"`
	Output          string `json:"output"`
	Error           string `json:"error"`
}
