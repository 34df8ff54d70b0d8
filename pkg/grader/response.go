package grader

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the backend reply exactly as the transport produced it.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if r == nil {
		return fmt.Errorf("nil response")
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode response body: %w", err)
	}
	return nil
}
