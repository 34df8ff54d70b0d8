package grader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippetBytes = 512

// ErrStatus marks a TransportError caused by a non-2xx response.
var ErrStatus = errors.New("non-success status")

// TransportError reports a failed exchange with the backend: a network error,
// a timeout, or a non-success HTTP status.
type TransportError struct {
	Op          string
	Method      string
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
	Err         error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		msg := fmt.Sprintf("%s: %s %s: status %d", e.Op, e.Method, e.URL, e.StatusCode)
		if snippet := bodySnippet(e.Body, e.ContentType); snippet != "" {
			msg += ": " + snippet
		}
		return msg
	}
	return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the request failed because a deadline elapsed.
func (e *TransportError) Timeout() bool {
	if e == nil || e.Err == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// IsTimeout reports whether err is a TransportError caused by a timeout.
func IsTimeout(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Timeout()
}

// bodySnippet returns a short, readable excerpt of an error body. HTML pages
// (proxy error pages mostly) are reduced to their title or heading.
func bodySnippet(body []byte, contentType string) string {
	if len(bytes.TrimSpace(body)) == 0 {
		return ""
	}
	if looksLikeHTML(body, contentType) {
		if text := htmlSummary(body); text != "" {
			return truncate(text)
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func looksLikeHTML(body []byte, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	head := bytes.ToLower(bytes.TrimSpace(body))
	return bytes.HasPrefix(head, []byte("<!doctype html")) || bytes.HasPrefix(head, []byte("<html"))
}

func htmlSummary(body []byte) string {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}
	for _, sel := range []string{"title", "h1", "body"} {
		if text := strings.Join(strings.Fields(doc.Find(sel).First().Text()), " "); text != "" {
			return text
		}
	}
	return ""
}

// truncate cuts s to at most maxSnippetBytes without splitting a rune.
func truncate(s string) string {
	if len(s) <= maxSnippetBytes {
		return s
	}
	n := maxSnippetBytes
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
