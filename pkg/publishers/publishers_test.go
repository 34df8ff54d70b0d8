package publishers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samvad-hq/grader-client/internal/domain"
)

func TestLoadRegistryEnabledFilter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "publishers.yaml")
	raw := `
publishers:
  - id: http1
    type: http
    enabled: false
    http:
      url: https://example.com
  - id: topic
    type: SNS
    sns:
      topic_arn: " arn:aws:sns:ap-south-1:123:grades "
      region: ap-south-1
  - id: gcp
    type: pubsub
    pubsub:
      project_id: grader
      topic: outcomes
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}
	enabled := reg.Enabled()
	if len(enabled) != 2 || enabled[0].ID != "topic" || enabled[1].ID != "gcp" {
		t.Fatalf("expected topic and gcp enabled, got %#v", enabled)
	}
	if enabled[0].Type != TypeSNS || enabled[0].SNS.TopicARN != "arn:aws:sns:ap-south-1:123:grades" {
		t.Fatalf("sns entry not sanitized: %#v", enabled[0].SNS)
	}
	if cfg, ok := reg.ByID("http1"); !ok || cfg.HTTP.Method != "POST" || cfg.HTTP.TimeoutSeconds != 5 {
		t.Fatalf("http defaults not applied: %#v", cfg.HTTP)
	}
}

func TestLoadRegistryErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]struct {
		name, content, want string
	}{
		"duplicate id": {"dup.json",
			`{"publishers":[{"id":"a","type":"http","http":{"url":"https://x"}},{"id":"a","type":"http","http":{"url":"https://y"}}]}`,
			`sink id "a" already used by publishers[0]`},
		"syntax error": {"bad.yaml", "publishers:\n  - id: [a\n", "decode yaml publishers file"},
		"no sinks":     {"empty.yml", "publishers: []\n", "declares no sinks"},
		"missing url":  {"nourl.yaml", "publishers:\n  - id: h\n    type: http\n    http: {}\n", `sink "h": http.url is required`},
	}
	for name, tc := range cases {
		path := filepath.Join(dir, tc.name)
		if err := os.WriteFile(path, []byte(tc.content), 0o644); err != nil {
			t.Fatalf("%s: write: %v", name, err)
		}
		_, err := LoadRegistry(path)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: expected error containing %q, got %v", name, tc.want, err)
		}
	}
}

func TestValidatePublisherConfig(t *testing.T) {
	cases := map[string]PublisherConfig{
		"missing http":     {ID: "h1", Type: TypeHTTP},
		"missing sns arn":  {ID: "s1", Type: TypeSNS, SNS: &SNSPublisherConfig{Region: "x"}},
		"missing sqs uri":  {ID: "q1", Type: TypeSQS, SQS: &SQSPublisherConfig{Region: "x"}},
		"missing topic":    {ID: "p1", Type: TypePubSub, PubSub: &PubSubPublisherConfig{ProjectID: "p"}},
		"unsupported type": {ID: "k1", Type: "kafka"},
	}
	for name, cfg := range cases {
		if err := validatePublisherConfig(cfg); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestBuildAllWithDefaultRegistry(t *testing.T) {
	reg := DefaultRegistry()
	pubs, err := BuildAll(context.Background(), reg, []PublisherConfig{
		{ID: "http", Type: TypeHTTP, HTTP: &HTTPPublisherConfig{URL: "https://example.com"}},
	}, nil)
	if err != nil {
		t.Fatalf("BuildAll: %v", err)
	}
	if len(pubs) != 1 || pubs[0].Type() != TypeHTTP {
		t.Fatalf("expected 1 http publisher, got %#v", pubs)
	}

	if _, err := BuildAll(context.Background(), reg, []PublisherConfig{{ID: "x", Type: "kafka"}}, nil); err == nil {
		t.Fatalf("expected error for unregistered type")
	}
}

func TestNewEventFromSubmission(t *testing.T) {
	evt := NewEvent(domain.Submission{
		ID:         "s1",
		JobID:      "j1",
		Operation:  domain.OperationOCR,
		StatusCode: 502,
		Error:      "bad gateway",
	})
	if evt.Succeeded || evt.Operation != "ocr" || evt.StatusCode != 502 {
		t.Fatalf("unexpected event %+v", evt)
	}
	if attrs := evt.attributes(); attrs["job_id"] != "j1" || attrs["succeeded"] != "false" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}
