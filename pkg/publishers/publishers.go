package publishers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samvad-hq/grader-client/internal/filecodec"
)

const (
	// Supported publisher types.
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypeHTTP   = "http"
	TypePubSub = "pubsub"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// sinksFile is the document behind PUBLISHERS_FILE.
type sinksFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
}

// AWSCredentials are optional static keys; the default credential chain is used otherwise.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	SessionToken    string `json:"session_token" yaml:"session_token"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL    string          `json:"uri" yaml:"uri"`
	Region      string          `json:"region" yaml:"region"`
	Endpoint    string          `json:"endpoint" yaml:"endpoint"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN    string          `json:"topic_arn" yaml:"topic_arn"`
	Region      string          `json:"region" yaml:"region"`
	Endpoint    string          `json:"endpoint" yaml:"endpoint"`
	Credentials *AWSCredentials `json:"credentials" yaml:"credentials"`
}

// PubSubPublisherConfig holds Google Cloud Pub/Sub settings.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
}

// HTTPPublisherConfig holds generic HTTP sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// ConfigRegistry holds the outcome sinks declared in the publishers file, in
// file order. It is read-only after LoadRegistry.
type ConfigRegistry struct {
	publishers []PublisherConfig
	byID       map[string]int
}

// LoadRegistry reads the sinks that submission outcomes are forwarded to.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	var doc sinksFile
	if err := filecodec.DecodeFile(path, "publishers file", &doc); err != nil {
		return nil, err
	}
	if len(doc.Publishers) == 0 {
		return nil, fmt.Errorf("publishers file %s declares no sinks", path)
	}

	reg := &ConfigRegistry{
		publishers: make([]PublisherConfig, 0, len(doc.Publishers)),
		byID:       make(map[string]int, len(doc.Publishers)),
	}
	for i, raw := range doc.Publishers {
		cfg := sanitizePublisherConfig(raw)
		if err := validatePublisherConfig(cfg); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if prev, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("publishers[%d]: sink id %q already used by publishers[%d]", i, cfg.ID, prev)
		}
		reg.byID[cfg.ID] = len(reg.publishers)
		reg.publishers = append(reg.publishers, cfg)
	}
	return reg, nil
}

// sanitizePublisherConfig trims every string field, lowercases the type and
// fills the HTTP defaults. Nested configs are copied, never modified in place.
func sanitizePublisherConfig(cfg PublisherConfig) PublisherConfig {
	trim(&cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))
	if cfg.Enabled == nil {
		on := true
		cfg.Enabled = &on
	}

	if cfg.SQS != nil {
		c := *cfg.SQS
		trim(&c.QueueURL, &c.Region, &c.Endpoint)
		cfg.SQS = &c
	}
	if cfg.SNS != nil {
		c := *cfg.SNS
		trim(&c.TopicARN, &c.Region, &c.Endpoint)
		cfg.SNS = &c
	}
	if cfg.PubSub != nil {
		c := *cfg.PubSub
		trim(&c.ProjectID, &c.Topic, &c.CredentialsFile)
		cfg.PubSub = &c
	}
	if cfg.HTTP != nil {
		c := *cfg.HTTP
		trim(&c.URL)
		c.Method = strings.ToUpper(strings.TrimSpace(c.Method))
		if c.Method == "" {
			c.Method = httpDefaultMethod
		}
		if c.TimeoutSeconds <= 0 {
			c.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		c.Headers = sanitizeHeaders(c.Headers)
		cfg.HTTP = &c
	}
	return cfg
}

func trim(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

// sanitizeHeaders drops headers whose name or value is blank.
func sanitizeHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if k != "" && v != "" {
			out[k] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// validatePublisherConfig reports the first missing setting of a sink.
func validatePublisherConfig(cfg PublisherConfig) error {
	if cfg.ID == "" {
		return errors.New("sink id is required")
	}
	missing := func(field string) error {
		return fmt.Errorf("sink %q: %s is required", cfg.ID, field)
	}

	switch cfg.Type {
	case "":
		return missing("type")
	case TypeSQS:
		switch {
		case cfg.SQS == nil:
			return missing("sqs section")
		case cfg.SQS.QueueURL == "":
			return missing("sqs.uri")
		case cfg.SQS.Region == "":
			return missing("sqs.region")
		}
	case TypeSNS:
		switch {
		case cfg.SNS == nil:
			return missing("sns section")
		case cfg.SNS.TopicARN == "":
			return missing("sns.topic_arn")
		case cfg.SNS.Region == "":
			return missing("sns.region")
		}
	case TypeHTTP:
		switch {
		case cfg.HTTP == nil:
			return missing("http section")
		case cfg.HTTP.URL == "":
			return missing("http.url")
		}
	case TypePubSub:
		switch {
		case cfg.PubSub == nil:
			return missing("pubsub section")
		case cfg.PubSub.ProjectID == "":
			return missing("pubsub.project_id")
		case cfg.PubSub.Topic == "":
			return missing("pubsub.topic")
		}
	default:
		return fmt.Errorf("sink %q: type %q is not one of http, sqs, sns, pubsub", cfg.ID, cfg.Type)
	}
	return nil
}

// ByID looks a sink up by its id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.publishers[i], true
}

// All returns a copy of every declared sink.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.publishers...)
}

// Enabled returns the sinks that should receive outcomes.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	if r == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range r.publishers {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}

// EnabledValue reports the enabled flag; sinks are on unless disabled.
func (cfg PublisherConfig) EnabledValue() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}
