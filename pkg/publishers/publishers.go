package publishers

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

const (
	// Supported publisher types.
	TypeSQS    = "sqs"
	TypeSNS    = "sns"
	TypePubSub = "pubsub"
	TypeHTTP   = "http"

	httpDefaultMethod         = "POST"
	httpDefaultTimeoutSeconds = 5
)

// File is a decoded publishers file. Entries keep their file order.
type File struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`

	byID map[string]int
}

// PublisherConfig represents a single publisher entry declared in config files.
type PublisherConfig struct {
	ID      string                 `json:"id" yaml:"id"`
	Type    string                 `json:"type" yaml:"type"`
	Enabled *bool                  `json:"enabled" yaml:"enabled"`
	SQS     *SQSPublisherConfig    `json:"sqs" yaml:"sqs"`
	SNS     *SNSPublisherConfig    `json:"sns" yaml:"sns"`
	PubSub  *PubSubPublisherConfig `json:"pubsub" yaml:"pubsub"`
	HTTP    *HTTPPublisherConfig   `json:"http" yaml:"http"`
}

// AWSCredentials optionally pins static credentials and a custom endpoint
// (e.g. localstack). When empty the default AWS credential chain is used.
type AWSCredentials struct {
	AccessKeyID     string `json:"access_key_id" yaml:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key" yaml:"secret_access_key"`
	Endpoint        string `json:"endpoint" yaml:"endpoint"`
}

// SQSPublisherConfig holds AWS SQS specific settings.
type SQSPublisherConfig struct {
	QueueURL       string `json:"uri" yaml:"uri"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `yaml:",inline"`
}

// SNSPublisherConfig holds AWS SNS specific settings.
type SNSPublisherConfig struct {
	TopicARN       string `json:"topic_arn" yaml:"topic_arn"`
	Region         string `json:"region" yaml:"region"`
	AWSCredentials `yaml:",inline"`
}

// PubSubPublisherConfig holds Google Cloud Pub/Sub settings.
type PubSubPublisherConfig struct {
	ProjectID       string `json:"project_id" yaml:"project_id"`
	Topic           string `json:"topic" yaml:"topic"`
	CredentialsFile string `json:"credentials_file" yaml:"credentials_file"`
	Ordered         bool   `json:"ordered" yaml:"ordered"`
}

// HTTPPublisherConfig holds generic HTTP sink settings.
type HTTPPublisherConfig struct {
	URL            string            `json:"url" yaml:"url"`
	Method         string            `json:"method" yaml:"method"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	TimeoutSeconds int               `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// LoadFile reads and validates a publishers file. The format follows the
// extension: .json is JSON, .yaml, .yml or none is YAML. Unknown keys are
// rejected in both formats.
func LoadFile(path string) (*File, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	var f File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	case ".yaml", ".yml", "":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		err = dec.Decode(&f)
	default:
		return nil, fmt.Errorf("publishers file %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode publishers file %s: %w", path, err)
	}
	if len(f.Publishers) == 0 {
		return nil, fmt.Errorf("publishers file %s has no publishers", path)
	}

	f.byID = make(map[string]int, len(f.Publishers))
	for i := range f.Publishers {
		cfg := &f.Publishers[i]
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := f.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("publishers[%d]: duplicate id %q", i, cfg.ID)
		}
		f.byID[cfg.ID] = i
	}
	return &f, nil
}

// Lookup returns the entry with the given id.
func (f *File) Lookup(id string) (PublisherConfig, bool) {
	if f == nil {
		return PublisherConfig{}, false
	}
	i, ok := f.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return f.Publishers[i], true
}

// Enabled returns the entries not switched off, in file order.
func (f *File) Enabled() []PublisherConfig {
	if f == nil {
		return nil
	}
	var out []PublisherConfig
	for _, cfg := range f.Publishers {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}

// IsEnabled defaults to true when enabled is omitted.
func (cfg PublisherConfig) IsEnabled() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

func (cfg *PublisherConfig) normalize() {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	if cfg.SQS != nil {
		cfg.SQS.QueueURL = strings.TrimSpace(cfg.SQS.QueueURL)
		cfg.SQS.Region = strings.TrimSpace(cfg.SQS.Region)
		cfg.SQS.AWSCredentials.normalize()
	}
	if cfg.SNS != nil {
		cfg.SNS.TopicARN = strings.TrimSpace(cfg.SNS.TopicARN)
		cfg.SNS.Region = strings.TrimSpace(cfg.SNS.Region)
		cfg.SNS.AWSCredentials.normalize()
	}
	if cfg.PubSub != nil {
		cfg.PubSub.ProjectID = strings.TrimSpace(cfg.PubSub.ProjectID)
		cfg.PubSub.Topic = strings.TrimSpace(cfg.PubSub.Topic)
		cfg.PubSub.CredentialsFile = strings.TrimSpace(cfg.PubSub.CredentialsFile)
	}
	if cfg.HTTP != nil {
		cfg.HTTP.URL = strings.TrimSpace(cfg.HTTP.URL)
		cfg.HTTP.Method = strings.ToUpper(strings.TrimSpace(cfg.HTTP.Method))
		if cfg.HTTP.Method == "" {
			cfg.HTTP.Method = httpDefaultMethod
		}
		if cfg.HTTP.TimeoutSeconds <= 0 {
			cfg.HTTP.TimeoutSeconds = httpDefaultTimeoutSeconds
		}
		headers := make(map[string]string, len(cfg.HTTP.Headers))
		for k, v := range cfg.HTTP.Headers {
			if k = strings.TrimSpace(k); k != "" {
				headers[k] = strings.TrimSpace(v)
			}
		}
		cfg.HTTP.Headers = headers
	}
}

func (c *AWSCredentials) normalize() {
	c.AccessKeyID = strings.TrimSpace(c.AccessKeyID)
	c.SecretAccessKey = strings.TrimSpace(c.SecretAccessKey)
	c.Endpoint = strings.TrimSpace(c.Endpoint)
}

// validate checks that the block matching the type is present and complete.
func (cfg PublisherConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}

	var missing []string
	require := func(field, value string) {
		if value == "" {
			missing = append(missing, field)
		}
	}

	switch cfg.Type {
	case "":
		return fmt.Errorf("publisher %q: type is required", cfg.ID)
	case TypeSQS:
		if cfg.SQS == nil {
			return fmt.Errorf("publisher %q: sqs block is required", cfg.ID)
		}
		require("sqs.uri", cfg.SQS.QueueURL)
		require("sqs.region", cfg.SQS.Region)
		if err := cfg.SQS.AWSCredentials.validate(cfg.ID, "sqs"); err != nil {
			return err
		}
	case TypeSNS:
		if cfg.SNS == nil {
			return fmt.Errorf("publisher %q: sns block is required", cfg.ID)
		}
		require("sns.topic_arn", cfg.SNS.TopicARN)
		require("sns.region", cfg.SNS.Region)
		if err := cfg.SNS.AWSCredentials.validate(cfg.ID, "sns"); err != nil {
			return err
		}
	case TypePubSub:
		if cfg.PubSub == nil {
			return fmt.Errorf("publisher %q: pubsub block is required", cfg.ID)
		}
		require("pubsub.project_id", cfg.PubSub.ProjectID)
		require("pubsub.topic", cfg.PubSub.Topic)
	case TypeHTTP:
		if cfg.HTTP == nil {
			return fmt.Errorf("publisher %q: http block is required", cfg.ID)
		}
		require("http.url", cfg.HTTP.URL)
	default:
		return fmt.Errorf("publisher %q: unknown type %q", cfg.ID, cfg.Type)
	}

	if len(missing) > 0 {
		return fmt.Errorf("publisher %q: missing %s", cfg.ID, strings.Join(missing, ", "))
	}
	return nil
}

func (c AWSCredentials) validate(id, block string) error {
	if (c.AccessKeyID == "") != (c.SecretAccessKey == "") {
		return fmt.Errorf("publisher %q: %s.access_key_id and %s.secret_access_key must be set together", id, block, block)
	}
	return nil
}
